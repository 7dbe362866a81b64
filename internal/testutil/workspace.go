// Package testutil provides workspace fixtures, a scripted engine and golden
// file helpers for tests.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// RootPlaceholder in fixture content is replaced by the workspace root.
const RootPlaceholder = "${ROOT}"

// Workspace is a temporary workspace root.
type Workspace struct {
	t    *testing.T
	Root string
}

// NewWorkspace creates an empty workspace under t.TempDir().
func NewWorkspace(t *testing.T) *Workspace {
	t.Helper()
	return &Workspace{t: t, Root: filepath.ToSlash(t.TempDir())}
}

// Path returns the absolute slash-separated path of rel.
func (w *Workspace) Path(rel string) string {
	return filepath.ToSlash(filepath.Join(w.Root, rel))
}

// WriteSource writes a source file and returns its path.
func (w *Workspace) WriteSource(rel, content string) string {
	w.t.Helper()
	return w.write(rel, content)
}

// WriteArtifact writes a file directly under the root, expanding
// RootPlaceholder, and returns its path.
func (w *Workspace) WriteArtifact(name, content string) string {
	w.t.Helper()
	return w.write(name, w.Expand(content))
}

// Expand replaces RootPlaceholder with the workspace root.
func (w *Workspace) Expand(content string) string {
	return strings.ReplaceAll(content, RootPlaceholder, w.Root)
}

// Exists reports whether rel exists.
func (w *Workspace) Exists(rel string) bool {
	_, err := os.Stat(w.Path(rel))
	return err == nil
}

func (w *Workspace) write(rel, content string) string {
	w.t.Helper()
	path := w.Path(rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		w.t.Fatalf("Failed to create directory for %s: %v", rel, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		w.t.Fatalf("Failed to write %s: %v", rel, err)
	}
	return path
}
