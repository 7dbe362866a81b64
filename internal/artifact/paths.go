// Package artifact locates and consumes the one-shot result files the
// analysis engine writes into a workspace.
//
// The engine and lgtnav never share a channel: the engine writes a file under
// a well-known name, and lgtnav reads it exactly once and deletes it. The
// "await the engine, then read" ordering in the dispatch layer is what makes
// this safe; nothing here waits or polls.
package artifact

import (
	"path/filepath"
	"strings"

	"lgtnav/internal/errors"
)

// Kind identifies an analysis result kind and, with it, an artifact name.
type Kind string

const (
	KindCallers        Kind = "callers"
	KindCallees        Kind = "callees"
	KindAncestors      Kind = "ancestors"
	KindDescendants    Kind = "descendants"
	KindReferences     Kind = "references"
	KindTypeDefinition Kind = "type_definition"
	KindTestResults    Kind = "test_results"
	KindMetrics        Kind = "metrics"
)

// AllKinds lists every kind with a reserved artifact name.
var AllKinds = []Kind{
	KindCallers,
	KindCallees,
	KindAncestors,
	KindDescendants,
	KindReferences,
	KindTypeDefinition,
	KindTestResults,
	KindMetrics,
}

// baseNames are the engine-side file names, without the reserved prefix.
var baseNames = map[Kind]string{
	KindCallers:        "callers",
	KindCallees:        "callees",
	KindAncestors:      "ancestors",
	KindDescendants:    "descendants",
	KindReferences:     "references",
	KindTypeDefinition: "type_definition",
	KindTestResults:    "test_results",
	KindMetrics:        "metrics_results",
}

const (
	sentinelSuffix = "_done"
	claimSuffix    = ".consuming"
)

// Resolver maps kinds to artifact paths. It performs no I/O.
type Resolver struct {
	prefix string
	legacy bool
}

// NewResolver creates a resolver for the given reserved prefix. When legacy is
// set, Candidates also offers the source file's directory after the root.
func NewResolver(prefix string, legacy bool) *Resolver {
	return &Resolver{prefix: prefix, legacy: legacy}
}

// Name returns the reserved file name for kind.
func (r *Resolver) Name(kind Kind) string {
	base, ok := baseNames[kind]
	if !ok {
		base = strings.ToLower(string(kind))
	}
	return r.prefix + base
}

// SentinelName returns the name of the optional "done" marker for kind.
func (r *Resolver) SentinelName(kind Kind) string {
	return r.Name(kind) + sentinelSuffix
}

// AllNames returns every reserved artifact and sentinel name.
func (r *Resolver) AllNames() []string {
	names := make([]string, 0, 2*len(AllKinds))
	for _, k := range AllKinds {
		names = append(names, r.Name(k), r.SentinelName(k))
	}
	return names
}

// IsReserved reports whether name is one of the reserved artifact names.
func (r *Resolver) IsReserved(name string) bool {
	for _, n := range r.AllNames() {
		if n == name {
			return true
		}
	}
	return false
}

// Resolve returns the root-level path for kind.
func (r *Resolver) Resolve(root string, kind Kind) (string, error) {
	if strings.TrimSpace(root) == "" {
		return "", errors.New(errors.NoWorkspace, "no workspace root is open", nil)
	}
	return filepath.Join(root, r.Name(kind)), nil
}

// Candidates returns the lookup order for kind: the workspace root first, then
// sourceDir for engines that still write next to the source file.
func (r *Resolver) Candidates(root, sourceDir string, kind Kind) ([]string, error) {
	primary, err := r.Resolve(root, kind)
	if err != nil {
		return nil, err
	}
	out := []string{primary}
	if r.legacy && sourceDir != "" && filepath.Clean(sourceDir) != filepath.Clean(root) {
		out = append(out, filepath.Join(sourceDir, r.Name(kind)))
	}
	return out, nil
}
