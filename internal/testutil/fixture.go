package testutil

import (
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// FixtureContext is a fixture workspace copied into a temporary root.
type FixtureContext struct {
	// Name is the fixture directory name under testdata/fixtures
	Name string

	// Dir is the checked-in fixture directory
	Dir string

	// Root is the temporary workspace the fixture was copied to
	Root string

	// ExpectedDir holds the fixture's golden files
	ExpectedDir string

	// Workspace wraps Root for writing extra files
	Workspace *Workspace
}

// LoadFixture copies testdata/fixtures/<name>/workspace into a fresh
// temporary root, expanding RootPlaceholder in every file. Copying keeps
// the checked-in artifacts intact when a test consumes them.
func LoadFixture(t *testing.T, name string) *FixtureContext {
	t.Helper()

	fixtureDir := filepath.Join(getFixturesRoot(t), name)
	src := filepath.Join(fixtureDir, "workspace")
	if _, err := os.Stat(src); os.IsNotExist(err) {
		t.Fatalf("Fixture workspace not found: %s", src)
	}

	ws := NewWorkspace(t)
	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		ws.write(rel, ws.Expand(string(data)))
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to copy fixture %s: %v", name, err)
	}

	return &FixtureContext{
		Name:        name,
		Dir:         fixtureDir,
		Root:        ws.Root,
		ExpectedDir: filepath.Join(fixtureDir, "expected"),
		Workspace:   ws,
	}
}

// ExpectedPath returns the path to a golden file within the fixture.
// The name should not include the .json extension.
func (f *FixtureContext) ExpectedPath(name string) string {
	return filepath.Join(f.ExpectedDir, name+".json")
}

// EngineOutput returns the scripted engine output for kind, read from
// engine/<kind>.txt in the fixture directory.
func (f *FixtureContext) EngineOutput(kind string) (string, bool) {
	data, err := os.ReadFile(filepath.Join(f.Dir, "engine", kind+".txt"))
	if err != nil {
		return "", false
	}
	return string(data), true
}

// Path returns the absolute path of a file inside the fixture workspace.
func (f *FixtureContext) Path(rel string) string {
	return f.Workspace.Path(rel)
}

// getFixturesRoot returns the absolute path to testdata/fixtures/.
func getFixturesRoot(t *testing.T) string {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get caller information")
	}

	// internal/testutil -> project root
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(thisFile)))
	fixturesRoot := filepath.Join(projectRoot, "testdata", "fixtures")

	if _, err := os.Stat(fixturesRoot); os.IsNotExist(err) {
		t.Fatalf("Fixtures root not found: %s", fixturesRoot)
	}
	return fixturesRoot
}

// AvailableFixtures lists fixture directories that have a workspace.
func AvailableFixtures(t *testing.T) []string {
	t.Helper()

	root := getFixturesRoot(t)
	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("Failed to read fixtures directory: %v", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if _, err := os.Stat(filepath.Join(root, entry.Name(), "workspace")); err == nil {
			names = append(names, entry.Name())
		}
	}
	return names
}
