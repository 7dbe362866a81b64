package paths

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	// StateDirName is the per-workspace directory holding config, logs and cache
	StateDirName = ".lgtnav"
	// LogsDirName is the logs subdirectory inside the state directory
	LogsDirName = "logs"
	// LogFileName is the workspace log file name
	LogFileName = "lgtnav.log"
	// CacheDBName is the result cache database file name
	CacheDBName = "cache.db"
)

// NormalizePath converts backslashes to forward slashes and cleans the path.
// The engine may report Windows-style separators regardless of host OS.
func NormalizePath(path string) string {
	if path == "" {
		return ""
	}
	return filepath.ToSlash(filepath.Clean(strings.ReplaceAll(path, "\\", "/")))
}

// SamePath reports whether a and b name the same file, ignoring separator
// style and letter case. The engine runtime may lower-case drive letters or
// whole paths on case-insensitive filesystems.
func SamePath(a, b string) bool {
	return strings.EqualFold(NormalizePath(a), NormalizePath(b))
}

// IsWithin reports whether path lies inside root, compared case-insensitively.
func IsWithin(path, root string) bool {
	p := strings.ToLower(NormalizePath(path))
	r := strings.ToLower(NormalizePath(root))
	if r == "" {
		return false
	}
	if p == r {
		return true
	}
	return strings.HasPrefix(p, strings.TrimSuffix(r, "/")+"/")
}

// CanonicalizePath converts an absolute path to a root-relative path with
// forward slashes. Symlinks are resolved when the targets exist.
func CanonicalizePath(absolutePath string, root string) (string, error) {
	resolved, err := filepath.EvalSymlinks(absolutePath)
	if err != nil {
		if !os.IsNotExist(err) {
			return "", err
		}
		resolved = absolutePath
	}

	rootResolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		if !os.IsNotExist(err) {
			return "", err
		}
		rootResolved = root
	}

	rel, err := filepath.Rel(rootResolved, resolved)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// GetStateDir returns <root>/.lgtnav
func GetStateDir(root string) string {
	return filepath.Join(root, StateDirName)
}

// GetLogPath returns <root>/.lgtnav/logs/lgtnav.log
func GetLogPath(root string) string {
	return filepath.Join(root, StateDirName, LogsDirName, LogFileName)
}

// GetCacheDBPath returns <root>/.lgtnav/cache.db
func GetCacheDBPath(root string) string {
	return filepath.Join(root, StateDirName, CacheDBName)
}

// EnsureLogsDir creates <root>/.lgtnav/logs if needed and returns it.
func EnsureLogsDir(root string) (string, error) {
	dir := filepath.Join(root, StateDirName, LogsDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// EnsureStateDir creates <root>/.lgtnav if needed and returns it.
func EnsureStateDir(root string) (string, error) {
	dir := GetStateDir(root)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}
