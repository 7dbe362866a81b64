package artifact

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"

	"lgtnav/internal/errors"
)

// ErrNotFound is returned when an artifact is absent or already consumed.
var ErrNotFound = stderrors.New("artifact not found")

var claimSeq atomic.Uint64

// Manager owns artifact housekeeping and at-most-once consumption.
type Manager struct {
	resolver *Resolver
	sentinel bool
	logger   *slog.Logger
}

// NewManager creates a lifecycle manager. When sentinel is set, an artifact
// only counts as present once its "_done" marker exists too.
func NewManager(resolver *Resolver, sentinel bool, logger *slog.Logger) *Manager {
	return &Manager{resolver: resolver, sentinel: sentinel, logger: logger}
}

// Resolver returns the manager's resolver.
func (m *Manager) Resolver() *Resolver {
	return m.resolver
}

// CleanupAll deletes each named file under root. Failures are logged and
// otherwise ignored. It returns the number of files removed.
func (m *Manager) CleanupAll(root string, names []string) int {
	removed := 0
	for _, name := range names {
		path := filepath.Join(root, name)
		err := os.Remove(path)
		switch {
		case err == nil:
			removed++
		case stderrors.Is(err, fs.ErrNotExist):
		default:
			m.logger.Warn("Failed to remove stale artifact",
				"path", path,
				"code", errors.CleanupFailed,
				"error", err.Error(),
			)
		}
	}

	// claims left behind by a consumer that died between rename and remove
	if leftovers, err := filepath.Glob(filepath.Join(root, "*"+claimSuffix+"*")); err == nil {
		for _, path := range leftovers {
			if !m.resolver.IsReserved(trimClaim(filepath.Base(path))) {
				continue
			}
			if err := os.Remove(path); err == nil {
				removed++
			}
		}
	}

	if removed > 0 {
		m.logger.Info("Removed stale artifacts", "root", root, "count", removed)
	}
	return removed
}

// CleanupRoot removes every reserved artifact and sentinel under root.
func (m *Manager) CleanupRoot(root string) int {
	return m.CleanupAll(root, m.resolver.AllNames())
}

// ConsumeOnce reads the whole file at path and deletes it. The file is first
// renamed to a private claim name, so of any number of concurrent callers
// exactly one sees the content and the rest get ErrNotFound.
func (m *Manager) ConsumeOnce(path string) ([]byte, error) {
	claim := path + claimSuffix + strconv.FormatUint(claimSeq.Add(1), 10)
	if err := os.Rename(path, claim); err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("claim artifact %s: %w", path, err)
	}

	data, readErr := os.ReadFile(claim)
	if err := os.Remove(claim); err != nil {
		m.logger.Warn("Failed to remove consumed artifact",
			"path", claim,
			"code", errors.CleanupFailed,
			"error", err.Error(),
		)
	}
	if readErr != nil {
		return nil, fmt.Errorf("read artifact %s: %w", path, readErr)
	}
	return data, nil
}

// Consume reads the artifact for kind, trying the workspace root before the
// legacy source directory. The result is an ArtifactMissing error wrapping
// ErrNotFound when no candidate is present.
func (m *Manager) Consume(root, sourceDir string, kind Kind) ([]byte, string, error) {
	candidates, err := m.resolver.Candidates(root, sourceDir, kind)
	if err != nil {
		return nil, "", err
	}

	for _, path := range candidates {
		if m.sentinel && !exists(path+sentinelSuffix) {
			continue
		}
		data, err := m.ConsumeOnce(path)
		if stderrors.Is(err, ErrNotFound) {
			continue
		}
		if m.sentinel {
			m.removeSentinel(path + sentinelSuffix)
		}
		if err != nil {
			return nil, path, err
		}
		m.logger.Debug("Artifact consumed", "kind", string(kind), "path", path, "bytes", len(data))
		return data, path, nil
	}

	return nil, "", errors.New(errors.ArtifactMissing,
		fmt.Sprintf("no %s artifact found", kind), ErrNotFound)
}

func (m *Manager) removeSentinel(path string) {
	if err := os.Remove(path); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		m.logger.Warn("Failed to remove sentinel",
			"path", path,
			"code", errors.CleanupFailed,
			"error", err.Error(),
		)
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// trimClaim strips a ".consumingN" suffix from a file name.
func trimClaim(name string) string {
	if i := strings.LastIndex(name, claimSuffix); i >= 0 {
		return name[:i]
	}
	return name
}
