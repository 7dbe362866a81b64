package dispatch

import (
	"slices"
	"strings"

	"github.com/google/uuid"

	"lgtnav/internal/artifact"
	"lgtnav/internal/errors"
	"lgtnav/internal/paths"
	"lgtnav/internal/staleness"
)

// Activate attaches every root, cleaning leftover artifacts from a previous
// session in each.
func (f *Facade) Activate(roots ...string) {
	for _, r := range roots {
		f.AttachRoot(r)
	}
	f.logger.Info("Session activated", "roots", len(f.Roots()))
}

// AttachRoot adds a workspace root and removes leftover artifacts under it.
// It returns the number of files removed.
func (f *Facade) AttachRoot(root string) int {
	root = paths.NormalizePath(root)
	if root == "" {
		return 0
	}

	f.mu.Lock()
	if !slices.ContainsFunc(f.roots, func(r string) bool { return paths.SamePath(r, root) }) {
		f.roots = append(f.roots, root)
	}
	artifacts := f.artifacts
	f.mu.Unlock()

	if err := f.results.LoadStaleness(root); err != nil {
		f.logger.Warn("Failed to load staleness flags", "root", root, "error", err.Error())
	}
	if f.collect {
		f.collectPending(root, artifacts)
	}
	removed := artifacts.CleanupRoot(root)
	f.logger.Debug("Workspace root attached", "root", root, "removed", removed)
	return removed
}

// collectPending ingests test result and metrics files the engine left in
// root outside of a request.
func (f *Facade) collectPending(root string, artifacts *artifact.Manager) {
	pending := []struct {
		kind  artifact.Kind
		stale staleness.Kind
		store func(root, text string) (int, error)
	}{
		{artifact.KindTestResults, staleness.TestResults, f.results.IngestTests},
		{artifact.KindMetrics, staleness.Metrics, f.results.IngestMetrics},
	}
	for _, p := range pending {
		data, path, err := artifacts.Consume(root, root, p.kind)
		if err != nil {
			continue
		}
		logger := f.logger.With("requestId", uuid.NewString(), "kind", string(p.kind))
		logger.Info("Collecting pending results", "path", path)
		f.ingest(analysis{text: string(data), root: root, logger: logger}, p.stale, p.store)
	}
}

// DetachRoot forgets a workspace root.
func (f *Facade) DetachRoot(root string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roots = slices.DeleteFunc(f.roots, func(r string) bool { return paths.SamePath(r, root) })
}

// Roots returns the attached roots in attach order.
func (f *Facade) Roots() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return slices.Clone(f.roots)
}

// RootFor picks the root serving file: the longest attached root containing
// it, else the first attached root. It fails with NoWorkspace when no root
// is attached.
func (f *Facade) RootFor(file string) (string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if len(f.roots) == 0 {
		return "", errors.New(errors.NoWorkspace, "no workspace root is open", nil)
	}
	best := ""
	for _, r := range f.roots {
		if file != "" && paths.IsWithin(file, r) && len(r) > len(best) {
			best = r
		}
	}
	if best == "" {
		best = f.roots[0]
	}
	return best, nil
}

// slot returns the queue slot serializing kind on root.
func (f *Facade) slot(root, kind string) chan struct{} {
	key := strings.ToLower(root) + "\x00" + kind
	f.slotsMu.Lock()
	defer f.slotsMu.Unlock()
	s, ok := f.slots[key]
	if !ok {
		s = make(chan struct{}, 1)
		f.slots[key] = s
	}
	return s
}
