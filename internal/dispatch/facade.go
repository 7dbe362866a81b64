// Package dispatch is the entry point the editor integration calls. Each
// operation runs the engine, consumes the artifact it leaves behind and
// builds the response. Operational failures never cross this boundary: they
// are logged and answered with an empty result.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"lgtnav/internal/artifact"
	"lgtnav/internal/config"
	"lgtnav/internal/engine"
	"lgtnav/internal/errors"
	"lgtnav/internal/hierarchy"
	"lgtnav/internal/locate"
	"lgtnav/internal/results"
	"lgtnav/internal/staleness"
	"lgtnav/internal/storage"
)

// Request is one user invocation.
type Request struct {
	File string `json:"file"`
	// Position is the 0-based cursor position.
	Position locate.Position `json:"position"`
	Symbol   string          `json:"symbol"`
	// Modified reports unsaved changes in the document being shown.
	Modified bool `json:"modified,omitempty"`
}

// Options configures a Facade. Runner, Tracker and Cache are built from
// Config when nil.
type Options struct {
	Config  *config.Config
	Runner  engine.Runner
	Tracker *staleness.Tracker
	Cache   *storage.ResultCache
	Logger  *slog.Logger
	// CollectPending makes AttachRoot ingest test result and metrics files
	// already present in the root before sweeping leftovers.
	CollectPending bool
}

// Facade serves navigation requests for a set of workspace roots.
type Facade struct {
	logger  *slog.Logger
	builder *hierarchy.Builder
	tracker *staleness.Tracker
	results *results.Store
	collect bool

	mu         sync.RWMutex
	cfg        *config.Config
	runner     engine.Runner
	ownsRunner bool
	artifacts  *artifact.Manager
	roots      []string

	slotsMu sync.Mutex
	slots   map[string]chan struct{}
}

// New creates a Facade with no roots attached.
func New(opts Options) (*Facade, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tracker := opts.Tracker
	if tracker == nil {
		tracker = staleness.New(trackerOptions(cfg))
	}
	cache := opts.Cache
	if cache == nil {
		var err error
		cache, err = storage.NewResultCache(nil, cfg.Cache.MaxEntries, logger)
		if err != nil {
			return nil, err
		}
	}

	f := &Facade{
		logger:  logger,
		builder: hierarchy.NewBuilder(logger),
		tracker: tracker,
		results: results.NewStore(cache, tracker, logger),
		collect: opts.CollectPending,
		cfg:     cfg,
		runner:  opts.Runner,
		slots:   make(map[string]chan struct{}),
	}
	if f.runner == nil {
		f.runner = engine.NewExecRunner(cfg.Engine, logger)
		f.ownsRunner = true
	}
	f.artifacts = newManager(cfg, logger)
	return f, nil
}

func newManager(cfg *config.Config, logger *slog.Logger) *artifact.Manager {
	resolver := artifact.NewResolver(cfg.Artifacts.Prefix, cfg.Artifacts.LegacyDirectoryLookup)
	return artifact.NewManager(resolver, cfg.Artifacts.Sentinel, logger)
}

func trackerOptions(cfg *config.Config) staleness.Options {
	return staleness.Options{
		LanguageIDs: cfg.Staleness.LanguageIDs,
		Extensions:  cfg.Staleness.Extensions,
		ClearOnRun:  cfg.Staleness.ClearOnSuccessfulRun,
	}
}

// Tracker returns the staleness tracker shared by all roots.
func (f *Facade) Tracker() *staleness.Tracker {
	return f.tracker
}

// Config returns the active configuration.
func (f *Facade) Config() *config.Config {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.cfg
}

// DidChangeConfiguration installs cfg and marks every cached result kind
// stale. An invalid cfg is logged and ignored, but still counts as a change.
func (f *Facade) DidChangeConfiguration(cfg *config.Config) {
	f.tracker.ConfigChanged()
	f.saveStaleness()
	if cfg == nil {
		return
	}
	if err := cfg.Validate(); err != nil {
		f.logger.Warn("Ignoring invalid configuration", "error", err.Error())
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.cfg = cfg
	f.artifacts = newManager(cfg, f.logger)
	if f.ownsRunner {
		f.runner = engine.NewExecRunner(cfg.Engine, f.logger)
	}
	f.logger.Info("Configuration changed", "fingerprint", cfg.Fingerprint())
}

// DidChangeDocument feeds a save or edit event to the staleness tracker.
func (f *Facade) DidChangeDocument(doc staleness.Document) {
	if f.tracker.DocumentChanged(doc) {
		f.logger.Debug("Cached results marked stale", "path", doc.Path)
		f.saveStaleness()
	}
}

// saveStaleness records the current flags for every attached root so a later
// session labels the cached results the same way.
func (f *Facade) saveStaleness() {
	for _, root := range f.Roots() {
		if err := f.results.SaveStaleness(root); err != nil {
			f.logger.Warn("Failed to save staleness flags", "root", root, "error", err.Error())
		}
	}
}

// Cleanup removes leftover artifacts from every attached root.
func (f *Facade) Cleanup() int {
	f.mu.RLock()
	artifacts := f.artifacts
	f.mu.RUnlock()

	total := 0
	for _, root := range f.Roots() {
		total += artifacts.CleanupRoot(root)
	}
	return total
}

// analysis is a consumed artifact ready to be decoded.
type analysis struct {
	text   string
	root   string
	logger *slog.Logger
}

// analyze runs the engine for kind and consumes the resulting artifact. It
// reports false, after logging why, whenever there is nothing to decode.
func (f *Facade) analyze(ctx context.Context, kind artifact.Kind, req Request) (analysis, bool) {
	logger := f.logger.With("requestId", uuid.NewString(), "kind", string(kind))

	if err := ctx.Err(); err != nil {
		logger.Debug("Request cancelled before dispatch", "code", errors.Cancelled)
		return analysis{}, false
	}

	root, err := f.RootFor(req.File)
	if err != nil {
		logger.Error("Cannot serve request", "code", errors.CodeOf(err), "error", err.Error())
		return analysis{}, false
	}

	slot := f.slot(root, string(kind))
	select {
	case slot <- struct{}{}:
	default:
		logger.Debug("Waiting for in-flight request", "root", root, "code", errors.RequestBusy)
		select {
		case slot <- struct{}{}:
		case <-ctx.Done():
			logger.Debug("Request cancelled while queued", "code", errors.Cancelled)
			return analysis{}, false
		}
	}
	defer func() { <-slot }()

	if err := ctx.Err(); err != nil {
		logger.Debug("Request cancelled before dispatch", "code", errors.Cancelled)
		return analysis{}, false
	}

	f.mu.RLock()
	runner, artifacts := f.runner, f.artifacts
	f.mu.RUnlock()

	dir := filepath.Dir(req.File)
	if req.File == "" {
		dir = root
	}

	// anything already under the reserved name predates this run
	resolver := artifacts.Resolver()
	names := []string{resolver.Name(kind), resolver.SentinelName(kind)}
	if candidates, err := resolver.Candidates(root, dir, kind); err == nil {
		for _, c := range candidates {
			artifacts.CleanupAll(filepath.Dir(c), names)
		}
	}

	line := 0
	if req.File != "" {
		line = req.Position.Line + 1
	}
	ereq := engine.Request{Kind: kind, Root: root, Dir: dir, File: req.File, Line: line, Symbol: req.Symbol}
	if err := runner.Run(ctx, ereq); err != nil {
		logger.Error("Engine invocation failed", "code", errors.CodeOf(err), "error", err.Error())
		return analysis{}, false
	}

	data, path, err := artifacts.Consume(root, dir, kind)
	if err != nil {
		if errors.HasCode(err, errors.ArtifactMissing) {
			logger.Info("No results produced", "root", root, "code", errors.ArtifactMissing)
		} else {
			logger.Error("Failed to read results", "path", path, "error", err.Error())
		}
		return analysis{}, false
	}

	if err := ctx.Err(); err != nil {
		logger.Debug("Request cancelled after engine returned", "code", errors.Cancelled)
		return analysis{}, false
	}
	return analysis{text: string(data), root: root, logger: logger}, true
}

// consumeCached takes a result artifact the engine left outside of a request,
// without running the engine.
func (f *Facade) consumeCached(kind artifact.Kind, req Request) (analysis, bool) {
	logger := f.logger.With("requestId", uuid.NewString(), "kind", string(kind))
	root, err := f.RootFor(req.File)
	if err != nil {
		logger.Error("Cannot serve request", "code", errors.CodeOf(err), "error", err.Error())
		return analysis{}, false
	}

	// an in-flight run of the same kind owns the artifact
	slot := f.slot(root, string(kind))
	select {
	case slot <- struct{}{}:
		defer func() { <-slot }()
	default:
		return analysis{root: root, logger: logger}, false
	}

	f.mu.RLock()
	artifacts := f.artifacts
	f.mu.RUnlock()

	dir := root
	if req.File != "" {
		dir = filepath.Dir(req.File)
	}
	data, _, err := artifacts.Consume(root, dir, kind)
	if err != nil {
		return analysis{root: root, logger: logger}, false
	}
	return analysis{text: string(data), root: root, logger: logger}, true
}

func invalidOperation(op Operation) error {
	return errors.New(errors.InvalidRequest, fmt.Sprintf("unknown operation %q", op), nil)
}
