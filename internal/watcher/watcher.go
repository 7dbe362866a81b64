// Package watcher turns file system activity under workspace roots into
// batched document-change events.
package watcher

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	ignore "github.com/sabhiram/go-gitignore"

	"lgtnav/internal/config"
	"lgtnav/internal/paths"
	"lgtnav/internal/staleness"
)

// EventType is the kind of file system change.
type EventType string

const (
	EventCreate EventType = "create"
	EventModify EventType = "modify"
	EventDelete EventType = "delete"
	EventRename EventType = "rename"
)

// Event is one change below a watched root.
type Event struct {
	Type      EventType `json:"type" yaml:"type"`
	Path      string    `json:"path" yaml:"path"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// ChangeHandler receives debounced events for a root.
type ChangeHandler func(root string, events []Event)

// ConfigHandler is called after a root's config file settles.
type ConfigHandler func(root string)

// ErrStopped is returned when a root is added after Stop.
var ErrStopped = errors.New("watcher stopped")

type rootWatch struct {
	root    string
	matcher *ignore.GitIgnore
	batch   *BatchDebouncer
	config  *Debouncer
	dirs    map[string]struct{}
}

// Watcher watches source trees with fsnotify.
type Watcher struct {
	cfg      config.WatcherConfig
	logger   *slog.Logger
	handler  ChangeHandler
	onConfig ConfigHandler

	fsw   *fsnotify.Watcher
	mu    sync.Mutex
	roots map[string]*rootWatch
	done  chan struct{}
	wg    sync.WaitGroup

	stopped bool
	events  int64
}

// New creates a watcher. Call Start to begin delivering events.
func New(cfg config.WatcherConfig, logger *slog.Logger, handler ChangeHandler) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		cfg:     cfg,
		logger:  logger,
		handler: handler,
		fsw:     fsw,
		roots:   make(map[string]*rootWatch),
		done:    make(chan struct{}),
	}, nil
}

// OnConfigChange registers a callback for <root>/.lgtnav/config.json writes.
func (w *Watcher) OnConfigChange(fn ConfigHandler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onConfig = fn
}

// Start runs the event loop until Stop.
func (w *Watcher) Start() {
	w.wg.Add(1)
	go w.loop()
	w.logger.Info("Watcher started", "debounceMs", w.cfg.DebounceMs)
}

// Stop closes the underlying watcher and cancels pending batches.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	for _, rw := range w.roots {
		rw.batch.Cancel()
		rw.config.Cancel()
	}
	w.mu.Unlock()

	close(w.done)
	err := w.fsw.Close()
	w.wg.Wait()
	w.logger.Info("Watcher stopped")
	return err
}

func (w *Watcher) debounce() time.Duration {
	if w.cfg.DebounceMs <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(w.cfg.DebounceMs) * time.Millisecond
}

// compileIgnore combines configured patterns with the root .gitignore.
func compileIgnore(root string, patterns []string) *ignore.GitIgnore {
	lines := append([]string{}, patterns...)
	if data, err := os.ReadFile(filepath.Join(root, ".gitignore")); err == nil {
		for line := range strings.Lines(string(data)) {
			lines = append(lines, strings.TrimRight(line, "\r\n"))
		}
	}
	return ignore.CompileIgnoreLines(lines...)
}

// WatchRoot adds recursive watches for every non-ignored directory below root.
func (w *Watcher) WatchRoot(root string) error {
	root = paths.NormalizePath(root)

	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return ErrStopped
	}
	if _, ok := w.roots[root]; ok {
		w.mu.Unlock()
		return nil
	}
	rw := &rootWatch{
		root:    root,
		matcher: compileIgnore(root, w.cfg.IgnorePatterns),
		config:  NewDebouncer(w.debounce()),
		dirs:    make(map[string]struct{}),
	}
	rw.batch = NewBatchDebouncer(w.debounce(), func(events []Event) {
		if w.handler != nil {
			w.handler(root, events)
		}
	})
	w.roots[root] = rw
	w.mu.Unlock()

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.ignored(rw, path, true) {
			return filepath.SkipDir
		}
		return w.addDir(rw, path)
	})
	if err != nil {
		return err
	}

	// The state dir is ignored for sources but carries the config file.
	if state := paths.GetStateDir(root); isDir(state) {
		if err := w.addDir(rw, state); err != nil {
			return err
		}
	}

	w.logger.Info("Watching root", "root", root, "dirs", len(rw.dirs))
	return nil
}

func (w *Watcher) addDir(rw *rootWatch, dir string) error {
	if err := w.fsw.Add(dir); err != nil {
		return err
	}
	w.mu.Lock()
	rw.dirs[filepath.Clean(dir)] = struct{}{}
	w.mu.Unlock()
	return nil
}

// UnwatchRoot removes every watch belonging to root.
func (w *Watcher) UnwatchRoot(root string) {
	root = paths.NormalizePath(root)

	w.mu.Lock()
	rw, ok := w.roots[root]
	if ok {
		delete(w.roots, root)
	}
	w.mu.Unlock()
	if !ok {
		return
	}

	rw.batch.Cancel()
	rw.config.Cancel()
	for dir := range rw.dirs {
		_ = w.fsw.Remove(dir)
	}
	w.logger.Info("Stopped watching root", "root", root)
}

// WatchedRoots returns the watched roots sorted.
func (w *Watcher) WatchedRoots() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	roots := make([]string, 0, len(w.roots))
	for root := range w.roots {
		roots = append(roots, root)
	}
	sort.Strings(roots)
	return roots
}

// IsIgnored reports whether path under root is excluded from events.
func (w *Watcher) IsIgnored(root, path string) bool {
	root = paths.NormalizePath(root)
	w.mu.Lock()
	rw, ok := w.roots[root]
	w.mu.Unlock()
	if !ok {
		rw = &rootWatch{root: root, matcher: compileIgnore(root, w.cfg.IgnorePatterns)}
	}
	return w.ignored(rw, path, isDir(path))
}

func (w *Watcher) ignored(rw *rootWatch, path string, dir bool) bool {
	rel, err := filepath.Rel(rw.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return true
	}
	rel = filepath.ToSlash(rel)
	if dir {
		rel += "/"
	}
	return rw.matcher.MatchesPath(rel)
}

// Stats returns counters for diagnostics.
func (w *Watcher) Stats() map[string]any {
	w.mu.Lock()
	defer w.mu.Unlock()

	dirs := 0
	pending := 0
	for _, rw := range w.roots {
		dirs += len(rw.dirs)
		pending += rw.batch.EventCount()
	}
	return map[string]any{
		"roots":   len(w.roots),
		"dirs":    dirs,
		"pending": pending,
		"events":  w.events,
	}
}

// rootFor returns the deepest watched root containing path.
func (w *Watcher) rootFor(path string) *rootWatch {
	w.mu.Lock()
	defer w.mu.Unlock()

	var best *rootWatch
	for root, rw := range w.roots {
		if paths.IsWithin(path, root) && (best == nil || len(root) > len(best.root)) {
			best = rw
		}
	}
	return best
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Watcher error", "error", err.Error())
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	path := paths.NormalizePath(ev.Name)
	rw := w.rootFor(path)
	if rw == nil {
		return
	}

	if paths.SamePath(path, config.ConfigPath(rw.root)) {
		if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
			w.mu.Lock()
			fn := w.onConfig
			w.mu.Unlock()
			if fn != nil {
				rw.config.Trigger(func() { fn(rw.root) })
			}
		}
		return
	}

	var typ EventType
	switch {
	case ev.Has(fsnotify.Create):
		typ = EventCreate
	case ev.Has(fsnotify.Write):
		typ = EventModify
	case ev.Has(fsnotify.Remove):
		typ = EventDelete
	case ev.Has(fsnotify.Rename):
		typ = EventRename
	default:
		return
	}

	dir := typ == EventCreate && isDir(path)
	if w.ignored(rw, path, dir) {
		return
	}
	if dir {
		if err := w.addDir(rw, path); err != nil {
			w.logger.Warn("Failed to watch new directory", "path", path, "error", err.Error())
		}
		return
	}

	w.mu.Lock()
	w.events++
	w.mu.Unlock()

	w.logger.Debug("Source changed", "path", path, "type", string(typ))
	rw.batch.Add(Event{Type: typ, Path: path, Timestamp: time.Now()})
}

// Documents converts events into modified documents for the staleness tracker.
func Documents(events []Event) []staleness.Document {
	docs := make([]staleness.Document, 0, len(events))
	for _, e := range events {
		docs = append(docs, staleness.Document{Path: e.Path, Modified: true})
	}
	return docs
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
