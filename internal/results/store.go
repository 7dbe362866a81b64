package results

import (
	"encoding/json"
	"fmt"
	"iter"
	"log/slog"

	"lgtnav/internal/errors"
	"lgtnav/internal/record"
	"lgtnav/internal/staleness"
	"lgtnav/internal/storage"
)

type item interface {
	Key() string
	location() (string, int)
}

// Store ingests fresh result artifacts into a ResultCache and renders the
// cached items of one file with staleness-aware titles.
type Store struct {
	cache   *storage.ResultCache
	tracker *staleness.Tracker
	logger  *slog.Logger
}

// NewStore creates a Store.
func NewStore(cache *storage.ResultCache, tracker *staleness.Tracker, logger *slog.Logger) *Store {
	return &Store{cache: cache, tracker: tracker, logger: logger}
}

// IngestTests stores every record of a test-results artifact. Each file named
// in the artifact has its cached items replaced; other files keep theirs.
// It returns the number of files updated.
func (s *Store) IngestTests(root, text string) (int, error) {
	recs := record.Tests(text, s.malformed(staleness.TestResults))
	return ingest(s, root, staleness.TestResults, mapSeq(recs, TestFromRecord))
}

// IngestMetrics stores every record of a metrics artifact.
func (s *Store) IngestMetrics(root, text string) (int, error) {
	recs := record.Metrics(text, s.malformed(staleness.Metrics))
	return ingest(s, root, staleness.Metrics, mapSeq(recs, MetricFromRecord))
}

// Tests renders the cached test items of file. docModified tells whether the
// document shown to the user has unsaved changes.
func (s *Store) Tests(root, file string, docModified bool) ([]TestItem, error) {
	items, err := load[TestItem](s, root, staleness.TestResults, file)
	if err != nil {
		return nil, err
	}
	outdated := s.tracker.Outdated(staleness.TestResults, docModified)
	for i := range items {
		items[i].Title = s.tracker.Annotate(items[i].BaseTitle(), staleness.TestResults, docModified)
		items[i].Outdated = outdated
	}
	return items, nil
}

// Metrics renders the cached metric items of file.
func (s *Store) Metrics(root, file string, docModified bool) ([]MetricItem, error) {
	items, err := load[MetricItem](s, root, staleness.Metrics, file)
	if err != nil {
		return nil, err
	}
	outdated := s.tracker.Outdated(staleness.Metrics, docModified)
	for i := range items {
		items[i].Title = s.tracker.Annotate(items[i].BaseTitle(), staleness.Metrics, docModified)
		items[i].Outdated = outdated
	}
	return items, nil
}

// Clear forgets every cached item of kind under root.
func (s *Store) Clear(root string, kind staleness.Kind) error {
	return s.cache.Clear(root, string(kind))
}

// SaveStaleness records the tracker's current flags for root.
func (s *Store) SaveStaleness(root string) error {
	snapshot := s.tracker.Snapshot()
	flags := make(map[string]bool, len(snapshot))
	for k, v := range snapshot {
		flags[string(k)] = v
	}
	return s.cache.SaveFlags(root, flags)
}

// LoadStaleness marks every kind recorded stale for root as stale in the
// tracker. Flags already set are never cleared.
func (s *Store) LoadStaleness(root string) error {
	flags, err := s.cache.Flags(root)
	if err != nil {
		return err
	}
	for k, stale := range flags {
		if stale {
			s.tracker.MarkStale(staleness.Kind(k))
		}
	}
	return nil
}

func (s *Store) malformed(kind staleness.Kind) record.MalformedFunc {
	return func(n int, line string) {
		s.logger.Debug("Skipping malformed record",
			"kind", string(kind),
			"line", n,
			"code", errors.MalformedRecord,
			"text", line,
		)
	}
}

// fileGroup collects one file's items in first-seen order; a later item
// with the same key replaces the earlier one in place.
type fileGroup[T item] struct {
	file  string
	index map[string]int
	items []T
}

func ingest[T item](s *Store, root string, kind staleness.Kind, items iter.Seq[T]) (int, error) {
	groups := make(map[string]*fileGroup[T])
	var order []string
	for it := range items {
		file, _ := it.location()
		fk := storage.FileKey(file)
		g, ok := groups[fk]
		if !ok {
			g = &fileGroup[T]{file: file, index: make(map[string]int)}
			groups[fk] = g
			order = append(order, fk)
		}
		if i, ok := g.index[it.Key()]; ok {
			g.items[i] = it
			continue
		}
		g.index[it.Key()] = len(g.items)
		g.items = append(g.items, it)
	}

	for _, fk := range order {
		g := groups[fk]
		entries := make([]storage.ResultEntry, 0, len(g.items))
		for _, it := range g.items {
			payload, err := json.Marshal(it)
			if err != nil {
				return 0, fmt.Errorf("encode %s item: %w", kind, err)
			}
			_, line := it.location()
			entries = append(entries, storage.ResultEntry{Key: it.Key(), Line: line, Payload: string(payload)})
		}
		if err := s.cache.ReplaceFile(root, string(kind), g.file, entries); err != nil {
			return 0, err
		}
	}

	s.logger.Debug("Stored results", "kind", string(kind), "files", len(order))
	return len(order), nil
}

func load[T item](s *Store, root string, kind staleness.Kind, file string) ([]T, error) {
	entries, _, err := s.cache.File(root, string(kind), file)
	if err != nil {
		return nil, err
	}
	items := make([]T, 0, len(entries))
	for _, e := range entries {
		var it T
		if err := json.Unmarshal([]byte(e.Payload), &it); err != nil {
			s.logger.Warn("Dropping unreadable cached item",
				"kind", string(kind),
				"key", e.Key,
				"error", err.Error(),
			)
			continue
		}
		items = append(items, it)
	}
	return items, nil
}

func mapSeq[A, B any](seq iter.Seq[A], f func(A) B) iter.Seq[B] {
	return func(yield func(B) bool) {
		for a := range seq {
			if !yield(f(a)) {
				return
			}
		}
	}
}
