// Package staleness records whether cached results may no longer match the
// source they were computed from.
package staleness

import (
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

// Kind names a cached result family.
type Kind string

const (
	TestResults Kind = "test_results"
	Metrics     Kind = "metrics"
)

// Suffix is appended to titles of results that may be outdated.
const Suffix = " (may be outdated)"

// Document describes a save or edit event.
type Document struct {
	LanguageID string
	Path       string
	// Modified reports unsaved changes.
	Modified bool
}

// Options configures which documents count as source.
type Options struct {
	LanguageIDs []string
	Extensions  []string
	// ClearOnRun makes RunSucceeded reset a kind's flag.
	ClearOnRun bool
}

// Tracker holds one flag per kind. The zero value is not usable; use New.
// A Tracker is safe for concurrent use.
type Tracker struct {
	mu    sync.RWMutex
	opts  Options
	kinds []Kind
	flags map[Kind]bool
}

// New creates a tracker for kinds, all initially fresh.
func New(opts Options, kinds ...Kind) *Tracker {
	if len(kinds) == 0 {
		kinds = []Kind{TestResults, Metrics}
	}
	t := &Tracker{opts: opts, kinds: kinds, flags: make(map[Kind]bool, len(kinds))}
	for _, k := range kinds {
		t.flags[k] = false
	}
	return t
}

// ConfigChanged marks every kind stale.
func (t *Tracker) ConfigChanged() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, k := range t.kinds {
		t.flags[k] = true
	}
}

// MarkStale sets the flag of each given kind. Untracked kinds are ignored.
func (t *Tracker) MarkStale(kinds ...Kind) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, k := range kinds {
		if _, ok := t.flags[k]; ok {
			t.flags[k] = true
		}
	}
}

// DocumentChanged marks every kind stale when doc is a modified source
// document. It reports whether the flags were set.
func (t *Tracker) DocumentChanged(doc Document) bool {
	if !doc.Modified || !t.IsSource(doc) {
		return false
	}
	t.ConfigChanged()
	return true
}

// IsSource reports whether doc is written in a tracked language. A document
// matches by language ID, or by extension when it has no language ID.
func (t *Tracker) IsSource(doc Document) bool {
	if doc.LanguageID != "" {
		return slices.ContainsFunc(t.opts.LanguageIDs, func(id string) bool {
			return strings.EqualFold(id, doc.LanguageID)
		})
	}
	ext := filepath.Ext(doc.Path)
	return ext != "" && slices.ContainsFunc(t.opts.Extensions, func(e string) bool {
		return strings.EqualFold(e, ext)
	})
}

// RunSucceeded records a fresh analysis of kind.
func (t *Tracker) RunSucceeded(kind Kind) {
	if !t.opts.ClearOnRun {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.flags[kind]; ok {
		t.flags[kind] = false
	}
}

// Reset clears every flag.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for k := range t.flags {
		t.flags[k] = false
	}
}

// IsStale reports the flag for kind. Untracked kinds are never stale.
func (t *Tracker) IsStale(kind Kind) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.flags[kind]
}

// Outdated reports whether a cached result of kind shown for a document
// should be labelled: the flag is set or the document has unsaved changes.
func (t *Tracker) Outdated(kind Kind, docModified bool) bool {
	return docModified || t.IsStale(kind)
}

// Annotate returns title with Suffix appended when Outdated holds.
func (t *Tracker) Annotate(title string, kind Kind, docModified bool) string {
	if !t.Outdated(kind, docModified) || strings.HasSuffix(title, Suffix) {
		return title
	}
	return title + Suffix
}

// Snapshot returns a copy of all flags.
func (t *Tracker) Snapshot() map[Kind]bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[Kind]bool, len(t.flags))
	for k, v := range t.flags {
		out[k] = v
	}
	return out
}
