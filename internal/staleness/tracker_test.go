package staleness

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTracker() *Tracker {
	return New(Options{
		LanguageIDs: []string{"logtalk"},
		Extensions:  []string{".lgt", ".logtalk"},
		ClearOnRun:  true,
	})
}

func TestTracker_InitiallyFresh(t *testing.T) {
	tr := newTracker()
	assert.False(t, tr.IsStale(TestResults))
	assert.False(t, tr.IsStale(Metrics))
	assert.Equal(t, "3 passed", tr.Annotate("3 passed", TestResults, false))
}

func TestTracker_ConfigChangeMarksAll(t *testing.T) {
	tr := newTracker()
	tr.ConfigChanged()
	assert.Equal(t, map[Kind]bool{TestResults: true, Metrics: true}, tr.Snapshot())
	assert.Equal(t, "passed (may be outdated)", tr.Annotate("passed", TestResults, false))
}

func TestTracker_MarkStale(t *testing.T) {
	tr := New(Options{}, Metrics)
	tr.MarkStale(Metrics, TestResults)
	assert.Equal(t, map[Kind]bool{Metrics: true}, tr.Snapshot())
}

func TestTracker_DocumentChanged(t *testing.T) {
	tests := []struct {
		name string
		doc  Document
		want bool
	}{
		{"modified logtalk", Document{LanguageID: "logtalk", Path: "/a.lgt", Modified: true}, true},
		{"saved logtalk", Document{LanguageID: "logtalk", Path: "/a.lgt"}, false},
		{"other language", Document{LanguageID: "prolog", Path: "/a.pl", Modified: true}, false},
		{"language id case", Document{LanguageID: "Logtalk", Modified: true}, true},
		{"extension only", Document{Path: "/src/b.LGT", Modified: true}, true},
		{"unknown extension", Document{Path: "/src/readme.md", Modified: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTracker()
			assert.Equal(t, tt.want, tr.DocumentChanged(tt.doc))
			assert.Equal(t, tt.want, tr.IsStale(Metrics))
		})
	}
}

func TestTracker_ModifiedDocumentAnnotatesWithoutFlag(t *testing.T) {
	tr := newTracker()
	assert.Equal(t, "Cyclomatic complexity: 3 (may be outdated)", tr.Annotate("Cyclomatic complexity: 3", Metrics, true))
}

func TestTracker_RunSucceededClearsOnlyThatKind(t *testing.T) {
	tr := newTracker()
	tr.ConfigChanged()
	tr.RunSucceeded(TestResults)

	assert.False(t, tr.IsStale(TestResults))
	assert.True(t, tr.IsStale(Metrics))
	assert.Equal(t, "ok", tr.Annotate("ok", TestResults, false))
}

func TestTracker_MonotonicWithoutClearOnRun(t *testing.T) {
	tr := New(Options{LanguageIDs: []string{"logtalk"}}, Metrics)
	tr.ConfigChanged()
	tr.RunSucceeded(Metrics)
	assert.True(t, tr.IsStale(Metrics))

	tr.Reset()
	assert.False(t, tr.IsStale(Metrics))
}

func TestTracker_AnnotateIsIdempotent(t *testing.T) {
	tr := newTracker()
	tr.ConfigChanged()
	once := tr.Annotate("x", Metrics, false)
	assert.Equal(t, once, tr.Annotate(once, Metrics, false))
}

func TestTracker_IndependentInstances(t *testing.T) {
	a, b := newTracker(), newTracker()
	a.ConfigChanged()
	assert.False(t, b.IsStale(TestResults))
}
