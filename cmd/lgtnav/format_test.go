package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lgtnav/internal/hierarchy"
	"lgtnav/internal/locate"
	"lgtnav/internal/record"
	"lgtnav/internal/results"
	"lgtnav/internal/staleness"
	"lgtnav/internal/watcher"
)

func sampleItem() hierarchy.Item {
	line := locate.Range{
		Start: locate.Position{Line: 3, Character: 0},
		End:   locate.Position{Line: 3, Character: 38},
	}
	sel := locate.Range{
		Start: locate.Position{Line: 3, Character: 4},
		End:   locate.Position{Line: 3, Character: 8},
	}
	return hierarchy.Item{Name: "main/0", Kind: hierarchy.KindFunction, File: "/w/src/app.lgt", Range: line, Selection: sel}
}

func TestFormatResponse_JSON(t *testing.T) {
	out, err := FormatResponse([]hierarchy.Item{sampleItem()}, FormatJSON)
	require.NoError(t, err)

	assert.Contains(t, out, `"name": "main/0"`)
	assert.Contains(t, out, `"selectionRange"`)
	assert.NotContains(t, out, `<`)
}

func TestFormatResponse_JSONNoHTMLEscape(t *testing.T) {
	out, err := FormatResponse(map[string]string{"file": "<fixture>/a.lgt"}, FormatJSON)
	require.NoError(t, err)
	assert.Contains(t, out, "<fixture>/a.lgt")
}

func TestFormatResponse_YAML(t *testing.T) {
	out, err := FormatResponse([]results.MetricItem{{File: "/w/a.lgt", Line: 3, Score: "2", Title: "Cyclomatic complexity: 2"}}, FormatYAML)
	require.NoError(t, err)

	assert.Contains(t, out, "file: /w/a.lgt")
	assert.Contains(t, out, "score: \"2\"")
	assert.NotContains(t, out, "outdated")
}

func TestFormatResponse_UnsupportedFormat(t *testing.T) {
	_, err := FormatResponse(map[string]string{"key": "value"}, "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")
}

func TestFormatHuman_Items(t *testing.T) {
	out, err := formatHuman([]hierarchy.Item{sampleItem()})
	require.NoError(t, err)
	assert.Equal(t, "function   main/0  /w/src/app.lgt:4:5", out)

	out, err = formatHuman([]hierarchy.Item{})
	require.NoError(t, err)
	assert.Equal(t, "No results.", out)
}

func TestFormatHuman_Calls(t *testing.T) {
	call := hierarchy.IncomingCall{
		From: sampleItem(),
		FromRanges: []locate.Range{
			{Start: locate.Position{Line: 3, Character: 12}, End: locate.Position{Line: 3, Character: 17}},
			{Start: locate.Position{Line: 3, Character: 26}, End: locate.Position{Line: 3, Character: 31}},
		},
	}
	out, err := formatHuman([]hierarchy.IncomingCall{call})
	require.NoError(t, err)
	assert.Equal(t, "main/0  /w/src/app.lgt:4:5\n    calls at 4:13, 4:27", out)

	out, err = formatHuman([]hierarchy.OutgoingCall{})
	require.NoError(t, err)
	assert.Equal(t, "No callees.", out)
}

func TestFormatHuman_Tests(t *testing.T) {
	items := []results.TestItem{
		{Scope: record.ScopeTest, File: "/w/t.lgt", Line: 9, Object: "tests", Test: "t1", Status: "failed", Title: "failed (bad)"},
		{Scope: record.ScopeFile, File: "/w/t.lgt", Line: 0, Status: "passed", Title: "passed"},
	}
	out, err := formatHuman(items)
	require.NoError(t, err)
	assert.Equal(t, "/w/t.lgt:10  test    t1  failed (bad)\n/w/t.lgt:1  file    (file)  passed", out)
}

func TestFormatHuman_Locations(t *testing.T) {
	out, err := formatHuman([]hierarchy.Location{{File: "/w/a.lgt", Range: locate.Range{Start: locate.Position{Line: 1}}}})
	require.NoError(t, err)
	assert.Equal(t, "/w/a.lgt:2:1", out)
}

func TestFormatHuman_Stringers(t *testing.T) {
	out, err := formatHuman(&CleanupResponseCLI{Root: "/w", Removed: 2})
	require.NoError(t, err)
	assert.Equal(t, "Removed 2 result file(s) under /w", out)

	ev := &WatchEventCLI{
		Root:   "/w",
		Events: []watcher.Event{{Type: watcher.EventModify, Path: "/w/a.lgt"}},
		Stale:  map[staleness.Kind]bool{staleness.TestResults: true, staleness.Metrics: false},
	}
	out, err = formatHuman(ev)
	require.NoError(t, err)
	assert.Equal(t, "modify /w/a.lgt\n  outdated: test_results", out)
}

func TestFormatHuman_UnknownFallsBackToJSON(t *testing.T) {
	out, err := formatHuman(map[string]int{"n": 1})
	require.NoError(t, err)
	assert.Contains(t, out, `"n": 1`)
}
