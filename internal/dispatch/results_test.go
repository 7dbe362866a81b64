package dispatch

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lgtnav/internal/artifact"
	"lgtnav/internal/config"
	"lgtnav/internal/slogutil"
	"lgtnav/internal/staleness"
	"lgtnav/internal/storage"
	"lgtnav/internal/testutil"
)

func TestRunMetrics_WorkspaceLargerThanCacheSize(t *testing.T) {
	ws := testutil.NewWorkspace(t)
	first := ws.WriteSource("src/f000.lgt", ":- object(f000).\n:- end_object.\n")
	last := ws.WriteSource("src/f299.lgt", ":- object(f299).\n:- end_object.\n")
	var b strings.Builder
	for i := range 300 {
		fmt.Fprintf(&b, "File:${ROOT}/src/f%03d.lgt;Line:1;Score:%d\n", i, i%7+1)
	}
	runner := testutil.NewFakeRunner(".vscode_")
	runner.SetOutput(artifact.KindMetrics, b.String())

	f := newFacade(t, runner, nil)
	require.Less(t, f.Config().Cache.MaxEntries, 300)
	f.AttachRoot(ws.Root)

	items := f.RunMetrics(context.Background(), Request{File: last})
	require.Len(t, items, 1)
	assert.Equal(t, "Cyclomatic complexity: 6", items[0].Title)

	items = f.Metrics(context.Background(), Request{File: first})
	require.Len(t, items, 1)
	assert.Equal(t, "Cyclomatic complexity: 1", items[0].Title)
}

// persistentFacade opens the workspace result cache the way the CLI does.
func persistentFacade(t *testing.T, ws *testutil.Workspace, runner *testutil.FakeRunner) (*Facade, *storage.DB) {
	t.Helper()
	logger := slogutil.NewDiscardLogger()
	cfg := config.DefaultConfig()
	db, err := storage.Open(ws.Root, logger)
	require.NoError(t, err)
	cache, err := storage.NewResultCache(db, cfg.Cache.MaxEntries, logger)
	require.NoError(t, err)
	f, err := New(Options{Config: cfg, Runner: runner, Cache: cache, Logger: logger})
	require.NoError(t, err)
	f.AttachRoot(ws.Root)
	return f, db
}

func TestMetrics_StalenessSurvivesSessions(t *testing.T) {
	ws := testutil.NewWorkspace(t)
	file := ws.WriteSource("a.lgt", ":- object(a).\n:- end_object.\n")
	runner := testutil.NewFakeRunner(".vscode_")
	runner.SetOutput(artifact.KindMetrics, "File:${ROOT}/a.lgt;Line:1;Score:3\n")
	req := Request{File: file}

	first, db := persistentFacade(t, ws, runner)
	require.Len(t, first.RunMetrics(context.Background(), req), 1)
	first.DidChangeDocument(staleness.Document{LanguageID: "logtalk", Path: file, Modified: true})
	items := first.Metrics(context.Background(), req)
	require.Len(t, items, 1)
	assert.Equal(t, "Cyclomatic complexity: 3 (may be outdated)", items[0].Title)
	require.NoError(t, db.Close())

	second, db := persistentFacade(t, ws, runner)
	items = second.Metrics(context.Background(), req)
	require.Len(t, items, 1)
	assert.Equal(t, "Cyclomatic complexity: 3 (may be outdated)", items[0].Title)

	// a fresh run clears the flag for later sessions too
	require.Len(t, second.RunMetrics(context.Background(), req), 1)
	require.NoError(t, db.Close())

	third, db := persistentFacade(t, ws, runner)
	defer db.Close()
	items = third.Metrics(context.Background(), req)
	require.Len(t, items, 1)
	assert.Equal(t, "Cyclomatic complexity: 3", items[0].Title)
}

func TestAttachRoot_CollectPendingResults(t *testing.T) {
	const results = "File:${ROOT}/tests.lgt;Line:2;Object:tests;Test:t1;Status:passed\n"

	t.Run("collected before the sweep", func(t *testing.T) {
		ws := testutil.NewWorkspace(t)
		file := ws.WriteSource("tests.lgt", ":- object(tests).\n:- end_object.\n")
		ws.WriteArtifact(".vscode_test_results", results)
		ws.WriteArtifact(".vscode_callers", "Name:x/0;File:/a.lgt;Line:1\n")
		runner := testutil.NewFakeRunner(".vscode_")

		f, err := New(Options{Config: config.DefaultConfig(), Runner: runner, Logger: slogutil.NewDiscardLogger(), CollectPending: true})
		require.NoError(t, err)
		f.AttachRoot(ws.Root)

		assert.False(t, ws.Exists(".vscode_test_results"))
		assert.False(t, ws.Exists(".vscode_callers"))
		items := f.TestResults(context.Background(), Request{File: file})
		require.Len(t, items, 1)
		assert.Equal(t, "passed", items[0].Title)
		assert.Empty(t, runner.Calls())
	})

	t.Run("swept by default", func(t *testing.T) {
		ws := testutil.NewWorkspace(t)
		file := ws.WriteSource("tests.lgt", ":- object(tests).\n:- end_object.\n")
		ws.WriteArtifact(".vscode_test_results", results)

		f := newFacade(t, testutil.NewFakeRunner(".vscode_"), nil)
		f.AttachRoot(ws.Root)

		assert.False(t, ws.Exists(".vscode_test_results"))
		assert.Empty(t, f.TestResults(context.Background(), Request{File: file}))
	})
}
