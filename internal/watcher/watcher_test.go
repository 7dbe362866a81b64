package watcher

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lgtnav/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() config.WatcherConfig {
	return config.WatcherConfig{
		Enabled:        true,
		DebounceMs:     20,
		IgnorePatterns: []string{".git/", ".lgtnav/", "*.tmp"},
	}
}

func TestDebouncer_RunsLatestOnce(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)

	var calls atomic.Int32
	var last atomic.Int32
	for i := range 5 {
		d.Trigger(func() {
			calls.Add(1)
			last.Store(int32(i))
		})
	}
	assert.True(t, d.Pending())

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(4), last.Load())
	assert.False(t, d.Pending())
}

func TestDebouncer_CancelAndFlush(t *testing.T) {
	d := NewDebouncer(time.Hour)

	ran := false
	d.Trigger(func() { ran = true })
	d.Cancel()
	d.Flush()
	assert.False(t, ran)

	d.Trigger(func() { ran = true })
	d.Flush()
	assert.True(t, ran)
}

func TestBatchDebouncer_CollapsesByPath(t *testing.T) {
	var got []Event
	b := NewBatchDebouncer(time.Hour, func(events []Event) { got = events })

	b.Add(Event{Type: EventCreate, Path: "/w/b.lgt"})
	b.Add(Event{Type: EventModify, Path: "/w/a.lgt"})
	b.Add(Event{Type: EventModify, Path: "/w/b.lgt"})
	assert.Equal(t, 2, b.EventCount())

	b.Flush()
	require.Len(t, got, 2)
	assert.Equal(t, "/w/a.lgt", got[0].Path)
	assert.Equal(t, "/w/b.lgt", got[1].Path)
	assert.Equal(t, EventModify, got[1].Type)
	assert.Equal(t, 0, b.EventCount())
}

func TestBatchDebouncer_CancelDropsEvents(t *testing.T) {
	called := false
	b := NewBatchDebouncer(time.Hour, func([]Event) { called = true })

	b.Add(Event{Type: EventModify, Path: "/w/a.lgt"})
	b.Cancel()
	b.Flush()
	assert.False(t, called)
}

func TestWatcher_IsIgnored(t *testing.T) {
	root := filepath.ToSlash(t.TempDir())
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("build/\r\n*.bak\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "build"), 0o755))

	w, err := New(testConfig(), testLogger(), nil)
	require.NoError(t, err)
	defer w.Stop()

	assert.True(t, w.IsIgnored(root, root+"/build"))
	assert.True(t, w.IsIgnored(root, root+"/src/old.bak"))
	assert.True(t, w.IsIgnored(root, root+"/scratch.tmp"))
	assert.True(t, w.IsIgnored(root, root+"/.lgtnav/cache.db"))
	assert.True(t, w.IsIgnored(root, "/elsewhere/a.lgt"))
	assert.False(t, w.IsIgnored(root, root+"/src/app.lgt"))
}

func TestWatcher_DeliversBatchedEvents(t *testing.T) {
	root := filepath.ToSlash(t.TempDir())
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o755))

	var mu sync.Mutex
	var batches [][]Event
	w, err := New(testConfig(), testLogger(), func(r string, events []Event) {
		assert.Equal(t, root, r)
		mu.Lock()
		batches = append(batches, events)
		mu.Unlock()
	})
	require.NoError(t, err)
	w.Start()
	defer w.Stop()

	require.NoError(t, w.WatchRoot(root))
	assert.Equal(t, []string{root}, w.WatchedRoots())

	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "scratch.tmp"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "app.lgt"), []byte(":- object(app).\n"), 0o644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(batches) > 0
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	var seen []string
	for _, batch := range batches {
		for _, e := range batch {
			seen = append(seen, e.Path)
		}
	}
	assert.Contains(t, seen, root+"/src/app.lgt")
	assert.NotContains(t, seen, root+"/src/scratch.tmp")
}

func TestWatcher_ConfigChange(t *testing.T) {
	root := filepath.ToSlash(t.TempDir())
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".lgtnav"), 0o755))

	w, err := New(testConfig(), testLogger(), nil)
	require.NoError(t, err)

	var reloaded atomic.Int32
	w.OnConfigChange(func(string) { reloaded.Add(1) })
	w.Start()
	defer w.Stop()
	require.NoError(t, w.WatchRoot(root))

	require.NoError(t, os.WriteFile(config.ConfigPath(root), []byte("{}"), 0o644))
	require.Eventually(t, func() bool { return reloaded.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestWatcher_UnwatchAndStop(t *testing.T) {
	root := filepath.ToSlash(t.TempDir())

	w, err := New(testConfig(), testLogger(), nil)
	require.NoError(t, err)
	w.Start()

	require.NoError(t, w.WatchRoot(root))
	require.NoError(t, w.WatchRoot(root))
	assert.Equal(t, 1, w.Stats()["roots"])

	w.UnwatchRoot(root)
	assert.Empty(t, w.WatchedRoots())

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
	assert.ErrorIs(t, w.WatchRoot(root), ErrStopped)
}

func TestDocuments(t *testing.T) {
	docs := Documents([]Event{{Type: EventModify, Path: "/w/a.lgt"}})
	require.Len(t, docs, 1)
	assert.Equal(t, "/w/a.lgt", docs[0].Path)
	assert.True(t, docs[0].Modified)
}
