package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"lgtnav/internal/config"
	"lgtnav/internal/staleness"
	"lgtnav/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch sources and report when cached results become outdated",
	Long: `Watch the workspace for source changes.

Saving a Logtalk source marks cached test results and metrics as possibly
outdated; editing .lgtnav/config.json reloads the configuration. Each change
is printed as it settles. Stop with Ctrl-C.`,
	Args: cobra.NoArgs,
	Run:  runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

// WatchEventCLI is one settled batch of changes.
type WatchEventCLI struct {
	Root   string                 `json:"root" yaml:"root"`
	Events []watcher.Event        `json:"events,omitempty" yaml:"events,omitempty"`
	Config bool                   `json:"configReloaded,omitempty" yaml:"configReloaded,omitempty"`
	Stale  map[staleness.Kind]bool `json:"stale" yaml:"stale"`
}

func runWatch(cmd *cobra.Command, args []string) {
	s := mustOpenSession()
	defer s.Close()

	if !s.cfg.Watcher.Enabled {
		fmt.Fprintln(os.Stderr, "Watcher disabled in config (watcher.enabled=false)")
		os.Exit(1)
	}

	ctx, cancel := newContext()
	defer cancel()

	tracker := s.facade.Tracker()
	w, err := watcher.New(s.cfg.Watcher, s.logger, func(root string, events []watcher.Event) {
		for _, doc := range watcher.Documents(events) {
			s.facade.DidChangeDocument(doc)
		}
		printResult(&WatchEventCLI{Root: root, Events: events, Stale: tracker.Snapshot()})
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error starting watcher: %v\n", err)
		os.Exit(1)
	}
	w.OnConfigChange(func(root string) {
		cfg, err := config.LoadConfig(root)
		if err != nil {
			s.logger.Warn("Failed to reload config", "error", err.Error())
			cfg = nil
		}
		// An unreadable config still counts as a change.
		s.facade.DidChangeConfiguration(cfg)
		printResult(&WatchEventCLI{Root: root, Config: true, Stale: tracker.Snapshot()})
	})

	w.Start()
	defer w.Stop()
	if err := w.WatchRoot(s.root); err != nil {
		fmt.Fprintf(os.Stderr, "Error watching %s: %v\n", s.root, err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "Watching %s\n", s.root)

	<-ctx.Done()
}

func (e *WatchEventCLI) String() string {
	var b strings.Builder
	if e.Config {
		fmt.Fprintf(&b, "config reloaded for %s\n", e.Root)
	}
	for _, ev := range e.Events {
		fmt.Fprintf(&b, "%-6s %s\n", ev.Type, ev.Path)
	}
	var stale []string
	for _, kind := range []staleness.Kind{staleness.TestResults, staleness.Metrics} {
		if e.Stale[kind] {
			stale = append(stale, string(kind))
		}
	}
	if len(stale) > 0 {
		fmt.Fprintf(&b, "  outdated: %s", strings.Join(stale, ", "))
	}
	return strings.TrimSuffix(b.String(), "\n")
}
