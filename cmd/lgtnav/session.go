package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"lgtnav/internal/config"
	"lgtnav/internal/dispatch"
	"lgtnav/internal/paths"
	"lgtnav/internal/slogutil"
	"lgtnav/internal/storage"
)

// session holds everything one command invocation needs.
type session struct {
	root    string
	cfg     *config.Config
	logger  *slog.Logger
	facade  *dispatch.Facade
	db      *storage.DB
	loggers *slogutil.LoggerFactory
	// swept counts leftover artifacts removed when the root was attached
	swept int
}

// resolveRoot returns the --root flag or the working directory, absolute.
func resolveRoot() (string, error) {
	root := rootFlag
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		root = wd
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	return paths.NormalizePath(abs), nil
}

// cliLevel returns the level implied by -v/-q, or nil to defer to config.
func cliLevel() *slog.Level {
	if verbosity == 0 && !quiet {
		return nil
	}
	level := slogutil.LevelFromVerbosity(verbosity, quiet)
	return &level
}

// loadConfig loads the workspace config, falling back to defaults.
func loadConfig(root string, logger *slog.Logger) *config.Config {
	cfg, err := config.LoadConfig(root)
	if err != nil {
		logger.Warn("Failed to load config, using defaults", "error", err.Error())
		return config.DefaultConfig()
	}
	return cfg
}

// openSession loads config, sets up logging and the result cache, and
// attaches the workspace root to a new facade.
func openSession() (*session, error) {
	root, err := resolveRoot()
	if err != nil {
		return nil, err
	}

	stderr := slogutil.NewLogger(os.Stderr, slog.LevelWarn)
	cfg := loadConfig(root, stderr)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", config.ConfigPath(root), err)
	}

	s := &session{root: root, cfg: cfg}
	s.loggers = slogutil.NewLoggerFactory(root, cfg, cliLevel())
	s.logger = s.loggers.WorkspaceLogger()

	var cache *storage.ResultCache
	if cfg.Cache.Enabled && cfg.Cache.Persist {
		s.db, err = storage.Open(root, s.logger)
		if err != nil {
			s.logger.Warn("Result cache unavailable, keeping results in memory", "error", err.Error())
			s.db = nil
		}
	}
	cache, err = storage.NewResultCache(s.db, cfg.Cache.MaxEntries, s.logger)
	if err != nil {
		s.Close()
		return nil, err
	}

	s.facade, err = dispatch.New(dispatch.Options{
		Config:         cfg,
		Cache:          cache,
		Logger:         s.logger,
		CollectPending: true,
	})
	if err != nil {
		s.Close()
		return nil, err
	}
	s.swept = s.facade.AttachRoot(root)
	return s, nil
}

// mustOpenSession returns a session or exits on error.
func mustOpenSession() *session {
	s, err := openSession()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return s
}

// Close releases the database and log files.
func (s *session) Close() {
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Warn("Failed to close result cache", "error", err.Error())
		}
	}
	if s.loggers != nil {
		_ = s.loggers.Close()
	}
}

// newContext returns a context cancelled by SIGINT or SIGTERM.
func newContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// printResult formats v and writes it to stdout, exiting on error.
func printResult(v any) {
	output, err := FormatResponse(v, OutputFormat(formatFlag))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)
}
