package slogutil

import (
	"io"
	"log/slog"

	"lgtnav/internal/config"
	"lgtnav/internal/paths"
)

// LoggerFactory builds the workspace logger.
// Level precedence: CLI flag > config logging.level > info.
type LoggerFactory struct {
	root     string
	config   *config.Config
	cliLevel *slog.Level
	closers  []io.Closer
}

// NewLoggerFactory creates a logger factory. cliLevel may be nil.
func NewLoggerFactory(root string, cfg *config.Config, cliLevel *slog.Level) *LoggerFactory {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &LoggerFactory{root: root, config: cfg, cliLevel: cliLevel}
}

// WorkspaceLogger returns a logger writing <root>/.lgtnav/logs/lgtnav.log.
// Any failure to set up the file yields a discard logger.
func (f *LoggerFactory) WorkspaceLogger() *slog.Logger {
	if f.root == "" {
		return NewDiscardLogger()
	}
	if _, err := paths.EnsureLogsDir(f.root); err != nil {
		return NewDiscardLogger()
	}

	logger, closer, err := NewFileLoggerWithRotation(
		paths.GetLogPath(f.root),
		f.EffectiveLevel(),
		f.config.Logging.MaxSize,
		f.config.Logging.MaxBackups,
	)
	if err != nil {
		return NewDiscardLogger()
	}
	f.closers = append(f.closers, closer)
	return logger
}

// EffectiveLevel resolves the level from the CLI flag and config.
func (f *LoggerFactory) EffectiveLevel() slog.Level {
	if f.cliLevel != nil {
		return *f.cliLevel
	}
	if f.config.Logging.Level != "" {
		return LevelFromString(f.config.Logging.Level)
	}
	return slog.LevelInfo
}

// Close closes all open log files.
func (f *LoggerFactory) Close() error {
	var firstErr error
	for _, c := range f.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	f.closers = nil
	return firstErr
}
