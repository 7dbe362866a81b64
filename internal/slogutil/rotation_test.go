package slogutil

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lgtnav/internal/config"
	"lgtnav/internal/paths"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		input    string
		expected int64
	}{
		{"", 0},
		{"invalid", 0},
		{"100", 100},
		{"100b", 100},
		{"1KB", 1024},
		{"10MB", 10 * 1024 * 1024},
		{"1GB", 1024 * 1024 * 1024},
		{"1.5MB", int64(1.5 * 1024 * 1024)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseSize(tt.input); got != tt.expected {
				t.Errorf("ParseSize(%q) = %d, want %d", tt.input, got, tt.expected)
			}
		})
	}
}

func TestRotatingFile_Rotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")

	rf, err := OpenRotatingFile(path, 50, 2)
	if err != nil {
		t.Fatalf("OpenRotatingFile failed: %v", err)
	}

	data := []byte(strings.Repeat("a", 29) + "\n")
	for i := 0; i < 5; i++ {
		if _, err := rf.Write(data); err != nil {
			t.Fatalf("Write %d failed: %v", i, err)
		}
	}
	if err := rf.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	for _, p := range []string{path, path + ".1", path + ".2"} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("expected %s to exist: %v", p, err)
		}
	}
	if _, err := os.Stat(path + ".3"); !os.IsNotExist(err) {
		t.Error("only two backups should be kept")
	}
}

func TestLoggerFactory_WorkspaceLogger(t *testing.T) {
	root := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Logging.Level = "debug"

	f := NewLoggerFactory(root, cfg, nil)
	logger := f.WorkspaceLogger()
	logger.Debug("engine invoked", "kind", "callers")
	if err := f.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(paths.GetLogPath(root))
	if err != nil {
		t.Fatalf("log file missing: %v", err)
	}
	if !strings.Contains(string(data), "kind=callers") {
		t.Errorf("log file content = %q", data)
	}
}

func TestLoggerFactory_EffectiveLevel(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Logging.Level = "error"

	if got := NewLoggerFactory("", cfg, nil).EffectiveLevel(); got != slog.LevelError {
		t.Errorf("config level = %v, want error", got)
	}

	cli := slog.LevelDebug
	if got := NewLoggerFactory("", cfg, &cli).EffectiveLevel(); got != slog.LevelDebug {
		t.Errorf("cli level = %v, want debug", got)
	}

	if NewLoggerFactory("", nil, nil).WorkspaceLogger() == nil {
		t.Error("empty root should still yield a logger")
	}
}
