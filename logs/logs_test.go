package logs

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"":      slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := ParseLevel(in)
		if err != nil {
			t.Errorf("ParseLevel(%q) failed: %s.", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v.", in, got, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("ParseLevel(\"loud\") did not fail.")
	}
}

func TestNewFansOut(t *testing.T) {
	t.Parallel()

	terminal := &strings.Builder{}
	file := filepath.Join(t.TempDir(), "run.log")

	logger, err := New(terminal, slog.LevelWarn, file)
	if err != nil {
		t.Fatalf("Failed to build logger: %s.", err)
	}
	logger.Debug("page fault", "page", 3)
	logger.Warn("watchdog tripped")

	if out := terminal.String(); !strings.Contains(out, "watchdog tripped") {
		t.Errorf("Terminal output lacks the warning: %q.", out)
	}
	if out := terminal.String(); strings.Contains(out, "page fault") {
		t.Errorf("Terminal output has a debug record despite the warn level: %q.", out)
	}

	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("Failed to read log file: %s.", err)
	}
	// The file handler records everything from debug up.
	for _, want := range []string{"page fault", "watchdog tripped"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("Log file lacks %q.", want)
		}
	}
}
