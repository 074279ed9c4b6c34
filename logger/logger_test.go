package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitLogger(t *testing.T) {
	t.Cleanup(func() {
		Sync()
	})

	path := filepath.Join(t.TempDir(), "test.log")
	if err := InitLogger("debug", path); err != nil {
		t.Fatalf("InitLogger failed: %v", err)
	}
	Log.Debugw("hashing mod", "mod", "BaroTraumatic")
	Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "Logger initialized") {
		t.Errorf("Expected init message in log, got %q", out)
	}
	if !strings.Contains(out, "DEBUG") || !strings.Contains(out, "BaroTraumatic") {
		t.Errorf("Expected debug entry in log, got %q", out)
	}
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	if err := InitLogger("chatty", filepath.Join(t.TempDir(), "x.log")); err == nil {
		t.Error("Expected error for unknown level")
	}
}
