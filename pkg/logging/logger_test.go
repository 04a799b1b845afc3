package logging

import (
	"os"
	"strings"
	"sync"
	"testing"
)

// setupTestDir points the package at a temp directory and resets global state.
func setupTestDir(t *testing.T) {
	t.Helper()

	tempDir := t.TempDir()

	origLogDir := logDir
	origInitErr := initErr
	origRunID := runID

	logDir = tempDir
	initErr = nil
	initOnce = sync.Once{}
	runID = ""
	runIDOnce = sync.Once{}

	// initLogDirectory would normally set logDir; pre-trigger the Once so it
	// keeps the temp dir.
	initOnce.Do(func() {})

	t.Cleanup(func() {
		logDir = origLogDir
		initErr = origInitErr
		initOnce = sync.Once{}
		runID = origRunID
		runIDOnce = sync.Once{}
	})
}

func TestNewLogger(t *testing.T) {
	setupTestDir(t)

	logger, err := NewLogger("browser")
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	defer logger.Close()

	if logger.component != "browser" {
		t.Errorf("component = %q, want %q", logger.component, "browser")
	}
	if logger.RunID() == "" {
		t.Error("expected non-empty run ID")
	}
	if logger.LogPath() == "" {
		t.Error("expected non-empty log path")
	}
	if _, err := os.Stat(logger.LogPath()); os.IsNotExist(err) {
		t.Errorf("log file missing at %s", logger.LogPath())
	}
}

func TestLoggerLevels(t *testing.T) {
	setupTestDir(t)

	logger, err := NewLogger("agent")
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}

	logger.Debugf("debug %d", 1)
	logger.Infof("info %s", "x")
	logger.Warnf("warn")
	logger.Errorf("error")
	logger.Close()

	data, err := os.ReadFile(logger.LogPath())
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	out := string(data)

	for _, want := range []string{"[DEBUG] debug 1", "[INFO] info x", "[WARN] warn", "[ERROR] error", "[agent]"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestComponentsShareFile(t *testing.T) {
	setupTestDir(t)

	a, err := NewLogger("browser")
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	b, err := NewLogger("agent")
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}

	if a.LogPath() != b.LogPath() {
		t.Errorf("expected shared log file, got %q and %q", a.LogPath(), b.LogPath())
	}
	if a.RunID() != b.RunID() {
		t.Errorf("expected shared run ID, got %q and %q", a.RunID(), b.RunID())
	}

	a.Close()
	b.Close()
}

func TestCloseIsIdempotent(t *testing.T) {
	setupTestDir(t)

	logger, err := NewLogger("test")
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}

	if err := logger.Close(); err != nil {
		t.Errorf("first Close: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}
