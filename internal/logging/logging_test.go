package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, ws, body string) {
	t.Helper()
	dir := filepath.Join(ws, ".loom")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func reset() {
	Close()
	logsDir = ""
	cfg = loggingConfig{}
	logLevel = LevelInfo
}

func TestDisabledByDefault(t *testing.T) {
	defer reset()
	ws := t.TempDir()

	if err := Initialize(ws); err != nil {
		t.Fatal(err)
	}
	Engine("should go nowhere")

	if _, err := os.Stat(filepath.Join(ws, ".loom", "logs")); !os.IsNotExist(err) {
		t.Error("no logs directory should exist in production mode")
	}
}

func TestWritesWhenDebugEnabled(t *testing.T) {
	defer reset()
	ws := t.TempDir()
	writeConfig(t, ws, "logging:\n  debug_mode: true\n  level: debug\n")

	if err := Initialize(ws); err != nil {
		t.Fatal(err)
	}
	Engine("merged %d turns", 3)
	Close()

	data, err := os.ReadFile(filepath.Join(ws, ".loom", "logs", "engine.log"))
	if err != nil {
		t.Fatalf("expected engine log file: %v", err)
	}
	if !strings.Contains(string(data), "merged 3 turns") {
		t.Errorf("log content missing message: %q", data)
	}
}

func TestCategoryFilter(t *testing.T) {
	defer reset()
	ws := t.TempDir()
	writeConfig(t, ws, "logging:\n  debug_mode: true\n  categories:\n    transport: false\n")

	if err := Initialize(ws); err != nil {
		t.Fatal(err)
	}
	Transport("should be filtered")
	Engine("should be written")
	Close()

	if _, err := os.Stat(filepath.Join(ws, ".loom", "logs", "transport.log")); !os.IsNotExist(err) {
		t.Error("disabled category must not create a file")
	}
	if _, err := os.Stat(filepath.Join(ws, ".loom", "logs", "engine.log")); err != nil {
		t.Error("enabled category should create a file")
	}
}

func TestLevelFiltering(t *testing.T) {
	defer reset()
	ws := t.TempDir()
	writeConfig(t, ws, "logging:\n  debug_mode: true\n  level: warn\n")

	if err := Initialize(ws); err != nil {
		t.Fatal(err)
	}
	EngineDebug("too quiet")
	Engine("info is below warn")
	Get(CategoryEngine).Warn("loud enough")
	Close()

	data, err := os.ReadFile(filepath.Join(ws, ".loom", "logs", "engine.log"))
	if err != nil {
		t.Fatalf("expected engine log file: %v", err)
	}
	out := string(data)
	if strings.Contains(out, "too quiet") || strings.Contains(out, "info is below warn") {
		t.Errorf("level filter leaked: %q", out)
	}
	if !strings.Contains(out, "loud enough") {
		t.Errorf("warn line missing: %q", out)
	}
}
