package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/balkashynov/tomate/internal/config"
)

func TestInitJSON(t *testing.T) {
	if _, err := Init(config.LogConfig{Level: "info", Format: "json"}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	var buf bytes.Buffer
	SetOutput(&buf)

	Component("timer").WithField("kind", "work").Info("session completed")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Expected JSON output, got %q: %v", buf.String(), err)
	}
	if entry["message"] != "session completed" {
		t.Errorf("Unexpected message %v", entry["message"])
	}
	if entry["component"] != "timer" || entry["kind"] != "work" {
		t.Errorf("Missing fields in %v", entry)
	}
	if _, ok := entry["ts"]; !ok {
		t.Error("Expected ts field")
	}
}

func TestInitLevelFilters(t *testing.T) {
	if _, err := Init(config.LogConfig{Level: "warn"}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	var buf bytes.Buffer
	SetOutput(&buf)

	Logger.Info("hidden")
	Logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("Info should be filtered at warn level")
	}
	if !strings.Contains(out, "shown") {
		t.Error("Warn should be logged")
	}
}

func TestInitRejectsBadInput(t *testing.T) {
	if _, err := Init(config.LogConfig{Level: "loud"}); err == nil {
		t.Error("Expected error for bad level")
	}
	if _, err := Init(config.LogConfig{Format: "xml"}); err == nil {
		t.Error("Expected error for bad format")
	}
}

func TestToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "tomate.log")
	if _, err := Init(config.LogConfig{Level: "info", File: path}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer Close()

	Logger.Info("to file")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !strings.Contains(string(data), "to file") {
		t.Errorf("Expected message in log file, got %q", data)
	}
}
