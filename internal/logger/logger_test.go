package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/jwebster45206/adventure-engine/internal/config"
)

func TestSetupProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := setup(&buf, &config.Config{Environment: "production", LogLevel: slog.LevelInfo})

	WithRequestID(log, "req-1").Info("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Expected JSON log line, got %q: %v", buf.String(), err)
	}
	if entry["request_id"] != "req-1" || entry["service"] != "adventure-engine" {
		t.Errorf("Unexpected log entry %v", entry)
	}
}

func TestSetupRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := setup(&buf, &config.Config{Environment: "development", LogLevel: slog.LevelWarn})

	log.Info("hidden")
	WithError(WithGameID(log, "g-1"), errors.New("boom")).Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("Expected info line to be dropped, got %q", out)
	}
	if !strings.Contains(out, "error=boom") || !strings.Contains(out, "game_id=g-1") {
		t.Errorf("Expected error and game_id attributes, got %q", out)
	}
}
