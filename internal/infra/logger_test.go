package infra

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewLoggerProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "production", "")
	logger.Debug().Msg("hidden")
	logger.Info().Str("job_id", "job-1").Msg("visible")

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("expected a single JSON line, got %q: %v", buf.String(), err)
	}
	if entry["message"] != "visible" || entry["job_id"] != "job-1" || entry["service"] != "contentstudio" {
		t.Fatalf("unexpected entry: %#v", entry)
	}
}

func TestNewLoggerLevelOverride(t *testing.T) {
	logger := newLogger(&bytes.Buffer{}, "development", "WARN")
	if logger.GetLevel() != zerolog.WarnLevel {
		t.Fatalf("level = %s, want warn", logger.GetLevel())
	}
}
