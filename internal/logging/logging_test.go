package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewFiltersByLevel(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.GlobalLevel())

	var buf bytes.Buffer
	log := New(&buf, "warn", false)
	log.Info().Msg("hidden")
	log.Warn().Str("component", "test").Msg("shown")

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("expected a single json line, got %q: %v", buf.String(), err)
	}
	if entry["message"] != "shown" || entry["component"] != "test" || entry["level"] != "warn" {
		t.Fatalf("unexpected entry %+v", entry)
	}
}

func TestNewUnknownLevelDefaultsToInfo(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.GlobalLevel())

	var buf bytes.Buffer
	log := New(&buf, "loud", false)
	if log.GetLevel() != zerolog.InfoLevel {
		t.Fatalf("expected info, got %s", log.GetLevel())
	}
}
