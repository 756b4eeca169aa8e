package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	logger := Component("coordinator")
	logger.Info().Ctx(WithEditID(context.Background(), "e-1")).Msg("test message")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log: %v", err)
	}

	if entry["component"] != "coordinator" {
		t.Errorf("component = %v, want %q", entry["component"], "coordinator")
	}
	if entry["edit_id"] != "e-1" {
		t.Errorf("edit_id = %v, want %q", entry["edit_id"], "e-1")
	}
}
