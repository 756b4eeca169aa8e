package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// ContextHook stamps project_id and edit_id from the event context onto log events.
type ContextHook struct{}

// Run adds contextual fields to the zerolog event.
func (h ContextHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	ctx := e.GetCtx()
	if ctx == context.Background() || ctx == nil {
		return
	}

	if projectID := GetProjectID(ctx); projectID != "" {
		e.Str("project_id", projectID)
	}

	if editID := GetEditID(ctx); editID != "" {
		e.Str("edit_id", editID)
	}
}
