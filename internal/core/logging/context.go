package logging

import "context"

type contextKey string

const (
	projectIDKey contextKey = "project_id"
	editIDKey    contextKey = "edit_id"
)

// WithProjectID adds a project ID to the context.
func WithProjectID(ctx context.Context, projectID string) context.Context {
	return context.WithValue(ctx, projectIDKey, projectID)
}

// WithEditID adds the ID of an in-flight schedule edit to the context.
func WithEditID(ctx context.Context, editID string) context.Context {
	return context.WithValue(ctx, editIDKey, editID)
}

// GetProjectID retrieves the project ID from the context.
// Returns empty string if not present.
func GetProjectID(ctx context.Context) string {
	if id, ok := ctx.Value(projectIDKey).(string); ok {
		return id
	}
	return ""
}

// GetEditID retrieves the edit ID from the context.
// Returns empty string if not present.
func GetEditID(ctx context.Context) string {
	if id, ok := ctx.Value(editIDKey).(string); ok {
		return id
	}
	return ""
}
