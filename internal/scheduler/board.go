package scheduler

import (
	"context"
	"fmt"

	"github.com/colonyops/buildsched/internal/core/schedule"
)

// Board is a project's snapshot with tasks in display order.
type Board struct {
	View
	Preferences schedule.Preferences `json:"preferences"`
}

// Board opens projectID, retrying the load if an earlier attempt failed,
// and returns its snapshot ordered by the stored display preferences.
func (a *App) Board(ctx context.Context, projectID string) (Board, error) {
	c, err := a.Schedules.Open(ctx, projectID)
	if err != nil {
		return Board{}, err
	}

	if !c.Loaded() {
		if err := c.Reload(ctx); err != nil {
			return Board{}, err
		}
	}

	v := c.Snapshot()

	prefs := a.Preferences.Load(ctx, projectID, v.Tasks)
	v.Tasks = schedule.ApplyOrder(v.Tasks, prefs)
	return Board{View: v, Preferences: prefs}, nil
}

// Export projects the board to rows for CSV or JSON output.
func (b Board) Export(perPhase bool) []schedule.ExportRow {
	return schedule.ExportRows(b.Tasks, b.Progress, b.CriticalPath, perPhase)
}

// Coordinator returns the loaded coordinator of projectID.
func (a *App) Coordinator(ctx context.Context, projectID string) (*Coordinator, error) {
	c, err := a.Schedules.Open(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !c.Loaded() {
		if err := c.Reload(ctx); err != nil {
			return nil, fmt.Errorf("open %s: %w", projectID, err)
		}
	}
	return c, nil
}
