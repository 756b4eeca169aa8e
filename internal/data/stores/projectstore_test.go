package stores

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/colonyops/buildsched/internal/core/schedule"
	"github.com/colonyops/buildsched/internal/data/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProjectStore(t *testing.T) *ProjectStore {
	t.Helper()
	database, err := db.Open(t.TempDir(), db.DefaultOpenOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return NewProjectStore(database)
}

func importKitchen(t *testing.T, store *ProjectStore) string {
	t.Helper()
	f, err := LoadFixture(filepath.Join("testdata", "kitchen.yaml"))
	require.NoError(t, err)
	id, err := store.Import(context.Background(), f)
	require.NoError(t, err)
	return id
}

func lineIDs(items []schedule.LineItem) []string {
	out := make([]string, 0, len(items))
	for _, li := range items {
		out = append(out, li.ID)
	}
	return out
}

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := schedule.ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestProjectStore_LoadDataset(t *testing.T) {
	ctx := context.Background()
	store := newTestProjectStore(t)
	id := importKitchen(t, store)
	require.Equal(t, "p-kitchen", id)

	ds, err := store.LoadDataset(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, "Kitchen remodel", ds.Project.Name)
	require.NotNil(t, ds.Project.StartDate)
	assert.Equal(t, date(t, "2024-06-01"), *ds.Project.StartDate)

	// latest approved estimate, then approved change orders; drafts and
	// pending change orders are excluded
	assert.Equal(t, []string{"li-demo", "li-drywall", "li-paint", "li-outlets"}, lineIDs(ds.LineItems))

	demo := ds.LineItems[0]
	assert.Equal(t, schedule.SourceEstimateLine, demo.Source)
	assert.InDelta(t, 800.0, demo.TotalCost, 0.001, "total derived from quantity x unit cost")

	drywall := ds.LineItems[1]
	require.Len(t, drywall.Dependencies, 1)
	assert.Equal(t, "li-demo", drywall.Dependencies[0].TaskID)
	assert.Equal(t, "Demo", drywall.Dependencies[0].TaskName)
	doc := schedule.ParseSubDocument(drywall.ScheduleNotes)
	require.Len(t, doc.Phases, 2)
	assert.True(t, doc.Phases[0].Completed)

	outlets := ds.LineItems[3]
	assert.Equal(t, schedule.SourceChangeOrderLine, outlets.Source)
	assert.Equal(t, "CO-001", outlets.ChangeOrderNumber)
	assert.Equal(t, 2, outlets.DurationDays)
	assert.Nil(t, outlets.ScheduledEnd)

	assert.Len(t, ds.Entries, 3)
}

func TestProjectStore_LoadDatasetBuildsTasks(t *testing.T) {
	store := newTestProjectStore(t)
	id := importKitchen(t, store)

	ds, err := store.LoadDataset(context.Background(), id)
	require.NoError(t, err)

	tasks := schedule.NewBuilder().Build(ds)
	require.Len(t, tasks, 4)

	drywall := tasks[schedule.FindTask(tasks, "li-drywall")]
	assert.Equal(t, date(t, "2024-06-03"), drywall.Start)
	assert.Equal(t, date(t, "2024-06-08"), drywall.End)

	outlets := tasks[schedule.FindTask(tasks, "li-outlets")]
	assert.Equal(t, "CO-001: Extra outlets", outlets.Name)
	assert.Equal(t, date(t, "2024-06-10"), outlets.End)
}

func TestProjectStore_LoadDatasetNotFound(t *testing.T) {
	store := newTestProjectStore(t)

	_, err := store.LoadDataset(context.Background(), "missing")
	require.ErrorIs(t, err, ErrProjectNotFound)
}

func TestProjectStore_SaveSchedule(t *testing.T) {
	ctx := context.Background()
	store := newTestProjectStore(t)
	id := importKitchen(t, store)

	tests := []struct {
		name   string
		taskID string
		source schedule.SourceKind
	}{
		{"estimate line", "li-paint", schedule.SourceEstimateLine},
		{"change order line", "li-outlets", schedule.SourceChangeOrderLine},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			done := true
			task := schedule.Task{
				ID:           tt.taskID,
				Source:       tt.source,
				Start:        date(t, "2024-07-01"),
				End:          date(t, "2024-07-03"),
				Completed:    &done,
				Notes:        "moved after inspection",
				Dependencies: []schedule.Dependency{{TaskID: "li-demo", Relation: schedule.RelationFinishToStart}},
			}
			update, err := schedule.NewTaskUpdate(task)
			require.NoError(t, err)

			require.NoError(t, store.SaveSchedule(ctx, update))

			ds, err := store.LoadDataset(ctx, id)
			require.NoError(t, err)
			var got schedule.LineItem
			for _, li := range ds.LineItems {
				if li.ID == tt.taskID {
					got = li
				}
			}
			require.NotNil(t, got.ScheduledStart)
			require.NotNil(t, got.ScheduledEnd)
			assert.Equal(t, date(t, "2024-07-01"), *got.ScheduledStart)
			assert.Equal(t, date(t, "2024-07-03"), *got.ScheduledEnd)
			assert.Equal(t, 3, got.DurationDays)
			require.Len(t, got.Dependencies, 1)

			doc := schedule.ParseSubDocument(got.ScheduleNotes)
			require.NotNil(t, doc.Completed)
			assert.True(t, *doc.Completed)
			assert.Equal(t, "moved after inspection", doc.Notes)
		})
	}
}

func TestProjectStore_SaveScheduleErrors(t *testing.T) {
	ctx := context.Background()
	store := newTestProjectStore(t)
	importKitchen(t, store)

	err := store.SaveSchedule(ctx, schedule.TaskUpdate{TaskID: "li-ghost", Source: schedule.SourceEstimateLine})
	require.ErrorIs(t, err, schedule.ErrTaskNotFound)

	// routed by source: an estimate line id in the change order table is unknown
	err = store.SaveSchedule(ctx, schedule.TaskUpdate{TaskID: "li-paint", Source: schedule.SourceChangeOrderLine})
	require.ErrorIs(t, err, schedule.ErrTaskNotFound)

	err = store.SaveSchedule(ctx, schedule.TaskUpdate{TaskID: "li-paint", Source: "bogus"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown source")
}

func TestProjectStore_ImportReplaces(t *testing.T) {
	ctx := context.Background()
	store := newTestProjectStore(t)
	importKitchen(t, store)
	importKitchen(t, store)

	projects, err := store.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1)

	require.NoError(t, store.DeleteProject(ctx, "p-kitchen"))
	require.ErrorIs(t, store.DeleteProject(ctx, "p-kitchen"), ErrProjectNotFound)

	_, err = store.GetProject(ctx, "p-kitchen")
	require.ErrorIs(t, err, ErrProjectNotFound)
}

func TestProjectStore_ImportGeneratesIDs(t *testing.T) {
	ctx := context.Background()
	store := newTestProjectStore(t)

	id, err := store.Import(ctx, Fixture{
		Project: FixtureProject{Name: "Bath"},
		Estimates: []FixtureEstimate{{
			LineItems: []FixtureLineItem{{Category: "labor", Description: "Tile", TotalCost: 300}},
		}},
	})
	require.NoError(t, err)
	assert.Regexp(t, `^p-[a-z0-9]{8}$`, id)

	ds, err := store.LoadDataset(ctx, id)
	require.NoError(t, err)
	require.Len(t, ds.LineItems, 1)
	assert.Regexp(t, `^li-[a-z0-9]{8}$`, ds.LineItems[0].ID)
}

func TestProjectStore_ImportValidation(t *testing.T) {
	ctx := context.Background()
	store := newTestProjectStore(t)

	_, err := store.Import(ctx, Fixture{})
	require.Error(t, err)

	_, err = store.Import(ctx, Fixture{
		Project: FixtureProject{ID: "p-bad", Name: "Bad"},
		Estimates: []FixtureEstimate{{
			LineItems: []FixtureLineItem{{ID: "li-x", Description: "x", ScheduledStart: "June 1st"}},
		}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "li-x")

	_, err = store.GetProject(ctx, "p-bad")
	require.ErrorIs(t, err, ErrProjectNotFound, "failed import must not leave a partial project")
}

func TestProjectStore_ImportDuplicateLineID(t *testing.T) {
	ctx := context.Background()
	store := newTestProjectStore(t)

	_, err := store.Import(ctx, Fixture{
		Project: FixtureProject{ID: "p-dup", Name: "Dup"},
		Estimates: []FixtureEstimate{{
			LineItems: []FixtureLineItem{
				{ID: "li-same", Description: "a"},
				{ID: "li-same", Description: "b"},
			},
		}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate id")
}
