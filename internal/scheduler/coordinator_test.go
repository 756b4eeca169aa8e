package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/buildsched/internal/core/eventbus"
	"github.com/colonyops/buildsched/internal/core/eventbus/testbus"
	"github.com/colonyops/buildsched/internal/core/schedule"
)

const waitTimeout = 2 * time.Second

func newTestCoordinator(t *testing.T, store *memStore, tb *testbus.Bus, opts Options) *Coordinator {
	t.Helper()
	c := NewCoordinator("p-site", store, store, tb.EventBus, opts)
	require.NoError(t, c.Reload(context.Background()))
	t.Cleanup(c.Close)
	return c
}

func quickOptions() Options {
	return Options{Debounce: 20 * time.Millisecond, InteractionGrace: 30 * time.Millisecond}
}

// slowOptions keeps debounced writes pending until Flush.
func slowOptions() Options {
	return Options{Debounce: time.Hour, InteractionGrace: 30 * time.Millisecond}
}

func lastRollback(t *testing.T, tb *testbus.Bus) eventbus.ScheduleRolledBackPayload {
	t.Helper()
	return testbus.Last[eventbus.ScheduleRolledBackPayload](t, tb, eventbus.EventScheduleRolledBack)
}

func TestCoordinator_ReloadBuildsTasks(t *testing.T) {
	tb := testbus.New(t)
	c := newTestCoordinator(t, newMemStore(siteDataset(t)), tb, quickOptions())

	tasks := c.Tasks()
	require.Len(t, tasks, 4)
	assert.Equal(t, "li-frame", tasks[0].ID)
	assert.Equal(t, "CO-001: Extra outlets", tasks[3].Name)
	assert.Equal(t, StateIdle, c.State("li-frame"))

	tb.AssertPublished(t, eventbus.EventScheduleLoaded)
}

func TestCoordinator_OptimisticApplyThenConfirm(t *testing.T) {
	tb := testbus.New(t)
	store := newMemStore(siteDataset(t))
	store.entered = make(chan string, 4)
	store.release = make(chan struct{})
	c := newTestCoordinator(t, store, tb, quickOptions())

	require.NoError(t, c.EndDrag("li-frame", d(t, "2024-01-02"), d(t, "2024-01-08")))

	// visible locally before anything was written
	task, ok := c.Task("li-frame")
	require.True(t, ok)
	assert.Equal(t, d(t, "2024-01-02"), task.Start)
	assert.Equal(t, 7, task.DurationDays)
	assert.Equal(t, StateApplied, c.State("li-frame"))
	assert.Empty(t, store.savesFor("li-frame"))
	tb.AssertPublished(t, eventbus.EventTaskApplied)

	select {
	case id := <-store.entered:
		assert.Equal(t, "li-frame", id)
	case <-time.After(waitTimeout):
		t.Fatal("debounced write never started")
	}
	assert.Equal(t, StatePersisting, c.State("li-frame"))

	close(store.release)
	require.NoError(t, c.Flush(context.Background()))

	assert.Equal(t, StateConfirmed, c.State("li-frame"))
	saves := store.savesFor("li-frame")
	require.Len(t, saves, 1)
	assert.Equal(t, d(t, "2024-01-02"), saves[0].Start)
	assert.Equal(t, d(t, "2024-01-08"), saves[0].End)
	assert.Equal(t, 7, saves[0].DurationDays)
	assert.Equal(t, schedule.SourceEstimateLine, saves[0].Source)

	require.True(t, tb.WaitFor(eventbus.EventTaskPersisted, waitTimeout))
}

func TestCoordinator_DebounceCoalescesWrites(t *testing.T) {
	tb := testbus.New(t)
	store := newMemStore(siteDataset(t))
	c := newTestCoordinator(t, store, tb, Options{Debounce: 50 * time.Millisecond})

	require.NoError(t, c.EndDrag("li-frame", d(t, "2024-01-02"), d(t, "2024-01-08")))
	require.NoError(t, c.EndDrag("li-frame", d(t, "2024-01-03"), d(t, "2024-01-09")))
	require.NoError(t, c.EndDrag("li-frame", d(t, "2024-01-04"), d(t, "2024-01-10")))

	require.Eventually(t, func() bool {
		return c.State("li-frame") == StateConfirmed
	}, waitTimeout, 10*time.Millisecond)

	saves := store.savesFor("li-frame")
	require.Len(t, saves, 1)
	assert.Equal(t, d(t, "2024-01-04"), saves[0].Start)
	assert.Equal(t, d(t, "2024-01-10"), saves[0].End)
}

func TestCoordinator_DifferentTasksWriteIndependently(t *testing.T) {
	tb := testbus.New(t)
	store := newMemStore(siteDataset(t))
	c := newTestCoordinator(t, store, tb, slowOptions())

	require.NoError(t, c.Move("li-frame", 1))
	require.NoError(t, c.Move("li-outlets", 2))
	require.NoError(t, c.Flush(context.Background()))

	require.Len(t, store.savesFor("li-frame"), 1)
	outlets := store.savesFor("li-outlets")
	require.Len(t, outlets, 1)
	assert.Equal(t, schedule.SourceChangeOrderLine, outlets[0].Source)
	assert.Equal(t, d(t, "2024-01-10"), outlets[0].Start)
}

func TestCoordinator_PersistFailureRollsBack(t *testing.T) {
	tb := testbus.New(t)
	store := newMemStore(siteDataset(t))
	store.setSaveErr("li-frame", errors.New("disk full"))
	c := newTestCoordinator(t, store, tb, slowOptions())

	require.NoError(t, c.EndDrag("li-frame", d(t, "2024-01-10"), d(t, "2024-01-12")))
	task, _ := c.Task("li-frame")
	assert.Equal(t, d(t, "2024-01-10"), task.Start)

	require.NoError(t, c.Flush(context.Background()))

	task, _ = c.Task("li-frame")
	assert.Equal(t, d(t, "2024-01-01"), task.Start, "confirmed dates restored")
	assert.Equal(t, d(t, "2024-01-07"), task.End)
	assert.Equal(t, StateRolledBack, c.State("li-frame"))

	failed := testbus.Last[eventbus.TaskPersistFailedPayload](t, tb, eventbus.EventTaskPersistFailed)
	assert.Equal(t, "li-frame", failed.TaskID)
	assert.Equal(t, "disk full", failed.Error)

	assert.Equal(t, 0, lastRollback(t, tb).Replayed)
}

func TestCoordinator_RollbackKeepsOtherPendingEdits(t *testing.T) {
	tb := testbus.New(t)
	store := newMemStore(siteDataset(t))
	store.setSaveErr("li-frame", errors.New("conflict"))
	c := newTestCoordinator(t, store, tb, slowOptions())

	require.NoError(t, c.Move("li-paint", 5))

	start := d(t, "2024-01-02")
	err := c.SaveTask(context.Background(), TaskEdit{TaskID: "li-frame", Start: &start})
	require.Error(t, err)

	frame, _ := c.Task("li-frame")
	assert.Equal(t, d(t, "2024-01-01"), frame.Start)

	paint, _ := c.Task("li-paint")
	assert.Equal(t, d(t, "2024-01-06"), paint.Start, "unsaved sibling edit survives the reload")
	assert.Equal(t, StateApplied, c.State("li-paint"))
	assert.Equal(t, 1, lastRollback(t, tb).Replayed)

	require.NoError(t, c.Flush(context.Background()))
	assert.Equal(t, StateConfirmed, c.State("li-paint"))
	require.Len(t, store.savesFor("li-paint"), 1)
}

func TestCoordinator_RollbackWhenReloadAlsoFails(t *testing.T) {
	tb := testbus.New(t)
	store := newMemStore(siteDataset(t))
	c := newTestCoordinator(t, store, tb, slowOptions())

	store.setSaveErr("li-frame", errors.New("offline"))
	store.setLoadErr(errors.New("offline"))

	require.NoError(t, c.Move("li-frame", 3))
	require.NoError(t, c.Flush(context.Background()))

	frame, _ := c.Task("li-frame")
	assert.Equal(t, d(t, "2024-01-01"), frame.Start)
	assert.Equal(t, StateRolledBack, c.State("li-frame"))

	v := c.Snapshot()
	assert.True(t, v.Loaded)
	assert.Equal(t, "offline", v.LoadError)
	tb.AssertPublished(t, eventbus.EventScheduleLoadFailed)
}

func TestCoordinator_StaleConfirmationKeepsNewerEdit(t *testing.T) {
	tb := testbus.New(t)
	store := newMemStore(siteDataset(t))
	store.entered = make(chan string, 4)
	store.release = make(chan struct{})
	c := newTestCoordinator(t, store, tb, slowOptions())

	require.NoError(t, c.EndDrag("li-frame", d(t, "2024-01-02"), d(t, "2024-01-08")))
	c.debouncer.Flush()
	select {
	case <-store.entered:
	case <-time.After(waitTimeout):
		t.Fatal("write never started")
	}

	// edited again while the first write is in flight
	require.NoError(t, c.EndDrag("li-frame", d(t, "2024-01-05"), d(t, "2024-01-11")))

	close(store.release)
	require.NoError(t, c.debouncer.Wait(context.Background()))

	assert.Equal(t, StateApplied, c.State("li-frame"))
	frame, _ := c.Task("li-frame")
	assert.Equal(t, d(t, "2024-01-05"), frame.Start)

	require.NoError(t, c.Flush(context.Background()))
	assert.Equal(t, StateConfirmed, c.State("li-frame"))

	saves := store.savesFor("li-frame")
	require.Len(t, saves, 2)
	assert.Equal(t, d(t, "2024-01-05"), saves[1].Start)
}

func TestCoordinator_InteractionGrace(t *testing.T) {
	tb := testbus.New(t)
	c := newTestCoordinator(t, newMemStore(siteDataset(t)), tb, Options{
		Debounce:         time.Hour,
		InteractionGrace: 50 * time.Millisecond,
	})

	assert.True(t, c.ShouldOpenDetail("li-frame"))
	assert.False(t, c.ShouldOpenDetail("li-missing"))

	require.NoError(t, c.BeginDrag("li-frame"))
	assert.Equal(t, StateEditing, c.State("li-frame"))
	assert.False(t, c.ShouldOpenDetail("li-frame"))

	require.NoError(t, c.EndDrag("li-frame", d(t, "2024-01-02"), d(t, "2024-01-08")))
	assert.False(t, c.ShouldOpenDetail("li-frame"), "the click ending the drag is swallowed")
	assert.True(t, c.Interacting())

	assert.Eventually(t, func() bool {
		return c.ShouldOpenDetail("li-frame")
	}, waitTimeout, 10*time.Millisecond)
}

func TestCoordinator_CancelDrag(t *testing.T) {
	tb := testbus.New(t)
	c := newTestCoordinator(t, newMemStore(siteDataset(t)), tb, quickOptions())

	require.NoError(t, c.BeginDrag("li-paint"))
	c.CancelDrag("li-paint")

	assert.Equal(t, StateIdle, c.State("li-paint"))
	paint, _ := c.Task("li-paint")
	assert.Equal(t, d(t, "2024-01-01"), paint.Start)

	err := c.BeginDrag("li-missing")
	require.ErrorIs(t, err, schedule.ErrTaskNotFound)
}

func TestCoordinator_EndDragRejectsInvertedRange(t *testing.T) {
	tb := testbus.New(t)
	store := newMemStore(siteDataset(t))
	c := newTestCoordinator(t, store, tb, quickOptions())

	require.NoError(t, c.BeginDrag("li-frame"))
	err := c.EndDrag("li-frame", d(t, "2024-01-09"), d(t, "2024-01-02"))
	require.ErrorIs(t, err, schedule.ErrInvalidRange)

	assert.Equal(t, StateIdle, c.State("li-frame"))
	require.NoError(t, c.Flush(context.Background()))
	assert.Empty(t, store.savesFor("li-frame"))
}

func TestCoordinator_ReloadFailureKeepsLastKnownState(t *testing.T) {
	tb := testbus.New(t)
	store := newMemStore(siteDataset(t))
	c := newTestCoordinator(t, store, tb, quickOptions())

	store.setLoadErr(errors.New("timeout"))
	err := c.Reload(context.Background())
	require.Error(t, err)

	assert.Len(t, c.Tasks(), 4)
	v := c.Snapshot()
	assert.True(t, v.Loaded)
	assert.Equal(t, "timeout", v.LoadError)
	require.True(t, tb.WaitFor(eventbus.EventScheduleLoadFailed, waitTimeout))

	store.setLoadErr(nil)
	require.NoError(t, c.Reload(context.Background()))
	assert.Empty(t, c.Snapshot().LoadError)
}

func TestCoordinator_EditsBeforeLoad(t *testing.T) {
	tb := testbus.New(t)
	store := newMemStore(siteDataset(t))
	store.setLoadErr(errors.New("unreachable"))

	c := NewCoordinator("p-site", store, store, tb.EventBus, quickOptions())
	t.Cleanup(c.Close)
	require.Error(t, c.Reload(context.Background()))

	assert.ErrorIs(t, c.EndDrag("li-frame", d(t, "2024-01-02"), d(t, "2024-01-03")), ErrNotLoaded)
	assert.ErrorIs(t, c.Move("li-frame", 1), ErrNotLoaded)
	assert.ErrorIs(t, c.SaveTask(context.Background(), TaskEdit{TaskID: "li-frame"}), ErrNotLoaded)

	v := c.Snapshot()
	assert.False(t, v.Loaded)
	assert.Empty(t, v.Tasks)
}

func TestCoordinator_SaveTaskFullEdit(t *testing.T) {
	tb := testbus.New(t)
	store := newMemStore(siteDataset(t))
	c := newTestCoordinator(t, store, tb, slowOptions())

	phases := []schedule.Phase{
		{Start: d(t, "2024-01-10"), End: d(t, "2024-01-11"), Description: "Tape", Completed: false},
		{Start: d(t, "2024-01-03"), End: d(t, "2024-01-04"), Description: "Hang", Completed: true},
	}
	deps := []schedule.Dependency{{TaskID: "li-frame"}, {TaskID: "li-drywall"}}
	notes := "check moisture first"

	err := c.SaveTask(context.Background(), TaskEdit{
		TaskID:       "li-drywall",
		Phases:       &phases,
		Dependencies: &deps,
		Notes:        &notes,
	})
	require.NoError(t, err)
	assert.Equal(t, StateConfirmed, c.State("li-drywall"))

	task, _ := c.Task("li-drywall")
	require.Len(t, task.Phases, 2)
	assert.Equal(t, "Hang", task.Phases[0].Description)
	assert.Equal(t, 1, task.Phases[0].PhaseNumber)
	assert.Equal(t, d(t, "2024-01-03"), task.Start)
	assert.Equal(t, d(t, "2024-01-11"), task.End)

	require.Len(t, task.Dependencies, 1, "self reference dropped")
	assert.Equal(t, "Framing", task.Dependencies[0].TaskName)

	// survives a round trip through the store
	require.NoError(t, c.Reload(context.Background()))
	task, _ = c.Task("li-drywall")
	require.Len(t, task.Phases, 2)
	assert.True(t, task.Phases[0].Completed)
	assert.Equal(t, notes, task.Notes)
	assert.True(t, task.DependsOn("li-frame"))
}

func TestCoordinator_SaveTaskSupersedesPendingDrag(t *testing.T) {
	tb := testbus.New(t)
	store := newMemStore(siteDataset(t))
	c := newTestCoordinator(t, store, tb, slowOptions())

	require.NoError(t, c.Move("li-paint", 3))
	done := true
	require.NoError(t, c.SaveTask(context.Background(), TaskEdit{TaskID: "li-paint", Completed: &done}))

	require.NoError(t, c.Flush(context.Background()))
	saves := store.savesFor("li-paint")
	require.Len(t, saves, 1)
	assert.Equal(t, d(t, "2024-01-04"), saves[0].Start)
	assert.Contains(t, saves[0].ScheduleNotes, `"completed":true`)
}

func TestCoordinator_SaveTaskReportsFailureOfFiredWrite(t *testing.T) {
	errDiskFull := errors.New("disk full")

	for range 10 {
		tb := testbus.New(t)
		store := newMemStore(siteDataset(t))
		c := newTestCoordinator(t, store, tb, slowOptions())
		store.setSaveErr("li-paint", errDiskFull)

		require.NoError(t, c.Move("li-paint", 1))

		// The debounced write fires but queues behind the held task lock, so
		// it writes whatever generation is newest once the lock is free.
		lock := c.taskLock("li-paint")
		lock.Lock()
		c.debouncer.Flush()

		notes := "primer first"
		result := make(chan error, 1)
		go func() {
			result <- c.SaveTask(context.Background(), TaskEdit{TaskID: "li-paint", Notes: &notes})
		}()
		require.Eventually(t, func() bool {
			task, _ := c.Task("li-paint")
			return task.Notes == notes
		}, waitTimeout, 5*time.Millisecond)
		lock.Unlock()

		var err error
		select {
		case err = <-result:
		case <-time.After(waitTimeout):
			t.Fatal("SaveTask did not return")
		}
		require.Error(t, err)
		assert.ErrorIs(t, err, errDiskFull)

		require.NoError(t, c.Flush(context.Background()))
		assert.Equal(t, StateRolledBack, c.State("li-paint"))
		assert.Len(t, store.savesFor("li-paint"), 1, "the failed generation is written once")
		task, _ := c.Task("li-paint")
		assert.Empty(t, task.Notes)
	}
}

func TestCoordinator_SnapshotWarningsAndDismiss(t *testing.T) {
	tb := testbus.New(t)
	c := newTestCoordinator(t, newMemStore(siteDataset(t)), tb, slowOptions())

	const warningID = "finishing-before-rough:li-paint:li-drywall"

	v := c.Snapshot()
	require.Len(t, v.Warnings, 1)
	assert.Equal(t, warningID, v.Warnings[0].ID)
	assert.True(t, v.Warnings[0].CanDismiss)
	assert.InDelta(t, 500.0, v.Progress["li-frame"].ActualCost, 0.001)
	require.NotNil(t, v.Span)

	c.Dismiss(warningID)
	assert.Empty(t, c.Snapshot().Warnings)
}

func TestCoordinator_MovingTaskClearsWarning(t *testing.T) {
	tb := testbus.New(t)
	c := newTestCoordinator(t, newMemStore(siteDataset(t)), tb, slowOptions())

	require.Len(t, c.Snapshot().Warnings, 1)

	require.NoError(t, c.EndDrag("li-paint", d(t, "2024-01-06"), d(t, "2024-01-07")))

	v := c.Snapshot()
	assert.Empty(t, v.Warnings, "derived from local state before the write lands")
	assert.Equal(t, StateApplied, v.Edits["li-paint"])
}
