// Package scheduler coordinates interactive schedule edits: optimistic local
// application, debounced persistence, and rollback by reloading from the
// source of truth.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/colonyops/buildsched/internal/core/eventbus"
	"github.com/colonyops/buildsched/internal/core/logging"
	"github.com/colonyops/buildsched/internal/core/schedule"
)

// EditState is where a task's most recent edit is in its life cycle.
type EditState string

const (
	StateIdle       EditState = "idle"
	StateEditing    EditState = "editing"
	StateApplied    EditState = "optimistically_applied"
	StatePersisting EditState = "persisting"
	StateConfirmed  EditState = "confirmed"
	StateRolledBack EditState = "rolled_back"
)

// ErrNotLoaded is returned by edits made before the first successful load.
var ErrNotLoaded = errors.New("schedule not loaded")

// ErrRolledBack is returned by SaveTask when its edit was discarded because
// a write covering it failed.
var ErrRolledBack = errors.New("edit rolled back")

// Options tunes a Coordinator. Zero values fall back to the defaults.
type Options struct {
	Debounce         time.Duration
	InteractionGrace time.Duration
	Builder          *schedule.Builder
	Rules            []schedule.Rule
}

const defaultDelay = 300 * time.Millisecond

// edit tracks the local edits of one task. generation counts local applies;
// settled is the highest generation that is no longer waiting on storage,
// either because it was confirmed or because it was rolled back. stored is
// the highest confirmed generation, failed the highest rolled back one and
// failure its cause.
type edit struct {
	state      EditState
	generation uint64
	settled    uint64
	stored     uint64
	failed     uint64
	failure    error
	value      schedule.Task
	editID     string
}

func (e *edit) hasPending() bool {
	return e.generation > e.settled
}

// Coordinator owns the interactive state of one project's schedule. Local
// state is what surfaces render; it runs ahead of storage while writes are
// pending.
type Coordinator struct {
	projectID string
	source    schedule.Source
	persister schedule.Persister
	bus       *eventbus.EventBus
	builder   *schedule.Builder
	rules     []schedule.Rule
	grace     time.Duration
	debouncer *Debouncer[string]
	dismissed *schedule.Dismissals
	baseCtx   context.Context
	log       zerolog.Logger

	mu          sync.Mutex
	loaded      bool
	loadErr     error
	project     schedule.Project
	confirmed   []schedule.Task
	local       []schedule.Task
	entries     []schedule.CostEntry
	edits       map[string]*edit
	dragging    string
	interacting bool
	graceTimer  *time.Timer

	writeMu    sync.Mutex
	writeLocks map[string]*sync.Mutex
}

// NewCoordinator creates a coordinator for projectID. Call Reload before
// editing.
func NewCoordinator(projectID string, source schedule.Source, persister schedule.Persister, bus *eventbus.EventBus, opts Options) *Coordinator {
	if opts.Debounce <= 0 {
		opts.Debounce = defaultDelay
	}
	if opts.InteractionGrace <= 0 {
		opts.InteractionGrace = defaultDelay
	}
	if opts.Builder == nil {
		opts.Builder = schedule.NewBuilder()
	}
	if opts.Rules == nil {
		opts.Rules = schedule.DefaultRules(schedule.DefaultTradeRules())
	}

	return &Coordinator{
		projectID:  projectID,
		source:     source,
		persister:  persister,
		bus:        bus,
		builder:    opts.Builder,
		rules:      opts.Rules,
		grace:      opts.InteractionGrace,
		debouncer:  NewDebouncer[string](opts.Debounce),
		dismissed:  schedule.NewDismissals(),
		baseCtx:    logging.WithProjectID(context.Background(), projectID),
		log:        logging.Component("coordinator"),
		edits:      make(map[string]*edit),
		writeLocks: make(map[string]*sync.Mutex),
	}
}

// ProjectID returns the project this coordinator manages.
func (c *Coordinator) ProjectID() string {
	return c.projectID
}

// Reload reads the full task set from the source. On failure the last
// known good state is kept and the error is returned. Edits that are still
// waiting on storage are re-applied on top of the fresh state.
func (c *Coordinator) Reload(ctx context.Context) error {
	_, err := c.reload(ctx)
	return err
}

func (c *Coordinator) reload(ctx context.Context) (int, error) {
	ctx = logging.WithProjectID(ctx, c.projectID)

	ds, err := c.source.LoadDataset(ctx, c.projectID)
	if err != nil {
		c.mu.Lock()
		c.loadErr = err
		c.mu.Unlock()

		c.log.Warn().Ctx(ctx).Err(err).Msg("schedule load failed, keeping last known state")
		c.bus.PublishScheduleLoadFailed(eventbus.ScheduleLoadFailedPayload{
			ProjectID: c.projectID,
			Error:     err.Error(),
		})
		return 0, fmt.Errorf("reload %s: %w", c.projectID, err)
	}

	tasks := c.builder.Build(ds)

	c.mu.Lock()
	c.project = ds.Project
	c.entries = ds.Entries
	c.confirmed = tasks
	c.loaded = true
	c.loadErr = nil
	replayed := c.rebuildLocalLocked()
	c.mu.Unlock()

	c.log.Debug().Ctx(ctx).Int("tasks", len(tasks)).Int("replayed", replayed).Msg("schedule loaded")
	c.bus.PublishScheduleLoaded(eventbus.ScheduleLoadedPayload{
		ProjectID: c.projectID,
		TaskCount: len(tasks),
	})
	return replayed, nil
}

// rebuildLocalLocked derives local state from the confirmed tasks plus every
// edit still waiting on storage, and returns how many edits were re-applied.
// Edits whose task disappeared from the source are dropped.
func (c *Coordinator) rebuildLocalLocked() int {
	local := schedule.CloneTasks(c.confirmed)
	replayed := 0
	for id, e := range c.edits {
		if !e.hasPending() {
			continue
		}
		i := schedule.FindTask(local, id)
		if i < 0 {
			e.settled = e.generation
			e.state = StateRolledBack
			continue
		}
		local[i] = e.value.Clone()
		replayed++
	}
	c.local = local
	return replayed
}

// BeginDrag marks the start of a drag gesture on taskID. Until the grace
// delay after the matching EndDrag, ShouldOpenDetail reports false.
func (c *Coordinator) BeginDrag(taskID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if schedule.FindTask(c.local, taskID) < 0 {
		return fmt.Errorf("begin drag: %w: %s", schedule.ErrTaskNotFound, taskID)
	}

	if c.graceTimer != nil {
		c.graceTimer.Stop()
		c.graceTimer = nil
	}
	c.dragging = taskID
	c.interacting = true
	c.editLocked(taskID).state = StateEditing
	return nil
}

// CancelDrag ends a gesture without changing any dates.
func (c *Coordinator) CancelDrag(taskID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.edits[taskID]; ok && e.state == StateEditing {
		e.state = c.restingStateLocked(e)
	}
	c.endInteractionLocked()
}

// EndDrag applies the dropped dates to local state at once and schedules the
// write. Writes to the same task within the debounce window coalesce into
// one call carrying the latest dates.
func (c *Coordinator) EndDrag(taskID string, start, end time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.endInteractionLocked()

	if !c.loaded {
		return ErrNotLoaded
	}
	i := schedule.FindTask(c.local, taskID)
	if i < 0 {
		return fmt.Errorf("end drag: %w: %s", schedule.ErrTaskNotFound, taskID)
	}

	t := c.local[i].Clone()
	if err := t.Reschedule(start, end); err != nil {
		e := c.editLocked(taskID)
		e.state = c.restingStateLocked(e)
		return err
	}

	editID := c.applyLocked(i, t)
	c.debouncer.Trigger(taskID, func() {
		_ = c.persist(logging.WithEditID(c.baseCtx, editID), taskID)
	})
	return nil
}

// Move shifts a task by days without a drag gesture. It is debounced like
// a drag.
func (c *Coordinator) Move(taskID string, days int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.loaded {
		return ErrNotLoaded
	}
	i := schedule.FindTask(c.local, taskID)
	if i < 0 {
		return fmt.Errorf("move: %w: %s", schedule.ErrTaskNotFound, taskID)
	}

	t := c.local[i].Clone()
	t.Shift(days)

	editID := c.applyLocked(i, t)
	c.debouncer.Trigger(taskID, func() {
		_ = c.persist(logging.WithEditID(c.baseCtx, editID), taskID)
	})
	return nil
}

// ShouldOpenDetail reports whether a click on taskID may open its detail
// view. It is false during a drag and for the grace delay after one, so the
// click that ends a gesture is swallowed.
func (c *Coordinator) ShouldOpenDetail(taskID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.interacting && schedule.FindTask(c.local, taskID) >= 0
}

// Loaded reports whether a load has ever succeeded.
func (c *Coordinator) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// Interacting reports whether a gesture or its grace delay is in progress.
func (c *Coordinator) Interacting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.interacting
}

// TaskEdit is an explicit full edit of one task. Nil fields are left
// unchanged.
type TaskEdit struct {
	TaskID       string                 `json:"task_id"`
	Start        *time.Time             `json:"start,omitempty"`
	End          *time.Time             `json:"end,omitempty"`
	Phases       *[]schedule.Phase      `json:"phases,omitempty"`
	Dependencies *[]schedule.Dependency `json:"dependencies,omitempty"`
	Completed    *bool                  `json:"completed,omitempty"`
	Notes        *string                `json:"notes,omitempty"`
	IsMilestone  *bool                  `json:"is_milestone,omitempty"`
}

// apply produces the edited copy of t.
func (e TaskEdit) apply(t schedule.Task) (schedule.Task, error) {
	t = t.Clone()

	if e.Phases != nil {
		t.ClearPhases()
		for _, p := range *e.Phases {
			if err := t.AddPhase(p); err != nil {
				return t, err
			}
		}
	}

	if e.Start != nil || e.End != nil {
		start, end := t.Start, t.End
		if e.Start != nil {
			start = *e.Start
		}
		if e.End != nil {
			end = *e.End
		}
		if err := t.Reschedule(start, end); err != nil {
			return t, err
		}
	}

	if e.Dependencies != nil {
		t.SetDependencies(*e.Dependencies)
	}
	if e.Completed != nil {
		t.SetCompleted(*e.Completed)
	}
	if e.Notes != nil {
		t.Notes = *e.Notes
	}
	if e.IsMilestone != nil {
		t.IsMilestone = *e.IsMilestone
	}

	t.Normalize()
	return t, nil
}

// SaveTask applies an explicit edit locally and persists it before
// returning. Any debounced write pending for the task is superseded.
func (c *Coordinator) SaveTask(ctx context.Context, te TaskEdit) error {
	c.mu.Lock()
	if !c.loaded {
		c.mu.Unlock()
		return ErrNotLoaded
	}
	i := schedule.FindTask(c.local, te.TaskID)
	if i < 0 {
		c.mu.Unlock()
		return fmt.Errorf("save task: %w: %s", schedule.ErrTaskNotFound, te.TaskID)
	}

	t, err := te.apply(c.local[i])
	if err != nil {
		c.mu.Unlock()
		return fmt.Errorf("save task %s: %w", te.TaskID, err)
	}

	c.debouncer.Cancel(te.TaskID)
	editID := c.applyLocked(i, t)
	e := c.edits[te.TaskID]
	gen := e.generation
	c.mu.Unlock()

	// A debounced write that had already fired may carry this generation
	// to storage first; its outcome is this edit's outcome.
	if err := c.persist(logging.WithEditID(ctx, editID), te.TaskID); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if e.stored < gen && e.failed >= gen {
		return fmt.Errorf("save task %s: %w: %w", te.TaskID, ErrRolledBack, e.failure)
	}
	return nil
}

// applyLocked writes t into local state as a new generation and announces
// it. It returns the edit id.
func (c *Coordinator) applyLocked(i int, t schedule.Task) string {
	// the dependency labels follow the current names of their targets
	for j, d := range t.Dependencies {
		if k := schedule.FindTask(c.local, d.TaskID); k >= 0 {
			t.Dependencies[j].TaskName = c.local[k].Name
			t.Dependencies[j].TaskType = c.local[k].Source
		}
	}

	c.local[i] = t

	e := c.editLocked(t.ID)
	e.generation++
	e.value = t.Clone()
	e.state = StateApplied
	e.editID = uuid.NewString()

	c.bus.PublishTaskApplied(eventbus.TaskAppliedPayload{
		ProjectID: c.projectID,
		EditID:    e.editID,
		Task:      t.Clone(),
	})
	return e.editID
}

func (c *Coordinator) editLocked(taskID string) *edit {
	e, ok := c.edits[taskID]
	if !ok {
		e = &edit{state: StateIdle}
		c.edits[taskID] = e
	}
	return e
}

// restingStateLocked is the state an edit falls back to when a gesture ends
// without a change.
func (c *Coordinator) restingStateLocked(e *edit) EditState {
	switch {
	case e.hasPending():
		return StateApplied
	case e.generation == 0:
		return StateIdle
	default:
		return StateConfirmed
	}
}

func (c *Coordinator) endInteractionLocked() {
	c.dragging = ""
	if c.graceTimer != nil {
		c.graceTimer.Stop()
	}
	c.graceTimer = time.AfterFunc(c.grace, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.dragging == "" {
			c.interacting = false
			c.graceTimer = nil
		}
	})
}

func (c *Coordinator) taskLock(taskID string) *sync.Mutex {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	m, ok := c.writeLocks[taskID]
	if !ok {
		m = &sync.Mutex{}
		c.writeLocks[taskID] = m
	}
	return m
}

// persist writes the latest local value of taskID. Writes to one task are
// serialized; writes to different tasks run concurrently.
func (c *Coordinator) persist(ctx context.Context, taskID string) error {
	lock := c.taskLock(taskID)
	lock.Lock()
	defer lock.Unlock()

	c.mu.Lock()
	e, ok := c.edits[taskID]
	if !ok || !e.hasPending() {
		c.mu.Unlock()
		return nil
	}
	gen := e.generation
	t := e.value.Clone()
	editID := e.editID
	e.state = StatePersisting
	c.mu.Unlock()

	ctx = logging.WithEditID(logging.WithProjectID(ctx, c.projectID), editID)

	update, err := schedule.NewTaskUpdate(t)
	if err == nil {
		err = c.persister.SaveSchedule(ctx, update)
	}
	if err != nil {
		c.rollback(ctx, t, gen, editID, err)
		return fmt.Errorf("persist %s: %w", taskID, err)
	}

	c.mu.Lock()
	e.settled = max(e.settled, gen)
	e.stored = max(e.stored, gen)
	// a newer local edit keeps its own state until it is written
	if e.generation == gen {
		e.state = StateConfirmed
	}
	if i := schedule.FindTask(c.confirmed, taskID); i >= 0 {
		c.confirmed[i] = t
	}
	c.mu.Unlock()

	c.log.Debug().Ctx(ctx).Str("task_id", taskID).Msg("task persisted")
	c.bus.PublishTaskPersisted(eventbus.TaskPersistedPayload{
		ProjectID: c.projectID,
		EditID:    editID,
		TaskID:    taskID,
		TaskName:  t.Name,
	})
	return nil
}

// rollback discards the failed edit by re-reading the source. Pending edits
// to other tasks, and newer edits to this one, are re-applied on top. If the
// reload fails too, local state is rebuilt from the last confirmed tasks.
func (c *Coordinator) rollback(ctx context.Context, t schedule.Task, gen uint64, editID string, cause error) {
	c.mu.Lock()
	if e, ok := c.edits[t.ID]; ok {
		e.settled = max(e.settled, gen)
		if gen >= e.failed {
			e.failed, e.failure = gen, cause
		}
		if e.generation == gen {
			e.state = StateRolledBack
		}
	}
	c.mu.Unlock()

	c.log.Error().Ctx(ctx).Err(cause).Str("task_id", t.ID).Msg("persist failed, rolling back")

	replayed, err := c.reload(ctx)
	if err != nil {
		c.mu.Lock()
		replayed = c.rebuildLocalLocked()
		c.mu.Unlock()
	}

	c.bus.PublishTaskPersistFailed(eventbus.TaskPersistFailedPayload{
		ProjectID: c.projectID,
		EditID:    editID,
		TaskID:    t.ID,
		TaskName:  t.Name,
		Error:     cause.Error(),
	})
	c.bus.PublishScheduleRolledBack(eventbus.ScheduleRolledBackPayload{
		ProjectID: c.projectID,
		TaskID:    t.ID,
		Replayed:  replayed,
	})
}

// Flush starts every debounced write now and waits for all of them.
func (c *Coordinator) Flush(ctx context.Context) error {
	c.debouncer.Flush()
	return c.debouncer.Wait(ctx)
}

// Close drops pending debounced writes and stops the grace timer. Call
// Flush first to keep them.
func (c *Coordinator) Close() {
	c.debouncer.Stop()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.graceTimer != nil {
		c.graceTimer.Stop()
		c.graceTimer = nil
	}
	c.interacting = false
}

// State returns the edit state of taskID.
func (c *Coordinator) State(taskID string) EditState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.edits[taskID]; ok {
		return e.state
	}
	return StateIdle
}

// Tasks returns a copy of the local task set in natural order.
func (c *Coordinator) Tasks() []schedule.Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	return schedule.CloneTasks(c.local)
}

// Task returns a copy of one local task.
func (c *Coordinator) Task(taskID string) (schedule.Task, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := schedule.FindTask(c.local, taskID)
	if i < 0 {
		return schedule.Task{}, false
	}
	return c.local[i].Clone(), true
}

// Dismiss hides a dismissible warning until the coordinator is recreated.
func (c *Coordinator) Dismiss(warningID string) {
	c.dismissed.Dismiss(warningID)
}

// View is a consistent snapshot of local state and everything derived from
// it.
type View struct {
	schedule.Analysis
	Project   schedule.Project     `json:"project"`
	Loaded    bool                 `json:"loaded"`
	LoadError string               `json:"load_error,omitempty"`
	Edits     map[string]EditState `json:"edits"`
}

// Snapshot derives progress, span, critical path and warnings from local
// state. Dismissed warnings are left out.
func (c *Coordinator) Snapshot() View {
	c.mu.Lock()
	tasks := schedule.CloneTasks(c.local)
	entries := slices.Clone(c.entries)
	v := View{
		Project: c.project,
		Loaded:  c.loaded,
		Edits:   make(map[string]EditState, len(c.edits)),
	}
	if c.loadErr != nil {
		v.LoadError = c.loadErr.Error()
	}
	for id, e := range c.edits {
		v.Edits[id] = e.state
	}
	c.mu.Unlock()

	v.Analysis = schedule.Analyze(tasks, entries, c.rules)
	v.Warnings = c.dismissed.Filter(v.Warnings)
	return v
}
