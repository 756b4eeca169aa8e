package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/colonyops/buildsched/internal/core/eventbus"
	"github.com/colonyops/buildsched/internal/core/logging"
	"github.com/colonyops/buildsched/internal/core/schedule"
	"github.com/colonyops/buildsched/internal/scheduler"
)

const quitFlushTimeout = 5 * time.Second

// Options configures the board.
type Options struct {
	ShowPhases bool
	ToastTTL   time.Duration
}

// Model is the Bubble Tea model of the schedule board.
type Model struct {
	app       *scheduler.App
	coord     *scheduler.Coordinator
	projectID string
	log       zerolog.Logger

	board    scheduler.Board
	loaded   bool
	loadedAt time.Time
	err      error
	status   string

	cursor     int
	detail     bool
	showPhases bool
	width      int
	height     int

	keys          keyMap
	help          help.Model
	toasts        *ToastController
	notifications *NotificationBuffer
	changes       *changeSignal
	quitting      bool
}

// New creates a board for projectID. The coordinator is opened here; a
// failed first load is shown on the board and can be retried with reload.
func New(ctx context.Context, app *scheduler.App, projectID string, opts Options) Model {
	coord, err := app.Schedules.Open(ctx, projectID)

	m := Model{
		app:           app,
		coord:         coord,
		projectID:     projectID,
		log:           logging.Component("tui"),
		err:           err,
		showPhases:    opts.ShowPhases,
		keys:          defaultKeyMap(),
		help:          help.New(),
		toasts:        NewToastController(opts.ToastTTL),
		notifications: NewNotificationBuffer(),
		changes:       newChangeSignal(),
		width:         100,
	}

	app.Notices.Subscribe(m.notifications.Push)
	app.Bus.SubscribeAll(func(_ eventbus.Event, payload any) {
		switch p := payload.(type) {
		case eventbus.TaskAppliedPayload:
			if p.ProjectID == projectID {
				m.changes.notify()
			}
		case eventbus.TaskPersistedPayload, eventbus.ScheduleRolledBackPayload,
			eventbus.ScheduleLoadedPayload, eventbus.ScheduleLoadFailedPayload,
			eventbus.OrderChangedPayload:
			m.changes.notify()
		}
	})

	return m
}

type boardMsg struct {
	board scheduler.Board
	err   error
}

type flushedMsg struct{}

type savedMsg struct {
	taskID string
	err    error
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.fetchCmd(),
		m.changes.wait(),
		m.notifications.WaitForSignal(),
	)
}

func (m Model) fetchCmd() tea.Cmd {
	return func() tea.Msg { return m.fetch() }
}

// fetch builds the board from coordinator state without reloading storage.
func (m Model) fetch() boardMsg {
	ctx := context.Background()
	if m.coord == nil || !m.coord.Loaded() {
		b, err := m.app.Board(ctx, m.projectID)
		return boardMsg{board: b, err: err}
	}

	v := m.coord.Snapshot()
	prefs := m.app.Preferences.Load(ctx, m.projectID, v.Tasks)
	v.Tasks = schedule.ApplyOrder(v.Tasks, prefs)

	var err error
	if v.LoadError != "" {
		err = fmt.Errorf("showing last loaded schedule: %s", v.LoadError)
	}
	return boardMsg{board: scheduler.Board{View: v, Preferences: prefs}, err: err}
}

func (m Model) reloadCmd() tea.Cmd {
	coord := m.coord
	return func() tea.Msg {
		if coord == nil {
			return m.fetch()
		}
		if err := coord.Reload(context.Background()); err != nil {
			msg := m.fetch()
			msg.err = err
			return msg
		}
		return m.fetch()
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case boardMsg:
		m.err = msg.err
		if msg.board.Loaded {
			m.board = msg.board
			m.loaded = true
			m.loadedAt = time.Now()
			if m.coord == nil {
				m.coord, _ = m.app.Schedules.Get(m.projectID)
			}
		}
		m.cursor = min(m.cursor, max(len(m.board.Tasks)-1, 0))
		return m, nil

	case scheduleChangedMsg:
		return m, tea.Batch(m.fetchCmd(), m.changes.wait())

	case drainNotificationsMsg:
		for _, n := range m.notifications.Drain() {
			m.toasts.Push(n)
		}
		cmds := []tea.Cmd{m.notifications.WaitForSignal()}
		if m.toasts.HasExpiring() && !m.toasts.Ticking() {
			m.toasts.SetTicking(true)
			cmds = append(cmds, scheduleToastTick())
		}
		return m, tea.Batch(cmds...)

	case toastTickMsg:
		m.toasts.Tick(toastTickInterval)
		if !m.toasts.HasExpiring() {
			m.toasts.SetTicking(false)
			return m, nil
		}
		return m, scheduleToastTick()

	case savedMsg:
		if msg.err != nil {
			m.log.Warn().Err(msg.err).Str("task_id", msg.taskID).Msg("save from board failed")
			m.status = fmt.Sprintf("save %s failed: %v", msg.taskID, msg.err)
		}
		return m, m.fetchCmd()

	case flushedMsg:
		return m, tea.Quit

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.quitting = true
		coord := m.coord
		return m, func() tea.Msg {
			if coord != nil {
				ctx, cancel := context.WithTimeout(context.Background(), quitFlushTimeout)
				defer cancel()
				_ = coord.Flush(ctx)
			}
			return flushedMsg{}
		}
	}

	if key.Matches(msg, m.keys.Reload) {
		m.status = "reloading"
		return m, m.reloadCmd()
	}

	if key.Matches(msg, m.keys.Help) {
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	if key.Matches(msg, m.keys.Close) {
		if m.detail {
			m.detail = false
		} else {
			m.toasts.Dismiss()
		}
		return m, nil
	}

	if !m.loaded || len(m.board.Tasks) == 0 {
		return m, nil
	}
	task := m.board.Tasks[m.cursor]
	m.status = ""

	switch {
	case key.Matches(msg, m.keys.Up):
		m.cursor = max(m.cursor-1, 0)
	case key.Matches(msg, m.keys.Down):
		m.cursor = min(m.cursor+1, len(m.board.Tasks)-1)
	case key.Matches(msg, m.keys.ShiftEarly):
		return m.reschedule(task, -1, -1)
	case key.Matches(msg, m.keys.ShiftLate):
		return m.reschedule(task, 1, 1)
	case key.Matches(msg, m.keys.WeekEarly):
		return m.reschedule(task, -7, -7)
	case key.Matches(msg, m.keys.WeekLate):
		return m.reschedule(task, 7, 7)
	case key.Matches(msg, m.keys.Shrink):
		return m.reschedule(task, 0, -1)
	case key.Matches(msg, m.keys.Extend):
		return m.reschedule(task, 0, 1)
	case key.Matches(msg, m.keys.OrderUp):
		return m.reorder(task, scheduler.DirectionUp)
	case key.Matches(msg, m.keys.OrderDown):
		return m.reorder(task, scheduler.DirectionDown)
	case key.Matches(msg, m.keys.CycleSort):
		prefs := m.app.Preferences.CycleMode(context.Background(), m.projectID, m.coord.Tasks())
		m.status = "sort: " + string(prefs.Mode)
		return m, m.fetchCmd()
	case key.Matches(msg, m.keys.Detail):
		if m.coord.ShouldOpenDetail(task.ID) {
			m.detail = !m.detail
		}
	case key.Matches(msg, m.keys.Complete):
		done := !task.IsCompleted()
		coord := m.coord
		return m, func() tea.Msg {
			err := coord.SaveTask(context.Background(), scheduler.TaskEdit{TaskID: task.ID, Completed: &done})
			return savedMsg{taskID: task.ID, err: err}
		}
	case key.Matches(msg, m.keys.Dismiss):
		for _, w := range m.board.Warnings {
			if w.TaskID == task.ID && w.CanDismiss {
				m.coord.Dismiss(w.ID)
			}
		}
		return m, m.fetchCmd()
	case key.Matches(msg, m.keys.TogglePhase):
		m.showPhases = !m.showPhases
	}
	return m, nil
}

// reschedule moves the selected task's start and end by the given days as
// one drag gesture.
func (m Model) reschedule(task schedule.Task, startDays, endDays int) (tea.Model, tea.Cmd) {
	start := schedule.AddDays(task.Start, startDays)
	end := schedule.AddDays(task.End, endDays)

	if err := m.coord.BeginDrag(task.ID); err != nil {
		m.status = err.Error()
		return m, nil
	}
	if err := m.coord.EndDrag(task.ID, start, end); err != nil {
		m.status = err.Error()
		return m, nil
	}
	m.detail = false
	return m, m.fetchCmd()
}

func (m Model) reorder(task schedule.Task, dir scheduler.Direction) (tea.Model, tea.Cmd) {
	prefs, err := m.app.Preferences.Move(context.Background(), m.projectID, m.coord.Tasks(), task.ID, dir)
	if err != nil {
		m.status = err.Error()
		return m, nil
	}
	for i, id := range prefs.Order {
		if id == task.ID {
			m.cursor = i
		}
	}
	return m, m.fetchCmd()
}

// Run starts the board full screen and blocks until it exits.
func Run(ctx context.Context, app *scheduler.App, projectID string, opts Options) error {
	p := tea.NewProgram(New(ctx, app, projectID, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run board: %w", err)
	}
	return nil
}
