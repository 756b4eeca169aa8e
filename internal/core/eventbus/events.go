// Package eventbus provides a typed publish/subscribe event bus that carries
// schedule lifecycle events from the reschedule coordinator to the surfaces
// (notifications, TUI, websocket stream).
package eventbus

import (
	"github.com/colonyops/buildsched/internal/core/notify"
	"github.com/colonyops/buildsched/internal/core/schedule"
)

// Event names a bus topic.
type Event string

// Keep list sorted A-Z
const (
	EventNotificationPublished Event = "notification.published"
	EventOrderChanged          Event = "order.changed"
	EventScheduleLoadFailed    Event = "schedule.load-failed"
	EventScheduleLoaded        Event = "schedule.loaded"
	EventScheduleRolledBack    Event = "schedule.rolled-back"
	EventTaskApplied           Event = "task.applied"
	EventTaskPersistFailed     Event = "task.persist-failed"
	EventTaskPersisted         Event = "task.persisted"
)

// Events lists every topic with a zero payload, for subscribers that record
// or forward everything.
var Events = map[Event]any{
	EventNotificationPublished: NotificationPublishedPayload{},
	EventOrderChanged:          OrderChangedPayload{},
	EventScheduleLoadFailed:    ScheduleLoadFailedPayload{},
	EventScheduleLoaded:        ScheduleLoadedPayload{},
	EventScheduleRolledBack:    ScheduleRolledBackPayload{},
	EventTaskApplied:           TaskAppliedPayload{},
	EventTaskPersistFailed:     TaskPersistFailedPayload{},
	EventTaskPersisted:         TaskPersistedPayload{},
}

// NotificationPublishedPayload is a user-facing notice.
type NotificationPublishedPayload struct {
	Level   notify.Level `json:"level"`
	Message string       `json:"message"`
}

// ScheduleLoadedPayload is emitted after a successful full read.
type ScheduleLoadedPayload struct {
	ProjectID string `json:"project_id"`
	TaskCount int    `json:"task_count"`
}

// ScheduleLoadFailedPayload is emitted when a full read fails. The previous
// schedule stays in place.
type ScheduleLoadFailedPayload struct {
	ProjectID string `json:"project_id"`
	Error     string `json:"error"`
}

// TaskAppliedPayload is emitted when an edit is applied to local state,
// before it is persisted.
type TaskAppliedPayload struct {
	ProjectID string        `json:"project_id"`
	EditID    string        `json:"edit_id"`
	Task      schedule.Task `json:"task"`
}

// TaskPersistedPayload is emitted when the store confirmed an edit.
type TaskPersistedPayload struct {
	ProjectID string `json:"project_id"`
	EditID    string `json:"edit_id"`
	TaskID    string `json:"task_id"`
	TaskName  string `json:"task_name"`
}

// TaskPersistFailedPayload is emitted when the store rejected an edit.
type TaskPersistFailedPayload struct {
	ProjectID string `json:"project_id"`
	EditID    string `json:"edit_id"`
	TaskID    string `json:"task_id"`
	TaskName  string `json:"task_name"`
	Error     string `json:"error"`
}

// ScheduleRolledBackPayload is emitted after a failed write was undone by
// reloading from the store. Replayed counts the pending edits to other tasks
// that were re-applied on top of the reloaded schedule.
type ScheduleRolledBackPayload struct {
	ProjectID string `json:"project_id"`
	TaskID    string `json:"task_id"`
	Replayed  int    `json:"replayed"`
}

// OrderChangedPayload is emitted when display preferences change.
type OrderChangedPayload struct {
	ProjectID   string               `json:"project_id"`
	Preferences schedule.Preferences `json:"preferences"`
}
