package eventbus

import (
	"fmt"

	"github.com/colonyops/buildsched/internal/core/notify"
)

// NotificationRouter maps schedule events to user-facing notifications.
type NotificationRouter struct {
	bus *EventBus
}

// NewNotificationRouter constructs a router for event-to-notification mappings.
func NewNotificationRouter(bus *EventBus) *NotificationRouter {
	return &NotificationRouter{bus: bus}
}

// Register subscribes all supported event mappings.
func (r *NotificationRouter) Register() {
	if r == nil || r.bus == nil {
		return
	}

	r.bus.SubscribeTaskPersisted(func(p TaskPersistedPayload) {
		r.notifyf(notify.LevelInfo, "%q saved", p.TaskName)
	})

	r.bus.SubscribeTaskPersistFailed(func(p TaskPersistFailedPayload) {
		r.notifyf(notify.LevelError, "could not save %q, schedule reloaded: %s", p.TaskName, p.Error)
	})

	r.bus.SubscribeScheduleLoadFailed(func(p ScheduleLoadFailedPayload) {
		r.notifyf(notify.LevelError, "could not load schedule for %s: %s", p.ProjectID, p.Error)
	})

	r.bus.SubscribeScheduleRolledBack(func(p ScheduleRolledBackPayload) {
		if p.Replayed > 0 {
			r.notifyf(notify.LevelWarning, "%d pending edit(s) re-applied after reload", p.Replayed)
		}
	})
}

func (r *NotificationRouter) notifyf(level notify.Level, format string, args ...any) {
	r.bus.PublishNotificationPublished(NotificationPublishedPayload{
		Level:   level,
		Message: fmt.Sprintf(format, args...),
	})
}
