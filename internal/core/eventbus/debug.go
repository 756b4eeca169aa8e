package eventbus

import (
	"fmt"

	"github.com/rs/zerolog"
)

// RegisterDebugLogger registers bus hooks that log event activity: every
// publish at debug level, drops as warnings, subscriber panics as errors.
func RegisterDebugLogger(bus *EventBus, logger zerolog.Logger) {
	bus.OnPublish(func(event Event, payload any) {
		e := logger.Debug().Str("event", string(event))
		switch p := payload.(type) {
		case TaskAppliedPayload:
			e = e.Str("edit_id", p.EditID).Str("task_id", p.Task.ID)
		case TaskPersistedPayload:
			e = e.Str("edit_id", p.EditID).Str("task_id", p.TaskID)
		case TaskPersistFailedPayload:
			e = e.Str("edit_id", p.EditID).Str("task_id", p.TaskID)
		}
		e.Msg("event fired")
	})

	bus.OnDrop(func(event Event, _ any) {
		logger.Warn().Str("event", string(event)).Msg("event dropped: buffer full")
	})

	bus.OnPanic(func(event Event, _ any, recovered any) {
		logger.Error().
			Str("event", string(event)).
			Str("panic", fmt.Sprint(recovered)).
			Msg("subscriber panicked")
	})
}
