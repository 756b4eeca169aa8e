package eventbus_test

import (
	"testing"
	"time"

	"github.com/colonyops/buildsched/internal/core/eventbus"
	"github.com/colonyops/buildsched/internal/core/eventbus/testbus"
	"github.com/colonyops/buildsched/internal/core/notify"
	"github.com/stretchr/testify/assert"
)

func latestNotificationPayload(tb *testbus.Bus, t *testing.T) eventbus.NotificationPublishedPayload {
	t.Helper()
	return testbus.Last[eventbus.NotificationPublishedPayload](t, tb, eventbus.EventNotificationPublished)
}

func TestNotificationRouter_TaskPersisted(t *testing.T) {
	tb := testbus.New(t)
	eventbus.NewNotificationRouter(tb.EventBus).Register()

	tb.PublishTaskPersisted(eventbus.TaskPersistedPayload{TaskID: "li-1", TaskName: "Drywall Install"})
	p := latestNotificationPayload(tb, t)

	assert.Equal(t, notify.LevelInfo, p.Level)
	assert.Contains(t, p.Message, "Drywall Install")
}

func TestNotificationRouter_TaskPersistFailed(t *testing.T) {
	tb := testbus.New(t)
	eventbus.NewNotificationRouter(tb.EventBus).Register()

	tb.PublishTaskPersistFailed(eventbus.TaskPersistFailedPayload{TaskID: "li-1", TaskName: "Paint", Error: "disk full"})
	p := latestNotificationPayload(tb, t)

	assert.Equal(t, notify.LevelError, p.Level)
	assert.Contains(t, p.Message, "Paint")
	assert.Contains(t, p.Message, "disk full")
}

func TestNotificationRouter_ScheduleLoadFailed(t *testing.T) {
	tb := testbus.New(t)
	eventbus.NewNotificationRouter(tb.EventBus).Register()

	tb.PublishScheduleLoadFailed(eventbus.ScheduleLoadFailedPayload{ProjectID: "p-9", Error: "timeout"})
	p := latestNotificationPayload(tb, t)

	assert.Equal(t, notify.LevelError, p.Level)
	assert.Contains(t, p.Message, "p-9")
}

func TestNotificationRouter_RolledBackWithReplay(t *testing.T) {
	tb := testbus.New(t)
	eventbus.NewNotificationRouter(tb.EventBus).Register()

	tb.PublishScheduleRolledBack(eventbus.ScheduleRolledBackPayload{ProjectID: "p", TaskID: "a", Replayed: 2})
	p := latestNotificationPayload(tb, t)

	assert.Equal(t, notify.LevelWarning, p.Level)
	assert.Contains(t, p.Message, "2 pending")
}

func TestNotificationRouter_Quiet(t *testing.T) {
	tb := testbus.New(t)
	eventbus.NewNotificationRouter(tb.EventBus).Register()

	tb.PublishTaskApplied(eventbus.TaskAppliedPayload{ProjectID: "p"})
	tb.PublishScheduleLoaded(eventbus.ScheduleLoadedPayload{ProjectID: "p", TaskCount: 3})
	tb.PublishScheduleRolledBack(eventbus.ScheduleRolledBackPayload{ProjectID: "p", TaskID: "a"})

	tb.AssertNotPublished(t, eventbus.EventNotificationPublished, 100*time.Millisecond)
}
