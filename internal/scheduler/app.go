package scheduler

import (
	"context"

	"github.com/colonyops/buildsched/internal/core/config"
	"github.com/colonyops/buildsched/internal/core/eventbus"
	"github.com/colonyops/buildsched/internal/core/notify"
	"github.com/colonyops/buildsched/internal/data/db"
	"github.com/colonyops/buildsched/internal/data/stores"
)

// App is the central entry point for schedule operations. Commands, the
// HTTP server and the TUI consume App instead of wiring stores themselves.
type App struct {
	Schedules   *ScheduleService
	Preferences *PreferenceService
	Recent      *RecentProjects

	Projects *stores.ProjectStore
	KV       *stores.KVStore
	Notices  *notify.Center
	Bus      *eventbus.EventBus
	Config   *config.Config
	DB       *db.DB
}

// NewApp constructs an App from explicit dependencies. Schedule events are
// routed to the notification center through the bus, so the bus must be
// started for notices to appear.
func NewApp(cfg *config.Config, database *db.DB, bus *eventbus.EventBus) *App {
	projects := stores.NewProjectStore(database)
	kvStore := stores.NewKVStore(database)
	notices := notify.NewCenter(stores.NewNotifyStore(database), cfg.Schedule.ToastDuration)

	eventbus.NewNotificationRouter(bus).Register()
	bus.SubscribeNotificationPublished(func(p eventbus.NotificationPublishedPayload) {
		notices.Publish(context.Background(), notify.Notification{Level: p.Level, Message: p.Message})
	})

	return &App{
		Schedules:   NewScheduleService(projects, projects, bus, cfg),
		Preferences: NewPreferenceService(kvStore, bus),
		Recent:      NewRecentProjects(kvStore, cfg.TUI.RecentTTL),
		Projects:    projects,
		KV:          kvStore,
		Notices:     notices,
		Bus:         bus,
		Config:      cfg,
		DB:          database,
	}
}
