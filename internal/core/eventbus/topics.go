package eventbus

// Typed publish/subscribe pairs, one per topic in Events.

func (bus *EventBus) PublishNotificationPublished(p NotificationPublishedPayload) {
	bus.send(EventNotificationPublished, p)
}

func (bus *EventBus) SubscribeNotificationPublished(fn func(NotificationPublishedPayload)) {
	bus.subscribe(EventNotificationPublished, func(p any) { fn(p.(NotificationPublishedPayload)) })
}

func (bus *EventBus) PublishOrderChanged(p OrderChangedPayload) {
	bus.send(EventOrderChanged, p)
}

func (bus *EventBus) SubscribeOrderChanged(fn func(OrderChangedPayload)) {
	bus.subscribe(EventOrderChanged, func(p any) { fn(p.(OrderChangedPayload)) })
}

func (bus *EventBus) PublishScheduleLoadFailed(p ScheduleLoadFailedPayload) {
	bus.send(EventScheduleLoadFailed, p)
}

func (bus *EventBus) SubscribeScheduleLoadFailed(fn func(ScheduleLoadFailedPayload)) {
	bus.subscribe(EventScheduleLoadFailed, func(p any) { fn(p.(ScheduleLoadFailedPayload)) })
}

func (bus *EventBus) PublishScheduleLoaded(p ScheduleLoadedPayload) {
	bus.send(EventScheduleLoaded, p)
}

func (bus *EventBus) SubscribeScheduleLoaded(fn func(ScheduleLoadedPayload)) {
	bus.subscribe(EventScheduleLoaded, func(p any) { fn(p.(ScheduleLoadedPayload)) })
}

func (bus *EventBus) PublishScheduleRolledBack(p ScheduleRolledBackPayload) {
	bus.send(EventScheduleRolledBack, p)
}

func (bus *EventBus) SubscribeScheduleRolledBack(fn func(ScheduleRolledBackPayload)) {
	bus.subscribe(EventScheduleRolledBack, func(p any) { fn(p.(ScheduleRolledBackPayload)) })
}

func (bus *EventBus) PublishTaskApplied(p TaskAppliedPayload) {
	bus.send(EventTaskApplied, p)
}

func (bus *EventBus) SubscribeTaskApplied(fn func(TaskAppliedPayload)) {
	bus.subscribe(EventTaskApplied, func(p any) { fn(p.(TaskAppliedPayload)) })
}

func (bus *EventBus) PublishTaskPersistFailed(p TaskPersistFailedPayload) {
	bus.send(EventTaskPersistFailed, p)
}

func (bus *EventBus) SubscribeTaskPersistFailed(fn func(TaskPersistFailedPayload)) {
	bus.subscribe(EventTaskPersistFailed, func(p any) { fn(p.(TaskPersistFailedPayload)) })
}

func (bus *EventBus) PublishTaskPersisted(p TaskPersistedPayload) {
	bus.send(EventTaskPersisted, p)
}

func (bus *EventBus) SubscribeTaskPersisted(fn func(TaskPersistedPayload)) {
	bus.subscribe(EventTaskPersisted, func(p any) { fn(p.(TaskPersistedPayload)) })
}
