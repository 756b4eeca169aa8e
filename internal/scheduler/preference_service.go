package scheduler

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/colonyops/buildsched/internal/core/eventbus"
	"github.com/colonyops/buildsched/internal/core/kv"
	"github.com/colonyops/buildsched/internal/core/logging"
	"github.com/colonyops/buildsched/internal/core/schedule"
)

// Direction is a manual reordering step.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// PreferenceService persists per-project display preferences. Storage
// failures never reach the caller: reads fall back to the natural order and
// failed writes are logged.
type PreferenceService struct {
	store *kv.TypedKV[schedule.Preferences]
	bus   *eventbus.EventBus
	log   zerolog.Logger
}

// NewPreferenceService creates a PreferenceService over store.
func NewPreferenceService(store kv.KV, bus *eventbus.EventBus) *PreferenceService {
	return &PreferenceService{
		store: kv.Scoped[schedule.Preferences](store, "prefs"),
		bus:   bus,
		log:   logging.Component("preferences"),
	}
}

// Load returns the stored preferences of projectID fitted to tasks.
func (s *PreferenceService) Load(ctx context.Context, projectID string, tasks []schedule.Task) schedule.Preferences {
	fallback := schedule.DefaultPreferences(tasks)

	prefs, err := s.store.GetOr(ctx, projectID, fallback)
	if err != nil {
		s.log.Warn().Ctx(logging.WithProjectID(ctx, projectID)).Err(err).Msg("reading display preferences, using natural order")
		return fallback
	}
	if !prefs.Mode.IsValid() {
		prefs.Mode = schedule.SortNatural
	}
	prefs.Order = schedule.ReconcileOrder(prefs.Order, tasks)
	return prefs
}

// Save stores prefs for projectID and announces the change.
func (s *PreferenceService) Save(ctx context.Context, projectID string, prefs schedule.Preferences) {
	if err := s.store.Set(ctx, projectID, prefs); err != nil {
		s.log.Warn().Ctx(logging.WithProjectID(ctx, projectID)).Err(err).Msg("saving display preferences")
	}
	s.bus.PublishOrderChanged(eventbus.OrderChangedPayload{
		ProjectID:   projectID,
		Preferences: prefs,
	})
}

// SetMode switches the display mode of projectID.
func (s *PreferenceService) SetMode(ctx context.Context, projectID string, tasks []schedule.Task, mode schedule.SortMode) (schedule.Preferences, error) {
	if !mode.IsValid() {
		return schedule.Preferences{}, fmt.Errorf("unknown sort mode %q", mode)
	}

	prefs := s.Load(ctx, projectID, tasks)
	prefs.Mode = mode
	s.Save(ctx, projectID, prefs)
	return prefs, nil
}

// CycleMode advances to the next display mode.
func (s *PreferenceService) CycleMode(ctx context.Context, projectID string, tasks []schedule.Task) schedule.Preferences {
	prefs := s.Load(ctx, projectID, tasks)
	prefs.Mode = prefs.Mode.Next()
	s.Save(ctx, projectID, prefs)
	return prefs
}

// Move shifts taskID one step in the manual order. When another mode is
// active, the order currently on screen becomes the manual order first so
// the step is relative to what the user sees.
func (s *PreferenceService) Move(ctx context.Context, projectID string, tasks []schedule.Task, taskID string, dir Direction) (schedule.Preferences, error) {
	prefs := s.Load(ctx, projectID, tasks)

	if prefs.Mode != schedule.SortManual {
		shown := schedule.ApplyOrder(tasks, prefs)
		prefs.Order = make([]string, 0, len(shown))
		for _, t := range shown {
			prefs.Order = append(prefs.Order, t.ID)
		}
		prefs.Mode = schedule.SortManual
	}

	var (
		order []string
		err   error
	)
	switch dir {
	case DirectionUp:
		order, err = schedule.MoveUp(prefs.Order, taskID)
	case DirectionDown:
		order, err = schedule.MoveDown(prefs.Order, taskID)
	default:
		return prefs, fmt.Errorf("unknown direction %q", dir)
	}
	if err != nil {
		return prefs, err
	}

	prefs.Order = order
	s.Save(ctx, projectID, prefs)
	return prefs, nil
}
