package scheduler

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/colonyops/buildsched/internal/core/config"
	"github.com/colonyops/buildsched/internal/core/eventbus"
	"github.com/colonyops/buildsched/internal/core/logging"
	"github.com/colonyops/buildsched/internal/core/schedule"
)

// ScheduleService hands out one Coordinator per project.
type ScheduleService struct {
	source    schedule.Source
	persister schedule.Persister
	bus       *eventbus.EventBus
	opts      Options
	log       zerolog.Logger

	mu           sync.Mutex
	coordinators map[string]*Coordinator
}

// NewScheduleService creates a ScheduleService whose coordinators use the
// timings and trade rules from cfg.
func NewScheduleService(source schedule.Source, persister schedule.Persister, bus *eventbus.EventBus, cfg *config.Config) *ScheduleService {
	return &ScheduleService{
		source:    source,
		persister: persister,
		bus:       bus,
		opts: Options{
			Debounce:         cfg.Schedule.Debounce,
			InteractionGrace: cfg.Schedule.InteractionGrace,
			Builder:          schedule.NewBuilder(schedule.WithDefaultDuration(cfg.Schedule.DefaultDurationDays)),
			Rules:            schedule.DefaultRules(cfg.Trades),
		},
		log:          logging.Component("schedule-service"),
		coordinators: make(map[string]*Coordinator),
	}
}

// Open returns the coordinator of projectID, loading it on first use. A
// failed first load still returns the coordinator alongside the error so the
// caller can offer a retry through Reload.
func (s *ScheduleService) Open(ctx context.Context, projectID string) (*Coordinator, error) {
	s.mu.Lock()
	c, ok := s.coordinators[projectID]
	if !ok {
		c = NewCoordinator(projectID, s.source, s.persister, s.bus, s.opts)
		s.coordinators[projectID] = c
	}
	s.mu.Unlock()

	if ok {
		return c, nil
	}

	s.log.Debug().Str("project_id", projectID).Msg("opening schedule")
	return c, c.Reload(ctx)
}

// Get returns an already opened coordinator.
func (s *ScheduleService) Get(projectID string) (*Coordinator, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.coordinators[projectID]
	return c, ok
}

// FlushAll writes every pending edit of every open project.
func (s *ScheduleService) FlushAll(ctx context.Context) error {
	s.mu.Lock()
	open := make([]*Coordinator, 0, len(s.coordinators))
	for _, c := range s.coordinators {
		open = append(open, c)
	}
	s.mu.Unlock()

	var errs []error
	for _, c := range open {
		if err := c.Flush(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close flushes pending edits and releases every coordinator.
func (s *ScheduleService) Close(ctx context.Context) error {
	err := s.FlushAll(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, c := range s.coordinators {
		c.Close()
		delete(s.coordinators, id)
	}
	return err
}
