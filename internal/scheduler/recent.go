package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/buildsched/internal/core/kv"
	"github.com/colonyops/buildsched/internal/core/logging"
)

const recentKey = "project"

// RecentProjects remembers the last project opened on the board so a bare
// `buildsched` can reopen it. Entries expire after ttl.
type RecentProjects struct {
	store *kv.TypedKV[string]
	ttl   time.Duration
	log   zerolog.Logger
}

// NewRecentProjects creates a RecentProjects over store.
func NewRecentProjects(store kv.KV, ttl time.Duration) *RecentProjects {
	return &RecentProjects{
		store: kv.Scoped[string](store, "recent"),
		ttl:   ttl,
		log:   logging.Component("recent"),
	}
}

// Remember records projectID as the most recently opened project.
func (r *RecentProjects) Remember(ctx context.Context, projectID string) {
	if err := r.store.SetTTL(ctx, recentKey, projectID, r.ttl); err != nil {
		r.log.Warn().Ctx(logging.WithProjectID(ctx, projectID)).Err(err).Msg("remembering recent project")
	}
}

// Last returns the most recently opened project, if one is still remembered.
func (r *RecentProjects) Last(ctx context.Context) (string, bool) {
	ok, err := r.store.Has(ctx, recentKey)
	if err != nil {
		r.log.Warn().Ctx(ctx).Err(err).Msg("checking recent project")
		return "", false
	}
	if !ok {
		return "", false
	}

	id, err := r.store.Get(ctx, recentKey)
	if err != nil {
		r.log.Warn().Ctx(ctx).Err(err).Msg("reading recent project")
		return "", false
	}
	return id, id != ""
}

// Forget clears the remembered project.
func (r *RecentProjects) Forget(ctx context.Context) {
	if err := r.store.Delete(ctx, recentKey); err != nil {
		r.log.Warn().Ctx(ctx).Err(err).Msg("forgetting recent project")
	}
}
