// Package sweep runs periodic housekeeping over the local database.
package sweep

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// ExpiringStore deletes entries whose TTL has passed.
type ExpiringStore interface {
	SweepExpired(ctx context.Context) (int64, error)
}

// PrunableStore deletes records older than a cutoff.
type PrunableStore interface {
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// Options configures Start.
type Options struct {
	Interval time.Duration
	// Retention is how long notices are kept. Zero keeps them forever.
	Retention time.Duration
}

// Start periodically sweeps expired KV entries and prunes old notices. It
// blocks until the context is cancelled.
func Start(ctx context.Context, kv ExpiringStore, notices PrunableStore, opts Options) {
	ticker := time.NewTicker(opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			Once(ctx, kv, notices, opts.Retention)
		}
	}
}

// Once runs a single sweep.
func Once(ctx context.Context, kv ExpiringStore, notices PrunableStore, retention time.Duration) {
	if n, err := kv.SweepExpired(ctx); err != nil {
		log.Debug().Err(err).Msg("kv sweep failed")
	} else if n > 0 {
		log.Debug().Int64("removed", n).Msg("kv sweep")
	}

	if notices == nil || retention <= 0 {
		return
	}
	if n, err := notices.Prune(ctx, time.Now().Add(-retention)); err != nil {
		log.Debug().Err(err).Msg("notification prune failed")
	} else if n > 0 {
		log.Debug().Int64("removed", n).Msg("notification prune")
	}
}
