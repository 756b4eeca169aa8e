package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/colonyops/buildsched/internal/profiler"
)

// startProfiler starts the pprof listener when addr is set. The returned
// stop function is always safe to call.
func startProfiler(ctx context.Context, addr string) (func(), error) {
	if addr == "" {
		return func() {}, nil
	}

	srv := profiler.New(addr)
	if err := srv.Start(ctx); err != nil {
		return func() {}, fmt.Errorf("failed to start profiler: %w", err)
	}
	log.Info().
		Str("url", fmt.Sprintf("http://%s/debug/pprof/", srv.Addr())).
		Msg("profiler endpoint available")

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("failed to shutdown profiler server")
		}
	}, nil
}
