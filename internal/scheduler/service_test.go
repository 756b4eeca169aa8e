package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/buildsched/internal/core/config"
	"github.com/colonyops/buildsched/internal/core/eventbus/testbus"
)

func newScheduleService(t *testing.T, store *memStore) *ScheduleService {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.Schedule.Debounce = time.Hour

	tb := testbus.New(t)
	return NewScheduleService(store, store, tb.EventBus, &cfg)
}

func TestScheduleService_OpenReusesCoordinator(t *testing.T) {
	store := newMemStore(siteDataset(t))
	svc := newScheduleService(t, store)
	ctx := context.Background()

	c1, err := svc.Open(ctx, "p-site")
	require.NoError(t, err)
	c2, err := svc.Open(ctx, "p-site")
	require.NoError(t, err)

	assert.Same(t, c1, c2)
	assert.Equal(t, 1, store.loads)

	got, ok := svc.Get("p-site")
	require.True(t, ok)
	assert.Same(t, c1, got)

	_, ok = svc.Get("p-other")
	assert.False(t, ok)
}

func TestScheduleService_OpenFailureReturnsCoordinator(t *testing.T) {
	store := newMemStore(siteDataset(t))
	store.setLoadErr(errors.New("down"))
	svc := newScheduleService(t, store)

	c, err := svc.Open(context.Background(), "p-site")
	require.Error(t, err)
	require.NotNil(t, c)
	assert.False(t, c.Snapshot().Loaded)

	store.setLoadErr(nil)
	require.NoError(t, c.Reload(context.Background()))
	assert.Len(t, c.Tasks(), 4)
}

func TestScheduleService_CloseFlushesPendingEdits(t *testing.T) {
	store := newMemStore(siteDataset(t))
	svc := newScheduleService(t, store)
	ctx := context.Background()

	c, err := svc.Open(ctx, "p-site")
	require.NoError(t, err)
	require.NoError(t, c.Move("li-frame", 2))
	assert.Empty(t, store.savesFor("li-frame"))

	require.NoError(t, svc.Close(ctx))
	require.Len(t, store.savesFor("li-frame"), 1)

	_, ok := svc.Get("p-site")
	assert.False(t, ok)
}
