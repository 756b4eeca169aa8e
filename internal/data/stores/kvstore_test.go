package stores

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/colonyops/buildsched/internal/core/schedule"
	"github.com/colonyops/buildsched/internal/data/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClock struct{ t time.Time }

func (c *testClock) Now() time.Time          { return c.t }
func (c *testClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestKVStore(t *testing.T) (*KVStore, *testClock) {
	t.Helper()
	database, err := db.Open(t.TempDir(), db.DefaultOpenOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	clock := &testClock{t: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)}
	store := NewKVStore(database)
	store.now = clock.Now
	return store, clock
}

func TestKVStore_Preferences(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestKVStore(t)

	var got schedule.Preferences
	require.ErrorIs(t, store.Get(ctx, "prefs:p-kitchen", &got), sql.ErrNoRows)

	prefs := schedule.Preferences{Mode: schedule.SortManual, Order: []string{"li-paint", "li-drywall"}}
	require.NoError(t, store.Set(ctx, "prefs:p-kitchen", prefs))
	require.NoError(t, store.Get(ctx, "prefs:p-kitchen", &got))
	assert.Equal(t, prefs, got)

	prefs.Mode = schedule.SortStartDate
	require.NoError(t, store.Set(ctx, "prefs:p-kitchen", prefs))
	require.NoError(t, store.Get(ctx, "prefs:p-kitchen", &got))
	assert.Equal(t, schedule.SortStartDate, got.Mode)

	has, err := store.Has(ctx, "prefs:p-kitchen")
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, store.Delete(ctx, "prefs:p-kitchen"))
	require.NoError(t, store.Delete(ctx, "prefs:p-kitchen"), "deleting twice is fine")
	has, err = store.Has(ctx, "prefs:p-kitchen")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestKVStore_ListKeysSorted(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestKVStore(t)

	for _, k := range []string{"prefs:p-b", "prefs:p-a", "recent:project"} {
		require.NoError(t, store.Set(ctx, k, 1))
	}

	keys, err := store.ListKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"prefs:p-a", "prefs:p-b", "recent:project"}, keys)
}

func TestKVStore_GetRaw(t *testing.T) {
	ctx := context.Background()
	store, clock := newTestKVStore(t)

	require.NoError(t, store.Set(ctx, "prefs:p-kitchen", map[string]string{"mode": "manual"}))
	entry, err := store.GetRaw(ctx, "prefs:p-kitchen")
	require.NoError(t, err)
	assert.Equal(t, "prefs:p-kitchen", entry.Key)
	assert.JSONEq(t, `{"mode":"manual"}`, string(entry.Value))
	assert.Nil(t, entry.ExpiresAt)
	assert.True(t, entry.UpdatedAt.Equal(clock.Now()))

	require.NoError(t, store.SetTTL(ctx, "recent:project", "p-kitchen", time.Hour))
	entry, err = store.GetRaw(ctx, "recent:project")
	require.NoError(t, err)
	require.NotNil(t, entry.ExpiresAt)
	assert.True(t, entry.ExpiresAt.Equal(clock.Now().Add(time.Hour)))
}

func TestKVStore_TTL(t *testing.T) {
	ctx := context.Background()
	store, clock := newTestKVStore(t)

	require.NoError(t, store.SetTTL(ctx, "recent:project", "p-kitchen", time.Hour))
	require.NoError(t, store.Set(ctx, "prefs:p-kitchen", "kept"))

	clock.Advance(59 * time.Minute)
	var got string
	require.NoError(t, store.Get(ctx, "recent:project", &got))
	assert.Equal(t, "p-kitchen", got)

	clock.Advance(time.Minute)
	has, err := store.Has(ctx, "recent:project")
	require.NoError(t, err)
	assert.False(t, has, "expiry is inclusive")

	keys, err := store.ListKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"prefs:p-kitchen"}, keys)

	_, err = store.GetRaw(ctx, "recent:project")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.ErrorIs(t, store.Get(ctx, "recent:project", &got), sql.ErrNoRows)
}

func TestKVStore_SweepExpired(t *testing.T) {
	ctx := context.Background()
	store, clock := newTestKVStore(t)

	require.NoError(t, store.Set(ctx, "prefs:p-kitchen", "stays"))
	require.NoError(t, store.SetTTL(ctx, "recent:project", "goes", time.Minute))
	require.NoError(t, store.SetTTL(ctx, "recent:other", "stays", time.Hour))

	clock.Advance(2 * time.Minute)
	n, err := store.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = store.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
