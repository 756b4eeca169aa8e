package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory Store for testing.
type memStore struct {
	items  []Notification
	nextID int64
	err    error
}

func (m *memStore) Save(_ context.Context, n Notification) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.nextID++
	n.ID = m.nextID
	m.items = append(m.items, n)
	return n.ID, nil
}

func (m *memStore) List(_ context.Context) ([]Notification, error) {
	out := make([]Notification, len(m.items))
	for i, n := range m.items {
		out[len(m.items)-1-i] = n
	}
	return out, nil
}

func (m *memStore) Clear(_ context.Context) error {
	m.items = nil
	return nil
}

func (m *memStore) Count(_ context.Context) (int64, error) {
	return int64(len(m.items)), nil
}

func TestCenter_PublishDispatches(t *testing.T) {
	ctx := context.Background()
	c := NewCenter(&memStore{}, time.Second)

	var received []Notification
	c.Subscribe(func(n Notification) { received = append(received, n) })

	c.Errorf(ctx, "save failed: %d", 42)
	c.Infof(ctx, "saved")
	c.Warnf(ctx, "careful")

	require.Len(t, received, 3)
	assert.Equal(t, LevelError, received[0].Level)
	assert.Equal(t, "save failed: 42", received[0].Message)
	assert.Equal(t, int64(1), received[0].ID)
	assert.Equal(t, LevelInfo, received[1].Level)
	assert.Equal(t, LevelWarning, received[2].Level)
}

func TestCenter_ToastsExpireErrorsStick(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	c := NewCenter(nil, 3*time.Second)
	c.now = func() time.Time { return now }

	info := c.Infof(ctx, "saved")
	failure := c.Errorf(ctx, "could not save")
	require.Len(t, c.Visible(), 2)
	assert.Negative(t, info.ID, "local ids without a store")

	now = now.Add(3 * time.Second)
	visible := c.Visible()
	require.Len(t, visible, 1)
	assert.Equal(t, failure.ID, visible[0].ID)

	c.Dismiss(failure.ID)
	assert.Empty(t, c.Visible())
}

func TestCenter_StoreFailureStillDispatches(t *testing.T) {
	c := NewCenter(&memStore{err: errors.New("disk full")}, time.Second)

	called := false
	c.Subscribe(func(Notification) { called = true })
	c.Infof(context.Background(), "hello")

	assert.True(t, called)
}

func TestCenter_HistoryAndClear(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	c := NewCenter(store, time.Second)

	c.Infof(ctx, "first")
	c.Infof(ctx, "second")

	history, err := c.History(ctx)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "second", history[0].Message)

	require.NoError(t, c.Clear(ctx))
	history, err = c.History(ctx)
	require.NoError(t, err)
	assert.Empty(t, history)
	assert.Empty(t, c.Visible())
}
