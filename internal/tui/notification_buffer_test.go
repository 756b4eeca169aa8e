package tui

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/buildsched/internal/core/notify"
)

func TestNotificationBuffer_Drain_empty_returnsNil(t *testing.T) {
	b := NewNotificationBuffer()
	assert.Nil(t, b.Drain())
}

func TestNotificationBuffer_PushDrain_orderAndClear(t *testing.T) {
	b := NewNotificationBuffer()
	b.Push(notify.Notification{Level: notify.LevelInfo, Message: "first"})
	b.Push(notify.Notification{Level: notify.LevelWarning, Message: "second"})

	items := b.Drain()
	require.Len(t, items, 2)
	assert.Equal(t, "first", items[0].Message)
	assert.Equal(t, "second", items[1].Message)
	assert.Nil(t, b.Drain())
}

func TestNotificationBuffer_Push_setsCreatedAtWhenZero(t *testing.T) {
	b := NewNotificationBuffer()
	b.Push(notify.Notification{Level: notify.LevelInfo, Message: "stamp me"})

	items := b.Drain()
	require.Len(t, items, 1)
	assert.False(t, items[0].CreatedAt.IsZero())
}

func TestNotificationBuffer_WaitForSignal_coalesces(t *testing.T) {
	b := NewNotificationBuffer()
	b.Push(notify.Notification{Message: "a"})
	b.Push(notify.Notification{Message: "b"})

	msg := b.WaitForSignal()()
	assert.IsType(t, drainNotificationsMsg{}, msg)
	assert.Len(t, b.Drain(), 2)

	done := make(chan struct{})
	go func() {
		_ = b.WaitForSignal()()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("signal fired with nothing pushed")
	case <-time.After(50 * time.Millisecond):
	}

	b.Push(notify.Notification{Message: "c"})
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("signal not delivered")
	}
}

func TestNotificationBuffer_ConcurrentPush(t *testing.T) {
	b := NewNotificationBuffer()

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Push(notify.Notification{Level: notify.LevelInfo, Message: "x"})
		}()
	}
	wg.Wait()

	assert.Len(t, b.Drain(), 20)
}

func TestChangeSignal_CoalescesBursts(t *testing.T) {
	s := newChangeSignal()
	s.notify()
	s.notify()
	s.notify()

	assert.IsType(t, scheduleChangedMsg{}, s.wait()())

	select {
	case <-s.ch:
		t.Fatal("burst should leave one pending signal")
	default:
	}
}
