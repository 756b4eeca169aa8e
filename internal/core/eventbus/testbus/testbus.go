// Package testbus wraps a running EventBus with a record of every event
// published on it, for asserting on schedule events in tests.
package testbus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/colonyops/buildsched/internal/core/eventbus"
)

// DefaultWait bounds how long the assertion helpers wait for delivery.
const DefaultWait = time.Second

type recorded struct {
	event   eventbus.Event
	payload any
}

// Bus is a started EventBus that records what it delivers.
type Bus struct {
	*eventbus.EventBus

	mu  sync.Mutex
	log []recorded
}

// New starts a recording bus that stops when the test ends.
func New(t *testing.T) *Bus {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	tb := &Bus{EventBus: eventbus.New(256)}
	tb.SubscribeAll(func(event eventbus.Event, payload any) {
		tb.mu.Lock()
		tb.log = append(tb.log, recorded{event: event, payload: payload})
		tb.mu.Unlock()
	})

	go tb.Start(ctx)
	t.Cleanup(cancel)
	return tb
}

// Of returns the payloads delivered for event, oldest first.
func (tb *Bus) Of(event eventbus.Event) []any {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	var out []any
	for _, r := range tb.log {
		if r.event == event {
			out = append(out, r.payload)
		}
	}
	return out
}

// WaitFor polls until event has been delivered at least once.
func (tb *Bus) WaitFor(event eventbus.Event, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if len(tb.Of(event)) > 0 {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// AssertPublished fails the test when event is not delivered within DefaultWait.
func (tb *Bus) AssertPublished(t *testing.T, event eventbus.Event) {
	t.Helper()
	if !tb.WaitFor(event, DefaultWait) {
		t.Errorf("event %q was not published", event)
	}
}

// AssertNotPublished waits for wait and fails the test if event was delivered.
func (tb *Bus) AssertNotPublished(t *testing.T, event eventbus.Event, wait time.Duration) {
	t.Helper()
	time.Sleep(wait)
	if n := len(tb.Of(event)); n > 0 {
		t.Errorf("event %q was published %d times", event, n)
	}
}

// Last waits for event and returns its newest payload as T.
func Last[T any](t *testing.T, tb *Bus, event eventbus.Event) T {
	t.Helper()
	var zero T
	if !tb.WaitFor(event, DefaultWait) {
		t.Fatalf("event %q was not published", event)
		return zero
	}
	payloads := tb.Of(event)
	p, ok := payloads[len(payloads)-1].(T)
	if !ok {
		t.Fatalf("event %q carried %T, want %T", event, payloads[len(payloads)-1], zero)
	}
	return p
}
