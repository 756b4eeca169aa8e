package scheduler

import (
	"context"
	"sync"
	"time"
)

// Debouncer delays a keyed action until its key has been quiet for the
// configured delay. Triggering a key again replaces its pending action and
// restarts the timer, so only the latest action runs.
type Debouncer[K comparable] struct {
	delay time.Duration

	mu      sync.Mutex
	seq     uint64
	pending map[K]*pendingCall
	running int
	waiters []chan struct{}
}

type pendingCall struct {
	seq   uint64
	timer *time.Timer
	fn    func()
}

// NewDebouncer creates a Debouncer with the given quiet period.
func NewDebouncer[K comparable](delay time.Duration) *Debouncer[K] {
	return &Debouncer[K]{
		delay:   delay,
		pending: make(map[K]*pendingCall),
	}
}

// Trigger schedules fn for key, replacing any action still pending for it.
func (d *Debouncer[K]) Trigger(key K, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if p, ok := d.pending[key]; ok {
		p.timer.Stop()
	}

	d.seq++
	seq := d.seq
	d.pending[key] = &pendingCall{
		seq:   seq,
		fn:    fn,
		timer: time.AfterFunc(d.delay, func() { d.fire(key, seq) }),
	}
}

// Cancel drops the pending action for key. It reports whether one was
// pending.
func (d *Debouncer[K]) Cancel(key K) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.pending[key]
	if !ok {
		return false
	}
	p.timer.Stop()
	delete(d.pending, key)
	return true
}

// Pending reports whether key has an action waiting.
func (d *Debouncer[K]) Pending(key K) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.pending[key]
	return ok
}

// Flush starts every pending action now, each on its own goroutine. Use
// Wait to block until they finish.
func (d *Debouncer[K]) Flush() {
	d.mu.Lock()
	calls := make([]*pendingCall, 0, len(d.pending))
	for key, p := range d.pending {
		p.timer.Stop()
		delete(d.pending, key)
		calls = append(calls, p)
	}
	d.running += len(calls)
	d.mu.Unlock()

	for _, p := range calls {
		go d.run(p.fn)
	}
}

// Stop drops every pending action without running it.
func (d *Debouncer[K]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key, p := range d.pending {
		p.timer.Stop()
		delete(d.pending, key)
	}
}

// Wait blocks until no action is running or ctx is done. Actions still
// pending are not waited for.
func (d *Debouncer[K]) Wait(ctx context.Context) error {
	d.mu.Lock()
	if d.running == 0 {
		d.mu.Unlock()
		return nil
	}
	ch := make(chan struct{})
	d.waiters = append(d.waiters, ch)
	d.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Debouncer[K]) fire(key K, seq uint64) {
	d.mu.Lock()
	p, ok := d.pending[key]
	// a newer Trigger, a Cancel or a Flush got here first
	if !ok || p.seq != seq {
		d.mu.Unlock()
		return
	}
	delete(d.pending, key)
	d.running++
	d.mu.Unlock()

	d.run(p.fn)
}

func (d *Debouncer[K]) run(fn func()) {
	defer func() {
		d.mu.Lock()
		d.running--
		var waiters []chan struct{}
		if d.running == 0 {
			waiters, d.waiters = d.waiters, nil
		}
		d.mu.Unlock()
		for _, ch := range waiters {
			close(ch)
		}
	}()
	fn()
}
