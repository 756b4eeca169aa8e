package notify

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Subscriber is a callback invoked when a notification is published.
type Subscriber func(Notification)

// Center persists notifications, dispatches them to subscribers inline, and
// tracks which ones are currently visible as toasts.
type Center struct {
	store    Store
	toastTTL time.Duration
	now      func() time.Time

	mu          sync.Mutex
	subscribers []Subscriber
	visible     []Notification
	nextLocalID int64
}

// NewCenter creates a notification center. If store is nil, notifications are
// dispatched to subscribers but not persisted.
func NewCenter(store Store, toastTTL time.Duration) *Center {
	return &Center{
		store:    store,
		toastTTL: toastTTL,
		now:      time.Now,
	}
}

// Subscribe registers a callback that will be invoked on every Publish.
func (c *Center) Subscribe(fn Subscriber) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribers = append(c.subscribers, fn)
}

// Publish persists n, shows it, and dispatches it to all subscribers.
func (c *Center) Publish(ctx context.Context, n Notification) Notification {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = c.now()
	}

	// Persist first so the notification has an ID for subscribers.
	if c.store != nil {
		id, err := c.store.Save(ctx, n)
		if err != nil {
			log.Error().Err(err).Str("message", n.Message).Msg("failed to persist notification")
		} else {
			n.ID = id
		}
	}

	c.mu.Lock()
	if n.ID == 0 {
		c.nextLocalID--
		n.ID = c.nextLocalID
	}
	c.visible = append(c.visible, n)
	subs := slices.Clone(c.subscribers)
	c.mu.Unlock()

	for _, fn := range subs {
		fn(n)
	}
	return n
}

// Errorf publishes an error-level notification.
func (c *Center) Errorf(ctx context.Context, format string, args ...any) Notification {
	return c.Publish(ctx, Notification{Level: LevelError, Message: fmt.Sprintf(format, args...)})
}

// Warnf publishes a warning-level notification.
func (c *Center) Warnf(ctx context.Context, format string, args ...any) Notification {
	return c.Publish(ctx, Notification{Level: LevelWarning, Message: fmt.Sprintf(format, args...)})
}

// Infof publishes an info-level notification.
func (c *Center) Infof(ctx context.Context, format string, args ...any) Notification {
	return c.Publish(ctx, Notification{Level: LevelInfo, Message: fmt.Sprintf(format, args...)})
}

// Visible returns the notices currently on screen, oldest first. Expired
// toasts are pruned as a side effect.
func (c *Center) Visible() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.visible = slices.DeleteFunc(c.visible, func(n Notification) bool {
		return !n.Sticky() && now.Sub(n.CreatedAt) >= c.toastTTL
	})
	return slices.Clone(c.visible)
}

// Dismiss hides the notice with id.
func (c *Center) Dismiss(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.visible = slices.DeleteFunc(c.visible, func(n Notification) bool { return n.ID == id })
}

// History returns all persisted notifications (newest first).
// Returns nil if no store is configured.
func (c *Center) History(ctx context.Context) ([]Notification, error) {
	if c.store == nil {
		return nil, nil
	}
	return c.store.List(ctx)
}

// Clear deletes all persisted notifications and hides every notice.
func (c *Center) Clear(ctx context.Context) error {
	c.mu.Lock()
	c.visible = nil
	c.mu.Unlock()

	if c.store == nil {
		return nil
	}
	return c.store.Clear(ctx)
}
