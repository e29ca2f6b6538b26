// Package notify keeps the local notification list. It merges a fetched
// snapshot with live stream events, deduplicating by id, and tracks the
// unread count.
package notify

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/socialconnect/cli/pkg/api"
	"github.com/socialconnect/cli/pkg/logger"
	"github.com/socialconnect/cli/pkg/metrics"
	"github.com/socialconnect/cli/pkg/stream"
)

// ErrClosed is returned by operations on a closed pipeline
var ErrClosed = errors.New("notification pipeline closed")

// Backend is the part of the REST API the pipeline talks to
type Backend interface {
	ListNotifications(ctx context.Context) (*api.NotificationList, error)
	MarkNotificationRead(ctx context.Context, notificationID string) error
	MarkAllNotificationsRead(ctx context.Context) error
	UnreadCount(ctx context.Context) (int, error)
	GetNotificationPreferences(ctx context.Context) (*api.NotificationPreferences, error)
	UpdateNotificationPreferences(ctx context.Context, prefs api.NotificationPreferences) (*api.NotificationPreferences, error)
}

// Snapshot is an immutable view of the pipeline. Newest notifications come
// first. Callers must not modify Notifications.
type Snapshot struct {
	Notifications []api.Notification
	UnreadCount   int
	Loading       bool
}

// Find returns the notification with id
func (s Snapshot) Find(id string) (api.Notification, bool) {
	for _, n := range s.Notifications {
		if n.ID == id {
			return n, true
		}
	}
	return api.Notification{}, false
}

// Pipeline owns the notification list for one signed-in identity
type Pipeline struct {
	backend Backend
	metrics *metrics.Metrics

	// mu serializes writers; readers load state without locking
	mu     sync.Mutex
	state  atomic.Pointer[Snapshot]
	subs   map[int]chan Snapshot
	nextID int
	closed bool
}

// New returns an empty pipeline
func New(backend Backend) *Pipeline {
	p := &Pipeline{
		backend: backend,
		metrics: metrics.Get(),
		subs:    make(map[int]chan Snapshot),
	}
	p.state.Store(&Snapshot{})
	return p
}

// Snapshot returns the current state
func (p *Pipeline) Snapshot() Snapshot {
	return *p.state.Load()
}

// Subscribe returns a channel that receives every new snapshot, starting
// with the current one. A slow reader only ever misses intermediate
// snapshots, never the latest. The channel closes when the pipeline does
// or when cancel is called.
func (p *Pipeline) Subscribe() (<-chan Snapshot, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch := make(chan Snapshot, 1)
	if p.closed {
		close(ch)
		return ch, func() {}
	}

	id := p.nextID
	p.nextID++
	p.subs[id] = ch
	ch <- *p.state.Load()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			if c, ok := p.subs[id]; ok {
				delete(p.subs, id)
				close(c)
			}
		})
	}
}

// publish swaps in next and fans it out. Callers hold mu.
func (p *Pipeline) publish(next *Snapshot) {
	p.state.Store(next)
	p.metrics.UnreadNotifications.Set(float64(next.UnreadCount))

	for _, ch := range p.subs {
		select {
		case ch <- *next:
		default:
			// Drop the stale snapshot and replace it
			select {
			case <-ch:
			default:
			}
			ch <- *next
		}
	}
}

// update applies fn to a copy of the current state under the lock. It
// reports false when the pipeline is closed.
func (p *Pipeline) update(fn func(s *Snapshot) bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return false
	}
	cur := p.state.Load()
	next := *cur
	if fn(&next) {
		p.publish(&next)
	}
	return true
}

// Fetch requests the current notification set and merges it into the
// local list. Ids already present are kept as they are; new ones are
// prepended. The unread count is recomputed over the merged list.
func (p *Pipeline) Fetch(ctx context.Context) error {
	if !p.update(func(s *Snapshot) bool {
		s.Loading = true
		return true
	}) {
		return ErrClosed
	}

	list, err := p.backend.ListNotifications(ctx)

	ok := p.update(func(s *Snapshot) bool {
		s.Loading = false
		if err != nil {
			return true
		}
		s.Notifications = p.merge(s.Notifications, list.Notifications)
		s.UnreadCount = countUnread(s.Notifications)
		return true
	})
	if !ok {
		// Torn down while the request was in flight
		logger.Debug("Dropping notification fetch after close")
		return ErrClosed
	}
	if err != nil {
		logger.Debug("Failed to fetch notifications", "error", err)
		return err
	}
	return nil
}

func (p *Pipeline) merge(existing, fetched []api.Notification) []api.Notification {
	known := make(map[string]struct{}, len(existing)+len(fetched))
	for _, n := range existing {
		known[n.ID] = struct{}{}
	}

	fresh := make([]api.Notification, 0, len(fetched))
	for _, n := range fetched {
		if _, dup := known[n.ID]; dup {
			continue
		}
		known[n.ID] = struct{}{}
		fresh = append(fresh, n)
	}

	if dups := len(fetched) - len(fresh); dups > 0 {
		logger.Debug("Filtered out duplicate notifications", "total", len(fetched), "unique", len(fresh), "duplicates", dups)
		p.metrics.NotificationsDeduped.WithLabelValues("fetch").Add(float64(dups))
	}
	p.metrics.NotificationsReceived.WithLabelValues("fetch").Add(float64(len(fresh)))

	merged := make([]api.Notification, 0, len(fresh)+len(existing))
	merged = append(merged, fresh...)
	return append(merged, existing...)
}

func countUnread(list []api.Notification) int {
	n := 0
	for _, item := range list {
		if !item.IsRead {
			n++
		}
	}
	return n
}

// Apply folds one stream event into the list. Events that arrive after
// Close are dropped.
func (p *Pipeline) Apply(ev stream.Event) {
	p.update(func(s *Snapshot) bool {
		switch ev.Type {
		case stream.EventHeartbeat:
			if s.UnreadCount == ev.UnreadCount {
				return false
			}
			s.UnreadCount = ev.UnreadCount
			return true

		case stream.EventNewNotification:
			if ev.Notification == nil {
				return false
			}
			if _, exists := s.Find(ev.Notification.ID); exists {
				logger.Debug("Notification already exists, skipping", "id", ev.Notification.ID)
				p.metrics.NotificationsDeduped.WithLabelValues("stream").Inc()
				return false
			}
			list := make([]api.Notification, 0, len(s.Notifications)+1)
			list = append(list, *ev.Notification)
			s.Notifications = append(list, s.Notifications...)
			s.UnreadCount++
			p.metrics.NotificationsReceived.WithLabelValues("stream").Inc()
			return true

		case stream.EventConnection:
			logger.Debug("Notification stream connected", "message", ev.Message)
		}
		return false
	})
}

// Run applies events until the channel closes or ctx is cancelled
func (p *Pipeline) Run(ctx context.Context, events <-chan stream.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			p.Apply(ev)
		}
	}
}

// MarkAsRead flips the entry to read and decrements the unread count
// before telling the backend. A backend failure is returned but the local
// change stays.
func (p *Pipeline) MarkAsRead(ctx context.Context, id string) error {
	if !p.update(func(s *Snapshot) bool {
		idx := -1
		for i, n := range s.Notifications {
			if n.ID == id {
				idx = i
				break
			}
		}
		if idx < 0 || s.Notifications[idx].IsRead {
			return false
		}
		list := make([]api.Notification, len(s.Notifications))
		copy(list, s.Notifications)
		list[idx].IsRead = true
		s.Notifications = list
		if s.UnreadCount > 0 {
			s.UnreadCount--
		}
		return true
	}) {
		return ErrClosed
	}

	if err := p.backend.MarkNotificationRead(ctx, id); err != nil {
		p.metrics.MarkReadTotal.WithLabelValues("one", "error").Inc()
		return err
	}
	p.metrics.MarkReadTotal.WithLabelValues("one", "ok").Inc()
	return nil
}

// MarkAllAsRead marks everything read on the backend, then locally. On
// failure the local state is left untouched.
func (p *Pipeline) MarkAllAsRead(ctx context.Context) error {
	if err := p.backend.MarkAllNotificationsRead(ctx); err != nil {
		p.metrics.MarkReadTotal.WithLabelValues("all", "error").Inc()
		return err
	}
	p.metrics.MarkReadTotal.WithLabelValues("all", "ok").Inc()

	p.update(func(s *Snapshot) bool {
		list := make([]api.Notification, len(s.Notifications))
		for i, n := range s.Notifications {
			n.IsRead = true
			list[i] = n
		}
		s.Notifications = list
		s.UnreadCount = 0
		return true
	})
	return nil
}

// RefreshUnreadCount asks the backend for the unread count and adopts it
func (p *Pipeline) RefreshUnreadCount(ctx context.Context) (int, error) {
	count, err := p.backend.UnreadCount(ctx)
	if err != nil {
		return 0, err
	}
	p.Apply(stream.Event{Type: stream.EventHeartbeat, UnreadCount: count})
	return count, nil
}

// Preferences returns the notification preferences
func (p *Pipeline) Preferences(ctx context.Context) (*api.NotificationPreferences, error) {
	return p.backend.GetNotificationPreferences(ctx)
}

// UpdatePreferences replaces the notification preferences
func (p *Pipeline) UpdatePreferences(ctx context.Context, prefs api.NotificationPreferences) (*api.NotificationPreferences, error) {
	return p.backend.UpdateNotificationPreferences(ctx, prefs)
}

// Close stops the pipeline. Later fetch results and events are ignored and
// every subscriber channel is closed.
func (p *Pipeline) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	for id, ch := range p.subs {
		delete(p.subs, id)
		close(ch)
	}
}
