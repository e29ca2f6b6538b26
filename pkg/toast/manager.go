// Package toast decides which notifications pop up as toasts. Every
// notification gets one short admission window; the first few admitted are
// shown, each dismissing itself after a while. Dismissed ids are persisted
// so they do not pop up again until the dismissed set is reset.
package toast

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/socialconnect/cli/pkg/api"
	"github.com/socialconnect/cli/pkg/logger"
	"github.com/socialconnect/cli/pkg/metrics"
	"github.com/socialconnect/cli/pkg/notify"
	"github.com/socialconnect/cli/pkg/storage"
)

// StorageKey holds the persisted dismissed set
const StorageKey = "dismissed-notifications"

// Record is the persisted dismissed set. ResetAt is when the set was last
// cleared; a record older than the reset interval is empty.
type Record struct {
	IDs     []string  `json:"ids"`
	ResetAt time.Time `json:"reset_at"`
}

// Timer is a pending callback
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks. Tests swap in a manual clock.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Options configures a Manager
type Options struct {
	// AdmissionWindow is how long an admitted notification stays active
	AdmissionWindow time.Duration
	// Duration is how long a shown toast stays before dismissing itself
	Duration time.Duration
	// MaxVisible caps the number of toasts shown at once
	MaxVisible int
	// DismissReset is how often the dismissed set is cleared
	DismissReset time.Duration
	Clock        Clock
}

// DefaultOptions returns the stock timings
func DefaultOptions() Options {
	return Options{
		AdmissionWindow: 6 * time.Second,
		Duration:        5 * time.Second,
		MaxVisible:      3,
		DismissReset:    24 * time.Hour,
	}
}

type entry struct {
	admit Timer
	show  Timer
}

func (e *entry) stop() {
	if e.admit != nil {
		e.admit.Stop()
	}
	if e.show != nil {
		e.show.Stop()
	}
}

// Manager tracks the active and dismissed toast sets
type Manager struct {
	store   *storage.Store
	opts    Options
	clock   Clock
	metrics *metrics.Metrics

	mu        sync.Mutex
	list      []api.Notification
	active    map[string]*entry
	admitted  map[string]struct{}
	dismissed map[string]struct{}
	visible   []api.Notification
	reset     Timer
	// resetAt starts the current dismissal window. windowKnown is false
	// until it comes from storage or a reset made here.
	resetAt     time.Time
	windowKnown bool
	changes   chan []api.Notification
	closed    bool
}

// NewManager loads the dismissed set from store
func NewManager(store *storage.Store, opts Options) *Manager {
	def := DefaultOptions()
	if opts.AdmissionWindow <= 0 {
		opts.AdmissionWindow = def.AdmissionWindow
	}
	if opts.Duration <= 0 {
		opts.Duration = def.Duration
	}
	if opts.MaxVisible <= 0 {
		opts.MaxVisible = def.MaxVisible
	}
	if opts.DismissReset <= 0 {
		opts.DismissReset = def.DismissReset
	}
	if opts.Clock == nil {
		opts.Clock = realClock{}
	}

	m := &Manager{
		store:     store,
		opts:      opts,
		clock:     opts.Clock,
		metrics:   metrics.Get(),
		active:    make(map[string]*entry),
		admitted:  make(map[string]struct{}),
		dismissed: make(map[string]struct{}),
		changes:   make(chan []api.Notification, 1),
	}

	now := m.clock.Now()
	m.resetAt = now
	rec, ok, err := m.load()
	switch {
	case err != nil:
		logger.Warn("Ignoring unreadable dismissed notifications", "error", err)
	case ok && !rec.ResetAt.IsZero() && now.Sub(rec.ResetAt) >= opts.DismissReset:
		logger.Debug("Dismissed notifications expired", "count", len(rec.IDs), "reset_at", rec.ResetAt)
		m.windowKnown = true
		if err := m.persist(); err != nil {
			logger.Warn("Failed to save dismissed notifications", "error", err)
		}
	case ok:
		if !rec.ResetAt.IsZero() {
			m.resetAt = rec.ResetAt
			m.windowKnown = true
		}
		for _, id := range rec.IDs {
			m.dismissed[id] = struct{}{}
		}
	}
	return m
}

func (m *Manager) load() (Record, bool, error) {
	var rec Record
	ok, err := m.store.Get(StorageKey, &rec)
	return rec, ok, err
}

// persist writes the dismissed set. Callers hold mu.
func (m *Manager) persist() error {
	ids := make([]string, 0, len(m.dismissed))
	for d := range m.dismissed {
		ids = append(ids, d)
	}
	sort.Strings(ids)
	if err := m.store.Set(StorageKey, Record{IDs: ids, ResetAt: m.resetAt}); err != nil {
		return err
	}
	m.windowKnown = true
	return nil
}

// Start arms the recurring reset of the dismissed set
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || m.reset != nil {
		return
	}
	m.armReset()
}

// armReset schedules the next reset at the end of the current window.
// Callers hold mu.
func (m *Manager) armReset() {
	delay := m.resetAt.Add(m.opts.DismissReset).Sub(m.clock.Now())
	if delay < 0 {
		delay = 0
	}
	m.reset = m.clock.AfterFunc(delay, func() {
		m.ResetDismissed()
		m.mu.Lock()
		defer m.mu.Unlock()
		if !m.closed {
			m.armReset()
		}
	})
}

// Changes delivers the visible toasts each time they change. Only the
// latest set is kept for a slow reader. The channel closes with the
// manager.
func (m *Manager) Changes() <-chan []api.Notification {
	return m.changes
}

// Update admits every notification in list that is neither active,
// dismissed, nor already admitted once.
func (m *Manager) Update(list []api.Notification) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}

	m.list = list
	for _, n := range list {
		if _, ok := m.active[n.ID]; ok {
			continue
		}
		if _, ok := m.dismissed[n.ID]; ok {
			continue
		}
		if _, ok := m.admitted[n.ID]; ok {
			continue
		}
		m.admit(n.ID)
	}
	m.render()
}

func (m *Manager) admit(id string) {
	e := &entry{}
	m.active[id] = e
	m.admitted[id] = struct{}{}
	e.admit = m.clock.AfterFunc(m.opts.AdmissionWindow, func() {
		m.expire(id, e)
	})
}

// expire ends the admission window. The id leaves the active set without
// being dismissed.
func (m *Manager) expire(id string, e *entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || m.active[id] != e {
		return
	}
	e.stop()
	delete(m.active, id)
	m.render()
}

// render recomputes the visible toasts and starts the self-dismiss timer of
// any toast shown for the first time. Callers hold mu.
func (m *Manager) render() {
	var visible []api.Notification
	for _, n := range m.list {
		if len(visible) == m.opts.MaxVisible {
			break
		}
		e, ok := m.active[n.ID]
		if !ok {
			continue
		}
		visible = append(visible, n)
		if e.show == nil {
			id := n.ID
			e.show = m.clock.AfterFunc(m.opts.Duration, func() {
				m.dismissEntry(id, e, "timeout")
			})
			m.metrics.ToastsShownTotal.Inc()
		}
	}

	if sameIDs(visible, m.visible) {
		return
	}
	m.visible = visible

	select {
	case m.changes <- visible:
	default:
		select {
		case <-m.changes:
		default:
		}
		m.changes <- visible
	}
}

func sameIDs(a, b []api.Notification) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
	}
	return true
}

// Visible returns the toasts currently shown, in list order
func (m *Manager) Visible() []api.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]api.Notification, len(m.visible))
	copy(out, m.visible)
	return out
}

// IsDismissed reports whether id is in the dismissed set
func (m *Manager) IsDismissed(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.dismissed[id]
	return ok
}

// Dismiss moves id from the active set to the dismissed set
func (m *Manager) Dismiss(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	if e, ok := m.active[id]; ok {
		e.stop()
		delete(m.active, id)
	}
	m.metrics.ToastsDismissedTotal.WithLabelValues("manual").Inc()
	return m.markDismissed(id)
}

func (m *Manager) dismissEntry(id string, e *entry, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || m.active[id] != e {
		return
	}
	e.stop()
	delete(m.active, id)
	m.metrics.ToastsDismissedTotal.WithLabelValues(reason).Inc()
	if err := m.markDismissed(id); err != nil {
		logger.Warn("Failed to save dismissed notifications", "error", err)
	}
}

// markDismissed records id and persists the set merged with whatever
// another process stored meanwhile. Callers hold mu.
func (m *Manager) markDismissed(id string) error {
	m.dismissed[id] = struct{}{}

	stored, ok, err := m.load()
	if err != nil {
		logger.Warn("Overwriting unreadable dismissed notifications", "error", err)
	} else if ok && !stored.ResetAt.IsZero() && m.clock.Now().Sub(stored.ResetAt) < m.opts.DismissReset {
		switch {
		case stored.ResetAt.After(m.resetAt) && m.windowKnown:
			// cleared elsewhere since this set was loaded
			m.dismissed = map[string]struct{}{id: {}}
			m.adoptWindow(stored.ResetAt)
			m.merge(stored.IDs)
		case stored.ResetAt.Equal(m.resetAt):
			m.merge(stored.IDs)
		case !m.windowKnown:
			m.adoptWindow(stored.ResetAt)
			m.merge(stored.IDs)
		}
	}

	m.render()
	return m.persist()
}

// merge adds ids to the dismissed set, pulling any of them out of the
// active set. Callers hold mu.
func (m *Manager) merge(ids []string) {
	for _, d := range ids {
		if e, ok := m.active[d]; ok {
			e.stop()
			delete(m.active, d)
		}
		m.dismissed[d] = struct{}{}
	}
}

// adoptWindow switches to a window started elsewhere and moves the reset
// timer with it. Callers hold mu.
func (m *Manager) adoptWindow(resetAt time.Time) {
	m.resetAt = resetAt
	m.windowKnown = true
	if m.reset != nil {
		m.reset.Stop()
		m.armReset()
	}
}

// ResetDismissed clears the dismissed set and starts a new window
func (m *Manager) ResetDismissed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	logger.Debug("Clearing dismissed notifications", "count", len(m.dismissed))
	m.dismissed = make(map[string]struct{})
	m.admitted = make(map[string]struct{})
	for id := range m.active {
		m.admitted[id] = struct{}{}
	}
	m.resetAt = m.clock.Now()
	m.windowKnown = true
	if err := m.persist(); err != nil {
		logger.Warn("Failed to save dismissed notifications", "error", err)
	}
}

// Run feeds pipeline snapshots into the manager until the channel closes
// or ctx is cancelled, then closes the manager.
func (m *Manager) Run(ctx context.Context, snapshots <-chan notify.Snapshot) {
	defer m.Close()
	m.Start()
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-snapshots:
			if !ok {
				return
			}
			m.Update(snap.Notifications)
		}
	}
}

// Close stops every timer and closes Changes
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	for _, e := range m.active {
		e.stop()
	}
	if m.reset != nil {
		m.reset.Stop()
	}
	close(m.changes)
}
