package toast

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/socialconnect/cli/pkg/api"
	"github.com/socialconnect/cli/pkg/notify"
	"github.com/socialconnect/cli/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// manualClock fires timers only when advanced
type manualClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*manualTimer
}

type manualTimer struct {
	clock   *manualClock
	at      time.Time
	fn      func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	was := !t.stopped
	t.stopped = true
	return was
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{clock: c, at: c.now.Add(d), fn: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves time forward, firing due timers in order
func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		sort.SliceStable(c.timers, func(i, j int) bool { return c.timers[i].at.Before(c.timers[j].at) })
		var next *manualTimer
		for _, t := range c.timers {
			if !t.stopped && !t.at.After(target) {
				next = t
				break
			}
		}
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		next.stopped = true
		c.now = next.at
		c.mu.Unlock()
		next.fn()
	}
}

func notification(id string, typ api.NotificationType) api.Notification {
	return api.Notification{
		ID: id,
		Sender: api.UserBasic{
			ID:        gofakeit.UUID(),
			Username:  gofakeit.Username(),
			FirstName: "Ada",
			LastName:  "Lovelace",
		},
		Type:      typ,
		Message:   "liked your post",
		CreatedAt: time.Now(),
	}
}

func batch(ids ...string) []api.Notification {
	out := make([]api.Notification, len(ids))
	for i, id := range ids {
		out[i] = notification(id, api.NotificationLike)
	}
	return out
}

func visibleIDs(m *Manager) []string {
	var out []string
	for _, n := range m.Visible() {
		out = append(out, n.ID)
	}
	return out
}

func newManager(t *testing.T) (*Manager, *manualClock, *storage.Store) {
	t.Helper()
	store := storage.New(t.TempDir())
	clock := newManualClock()
	opts := DefaultOptions()
	opts.Clock = clock
	m := NewManager(store, opts)
	t.Cleanup(m.Close)
	return m, clock, store
}

func TestNewNotificationShowsOneToast(t *testing.T) {
	m, _, _ := newManager(t)
	m.Update(batch("n1"))
	assert.Equal(t, []string{"n1"}, visibleIDs(m))

	// Same list again does not duplicate
	m.Update(batch("n1"))
	assert.Equal(t, []string{"n1"}, visibleIDs(m))
}

func TestDismissedNotificationNeverShows(t *testing.T) {
	store := storage.New(t.TempDir())
	clock := newManualClock()
	require.NoError(t, store.Set(StorageKey, Record{IDs: []string{"n1"}, ResetAt: clock.Now().Add(-time.Hour)}))

	opts := DefaultOptions()
	opts.Clock = clock
	m := NewManager(store, opts)
	defer m.Close()

	m.Update(batch("n1"))
	assert.Empty(t, m.Visible())
}

func TestAtMostThreeVisible(t *testing.T) {
	m, _, _ := newManager(t)
	m.Update(batch("a", "b", "c", "d", "e"))
	assert.Equal(t, []string{"a", "b", "c"}, visibleIDs(m))
}

func TestToastDismissesItselfAfterDuration(t *testing.T) {
	m, clock, store := newManager(t)
	m.Update(batch("a", "b", "c", "d"))

	clock.Advance(5 * time.Second)
	// a, b and c timed out into the dismissed set; d moves up while its
	// admission window is still open
	assert.Equal(t, []string{"d"}, visibleIDs(m))
	for _, id := range []string{"a", "b", "c"} {
		assert.True(t, m.IsDismissed(id), id)
	}

	var saved Record
	ok, err := store.Get(StorageKey, &saved)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b", "c"}, saved.IDs)

	// d's admission window closes before its own display time is up
	clock.Advance(time.Second)
	assert.Empty(t, m.Visible())
	assert.False(t, m.IsDismissed("d"))

	// and it is not admitted a second time
	m.Update(batch("a", "b", "c", "d"))
	assert.Empty(t, m.Visible())
}

func TestManualDismiss(t *testing.T) {
	m, clock, _ := newManager(t)
	m.Update(batch("a", "b"))

	require.NoError(t, m.Dismiss("a"))
	assert.Equal(t, []string{"b"}, visibleIDs(m))
	assert.True(t, m.IsDismissed("a"))

	// a's timers were stopped; advancing does not touch the dismissed set
	clock.Advance(10 * time.Second)
	assert.True(t, m.IsDismissed("a"))
}

func TestActiveAndDismissedAreDisjoint(t *testing.T) {
	m, clock, _ := newManager(t)
	m.Update(batch("a", "b", "c", "d", "e"))

	check := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for id := range m.active {
			_, dismissed := m.dismissed[id]
			assert.False(t, dismissed, id)
		}
	}
	for i := 0; i < 8; i++ {
		check()
		clock.Advance(time.Second)
	}
	check()
}

func TestDismissedSetResetsDaily(t *testing.T) {
	m, clock, store := newManager(t)
	m.Start()

	m.Update(batch("a"))
	clock.Advance(5 * time.Second)
	require.True(t, m.IsDismissed("a"))

	m.Update(batch("a"))
	assert.Empty(t, m.Visible(), "dismissed ids stay hidden within the day")

	clock.Advance(24 * time.Hour)
	assert.False(t, m.IsDismissed("a"))
	saved := storedRecord(t, store)
	assert.Empty(t, saved.IDs)
	assert.True(t, saved.ResetAt.Equal(newManualClock().Now().Add(24*time.Hour)))

	m.Update(batch("a"))
	assert.Equal(t, []string{"a"}, visibleIDs(m))

	// The reset re-arms itself
	clock.Advance(5 * time.Second)
	require.True(t, m.IsDismissed("a"))
	clock.Advance(24 * time.Hour)
	assert.False(t, m.IsDismissed("a"))
}

func storedRecord(t *testing.T, store *storage.Store) Record {
	t.Helper()
	var rec Record
	ok, err := store.Get(StorageKey, &rec)
	require.NoError(t, err)
	require.True(t, ok)
	return rec
}

func TestExpiredDismissedSetIsClearedOnLoad(t *testing.T) {
	store := storage.New(t.TempDir())
	clock := newManualClock()
	require.NoError(t, store.Set(StorageKey, Record{IDs: []string{"n1"}, ResetAt: clock.Now().Add(-25 * time.Hour)}))

	opts := DefaultOptions()
	opts.Clock = clock
	m := NewManager(store, opts)
	defer m.Close()

	assert.False(t, m.IsDismissed("n1"))
	m.Update(batch("n1"))
	assert.Equal(t, []string{"n1"}, visibleIDs(m))

	saved := storedRecord(t, store)
	assert.Empty(t, saved.IDs)
	assert.True(t, saved.ResetAt.Equal(clock.Now()))
}

func TestResetFollowsStoredWindow(t *testing.T) {
	store := storage.New(t.TempDir())
	clock := newManualClock()
	require.NoError(t, store.Set(StorageKey, Record{IDs: []string{"n1"}, ResetAt: clock.Now().Add(-23 * time.Hour)}))

	opts := DefaultOptions()
	opts.Clock = clock
	m := NewManager(store, opts)
	defer m.Close()
	m.Start()

	require.True(t, m.IsDismissed("n1"))
	clock.Advance(time.Hour)
	assert.False(t, m.IsDismissed("n1"))
}

func TestDismissKeepsIdsSavedByAnotherManager(t *testing.T) {
	store := storage.New(t.TempDir())
	clock := newManualClock()
	opts := DefaultOptions()
	opts.Clock = clock

	watcher := NewManager(store, opts)
	defer watcher.Close()
	require.NoError(t, watcher.Dismiss("w1"))

	other := NewManager(store, opts)
	require.NoError(t, other.Dismiss("x1"))
	other.Close()

	watcher.Update(batch("x1", "y1"))
	require.NoError(t, watcher.Dismiss("y1"))

	assert.Equal(t, []string{"w1", "x1", "y1"}, storedRecord(t, store).IDs)
	assert.True(t, watcher.IsDismissed("x1"))
}

func TestResetByAnotherManagerIsKept(t *testing.T) {
	store := storage.New(t.TempDir())
	clock := newManualClock()
	opts := DefaultOptions()
	opts.Clock = clock

	watcher := NewManager(store, opts)
	defer watcher.Close()
	require.NoError(t, watcher.Dismiss("a"))

	clock.Advance(time.Hour)
	other := NewManager(store, opts)
	other.ResetDismissed()
	other.Close()

	require.NoError(t, watcher.Dismiss("b"))
	assert.Equal(t, []string{"b"}, storedRecord(t, store).IDs)
	assert.False(t, watcher.IsDismissed("a"))
}

func TestChangesDeliversLatest(t *testing.T) {
	m, clock, _ := newManager(t)
	m.Update(batch("a", "b"))
	m.Update(batch("c", "a", "b"))

	latest := <-m.Changes()
	assert.Len(t, latest, 3)
	assert.Equal(t, "c", latest[0].ID)

	clock.Advance(5 * time.Second)
	assert.Empty(t, <-m.Changes())
}

func TestRunConsumesSnapshots(t *testing.T) {
	m, _, _ := newManager(t)
	snapshots := make(chan notify.Snapshot, 1)
	snapshots <- notify.Snapshot{Notifications: batch("x")}
	close(snapshots)

	m.Run(context.Background(), snapshots)

	_, ok := <-m.Changes()
	assert.True(t, ok)
	_, ok = <-m.Changes()
	assert.False(t, ok, "Run closes the manager when the snapshots end")
}

func TestRender(t *testing.T) {
	like := notification("n1", api.NotificationLike)
	like.Post = &api.PostRef{ID: "p1"}
	out := Render(like)
	assert.Contains(t, out, "Ada Lovelace")
	assert.Contains(t, out, "liked your post")
	assert.Contains(t, out, "View Post")
	assert.Contains(t, out, "post view p1")

	follow := notification("n2", api.NotificationFollow)
	follow.Message = "started following you"
	assert.Contains(t, Render(follow), "View Profile")
	assert.Equal(t, "socialconnect user view "+follow.Sender.ID, ActionCommand(follow))

	assert.Equal(t, "View", ActionText("mention"))
	assert.Empty(t, RenderStack(nil))
	assert.Contains(t, RenderStack([]api.Notification{like, follow}), "started following you")
}
