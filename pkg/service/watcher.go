package service

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/socialconnect/cli/pkg/api"
	"github.com/socialconnect/cli/pkg/auth"
	"github.com/socialconnect/cli/pkg/formatter"
	"github.com/socialconnect/cli/pkg/logger"
	"github.com/socialconnect/cli/pkg/notify"
	"github.com/socialconnect/cli/pkg/toast"
)

// WatchOptions configures a notification watch
type WatchOptions struct {
	// Toasts renders toast popups next to the event log
	Toasts bool
	// List redraws the newest notifications on every change instead of
	// logging each one
	List bool
	// HandleSignals stops the watch on SIGINT or SIGTERM
	HandleSignals bool
}

// listSize is how many notifications the --list view shows
const listSize = 10

// NotificationWatcherService follows the notification stream
type NotificationWatcherService struct {
	base
}

// NewNotificationWatcherService creates a new notification watcher service
func NewNotificationWatcherService(d Deps) *NotificationWatcherService {
	return &NotificationWatcherService{base: newBase(d)}
}

// Watch streams notifications until ctx is cancelled, the stream ends or
// the signed-in identity changes. Unless opts.List is set, every unread
// notification is printed the first time it appears.
func (w *NotificationWatcherService) Watch(ctx context.Context, opts WatchOptions) error {
	if err := w.app.Auth.RequireAuth(); err != nil {
		return err
	}
	user := w.app.Auth.State().User

	src, err := w.app.StreamSource()
	if err != nil {
		return err
	}

	if opts.HandleSignals {
		var stop context.CancelFunc
		ctx, stop = signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// A logout or session expiry elsewhere ends the watch
	unsubAuth := w.app.Auth.Subscribe(func(auth.State) { cancel() })
	defer unsubAuth()

	logger.Debug("Starting notification watcher", "source", src.Name(), "toasts", opts.Toasts)
	if !w.out.IsJSON() {
		w.out.Println()
		w.out.Info("🔔 Watching for notifications")
		w.out.Printf("Connected as: @%s\n", user.Username)
		w.out.Println("Press Ctrl+C to stop")
		w.out.Println(strings.Repeat("─", 60))
	}

	snaps, unsubSnaps := w.app.Notifications.Subscribe()
	defer unsubSnaps()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		w.app.Notifications.Watch(gctx, src, w.app.StreamOptions())
		return nil
	})

	var changes <-chan []api.Notification
	if opts.Toasts {
		toasts := w.app.NewToasts()
		toastSnaps, unsubToasts := w.app.Notifications.Subscribe()
		defer unsubToasts()
		changes = toasts.Changes()
		g.Go(func() error {
			toasts.Run(gctx, toastSnaps)
			return nil
		})
	}

	r := &watchRenderer{w: w, list: opts.List, seen: make(map[string]struct{}), unread: -1}
	r.run(gctx, snaps, changes)
	cancel()
	_ = g.Wait()
	// Events applied after the last delivered snapshot
	r.snapshot(w.app.Notifications.Snapshot())

	if err := w.app.Auth.RequireAuth(); err != nil {
		return err
	}
	if !w.out.IsJSON() {
		w.out.Println()
		w.out.Success("Notification watcher stopped")
	}
	return nil
}

// watchRenderer is the only writer while a watch runs
type watchRenderer struct {
	w      *NotificationWatcherService
	list   bool
	seen   map[string]struct{}
	unread int
	shown  []string
}

func (r *watchRenderer) run(ctx context.Context, snaps <-chan notify.Snapshot, changes <-chan []api.Notification) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-snaps:
			if !ok {
				return
			}
			if snap.Loading {
				continue
			}
			r.snapshot(snap)
		case visible, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			if len(visible) > 0 && !r.w.out.IsJSON() {
				r.w.out.Println(toast.RenderStack(visible))
			}
		}
	}
}

func (r *watchRenderer) snapshot(snap notify.Snapshot) {
	if r.list {
		r.redraw(snap)
		return
	}
	r.log(snap)
}

// log prints unread notifications not seen before, oldest first, and the
// unread count when it changed
func (r *watchRenderer) log(snap notify.Snapshot) {
	out := r.w.out
	var fresh []api.Notification
	for _, n := range snap.Notifications {
		if _, ok := r.seen[n.ID]; ok {
			continue
		}
		r.seen[n.ID] = struct{}{}
		if !n.IsRead {
			fresh = append(fresh, n)
		}
	}

	now := r.w.now()
	for i := len(fresh) - 1; i >= 0; i-- {
		n := fresh[i]
		if out.IsJSON() {
			if err := out.JSON(n); err != nil {
				logger.Warn("Failed to encode notification", "error", err)
			}
			continue
		}
		out.Printf("[%s] %s\n", now.Format("15:04:05"), formatter.Notification(n, now))
	}

	if snap.UnreadCount != r.unread && !out.IsJSON() {
		out.Info("%d unread", snap.UnreadCount)
	}
	r.unread = snap.UnreadCount
}

// redraw prints the newest notifications whenever the shown entries or the
// unread count change
func (r *watchRenderer) redraw(snap notify.Snapshot) {
	top := snap.Notifications
	if len(top) > listSize {
		top = top[:listSize]
	}
	key := make([]string, 0, len(top))
	for _, n := range top {
		key = append(key, fmt.Sprintf("%s:%t", n.ID, n.IsRead))
	}
	if snap.UnreadCount == r.unread && slices.Equal(key, r.shown) {
		return
	}
	r.unread, r.shown = snap.UnreadCount, key

	out := r.w.out
	if out.IsJSON() {
		if err := out.JSON(api.NotificationList{Notifications: top, UnreadCount: snap.UnreadCount}); err != nil {
			logger.Warn("Failed to encode notifications", "error", err)
		}
		return
	}
	now := r.w.now()
	out.Println(strings.Repeat("─", 60))
	out.Info("Notifications (%d unread)", snap.UnreadCount)
	if len(top) == 0 {
		out.Println("No notifications.")
	}
	for _, n := range top {
		out.Println(formatter.Notification(n, now))
	}
}
