package service

import (
	"context"
	"fmt"

	"github.com/socialconnect/cli/pkg/api"
	"github.com/socialconnect/cli/pkg/formatter"
	"github.com/socialconnect/cli/pkg/logger"
	"github.com/socialconnect/cli/pkg/output"
)

// NotificationService provides notification operations. Everything goes
// through the app's notification pipeline so counts stay consistent with a
// running watcher.
type NotificationService struct {
	base
}

// NewNotificationService creates a new notification service
func NewNotificationService(d Deps) *NotificationService {
	return &NotificationService{base: newBase(d)}
}

// List fetches and shows notifications, newest first
func (s *NotificationService) List(ctx context.Context, unreadOnly bool) error {
	if err := s.app.Auth.RequireAuth(); err != nil {
		return err
	}
	if err := s.app.Notifications.Fetch(ctx); err != nil {
		return fmt.Errorf("failed to fetch notifications: %w", err)
	}

	snap := s.app.Notifications.Snapshot()
	list := snap.Notifications
	if unreadOnly {
		list = make([]api.Notification, 0, snap.UnreadCount)
		for _, n := range snap.Notifications {
			if !n.IsRead {
				list = append(list, n)
			}
		}
	}

	if s.out.IsJSON() {
		return s.out.JSON(api.NotificationList{Notifications: list, UnreadCount: snap.UnreadCount})
	}
	if len(list) == 0 {
		s.out.Println("No notifications.")
		return nil
	}

	now := s.now()
	for _, n := range list {
		s.out.Println(formatter.Notification(n, now))
	}
	s.out.Println()
	s.out.Info("%d unread", snap.UnreadCount)
	return nil
}

// Count shows the unread count as the backend reports it
func (s *NotificationService) Count(ctx context.Context) error {
	if err := s.app.Auth.RequireAuth(); err != nil {
		return err
	}
	n, err := s.app.Notifications.RefreshUnreadCount(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch unread count: %w", err)
	}
	return s.out.Result(map[string]int{"unread_count": n}, func(p *output.Printer) {
		p.Printf("%d unread notification%s\n", n, formatter.Pluralize(n))
	})
}

// Read marks one notification as read
func (s *NotificationService) Read(ctx context.Context, id string) error {
	if err := s.app.Auth.RequireAuth(); err != nil {
		return err
	}
	if err := s.app.Notifications.MarkAsRead(ctx, id); err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	s.out.Success("Marked as read")
	return nil
}

// ReadAll marks every notification as read
func (s *NotificationService) ReadAll(ctx context.Context) error {
	if err := s.app.Auth.RequireAuth(); err != nil {
		return err
	}
	if err := s.app.Notifications.MarkAllAsRead(ctx); err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	s.out.Success("All notifications marked as read")
	return nil
}

// PreferenceChanges holds the preferences a caller wants to change; nil
// fields keep their current value.
type PreferenceChanges struct {
	Follow  *bool
	Like    *bool
	Comment *bool
	Email   *bool
	Push    *bool
}

// Empty reports whether nothing would change
func (c PreferenceChanges) Empty() bool {
	return c.Follow == nil && c.Like == nil && c.Comment == nil && c.Email == nil && c.Push == nil
}

func (c PreferenceChanges) apply(p api.NotificationPreferences) api.NotificationPreferences {
	set := func(dst *bool, v *bool) {
		if v != nil {
			*dst = *v
		}
	}
	set(&p.FollowNotifications, c.Follow)
	set(&p.LikeNotifications, c.Like)
	set(&p.CommentNotifications, c.Comment)
	set(&p.EmailNotifications, c.Email)
	set(&p.PushNotifications, c.Push)
	return p
}

// Preferences shows the notification preferences
func (s *NotificationService) Preferences(ctx context.Context) error {
	if err := s.app.Auth.RequireAuth(); err != nil {
		return err
	}
	prefs, err := s.app.Notifications.Preferences(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch preferences: %w", err)
	}
	return s.showPreferences(prefs)
}

// UpdatePreferences reads the current preferences, applies changes and
// writes the result back
func (s *NotificationService) UpdatePreferences(ctx context.Context, changes PreferenceChanges) error {
	if err := s.app.Auth.RequireAuth(); err != nil {
		return err
	}
	if changes.Empty() {
		return fmt.Errorf("nothing to update")
	}
	current, err := s.app.Notifications.Preferences(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch preferences: %w", err)
	}
	updated, err := s.app.Notifications.UpdatePreferences(ctx, changes.apply(*current))
	if err != nil {
		return fmt.Errorf("failed to update preferences: %w", err)
	}
	if !s.out.IsJSON() {
		s.out.Success("Preferences updated")
	}
	return s.showPreferences(updated)
}

func (s *NotificationService) showPreferences(p *api.NotificationPreferences) error {
	if s.out.IsJSON() {
		return s.out.JSON(p)
	}
	return s.out.Record("Notification preferences", []output.Field{
		{Key: "Follows", Value: onOff(p.FollowNotifications)},
		{Key: "Likes", Value: onOff(p.LikeNotifications)},
		{Key: "Comments", Value: onOff(p.CommentNotifications)},
		{Key: "Email", Value: onOff(p.EmailNotifications)},
		{Key: "Push", Value: onOff(p.PushNotifications)},
	})
}

// Dismiss hides a notification's toast from now on
func (s *NotificationService) Dismiss(id string) error {
	toasts := s.app.NewToasts()
	defer toasts.Close()
	if err := toasts.Dismiss(id); err != nil {
		return fmt.Errorf("failed to save dismissed notification: %w", err)
	}
	logger.Debug("Dismissed notification", "id", id)
	s.out.Success("Dismissed")
	return nil
}

// ResetDismissed lets every dismissed notification show a toast again
func (s *NotificationService) ResetDismissed() error {
	toasts := s.app.NewToasts()
	defer toasts.Close()
	toasts.ResetDismissed()
	s.out.Success("Dismissed notifications cleared")
	return nil
}
