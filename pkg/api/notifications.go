package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/socialconnect/cli/pkg/logger"
	"github.com/socialconnect/cli/pkg/validation"
)

// UnreadCountHeader carries the unread count on the list response
const UnreadCountHeader = "X-Unread-Count"

// StreamPath is the server-sent events endpoint for live notifications
const StreamPath = "/notifications/stream/"

// ListNotifications fetches the user's notifications. The list endpoint
// returns a bare array; a paginated envelope is accepted as well.
func (c *Client) ListNotifications(ctx context.Context) (*NotificationList, error) {
	logger.Debug("Fetching notifications")

	resp, err := c.raw(ctx, http.MethodGet, "/notifications/", nil, nil)
	if err != nil {
		return nil, err
	}

	items, _, err := decodeItems[Notification](resp.Body(), "notifications")
	if err != nil {
		return nil, fmt.Errorf("failed to decode notifications: %w", err)
	}

	unread := -1
	if h := strings.TrimSpace(resp.Header().Get(UnreadCountHeader)); h != "" {
		if n, err := strconv.Atoi(h); err == nil {
			unread = n
		}
	}
	return &NotificationList{Notifications: items, UnreadCount: unread}, nil
}

// MarkNotificationRead marks one notification read
func (c *Client) MarkNotificationRead(ctx context.Context, notificationID string) error {
	if err := validation.ID("notification", notificationID); err != nil {
		return err
	}
	return c.do(ctx, http.MethodPut, "/notifications/"+notificationID+"/read/", nil, nil)
}

// MarkAllNotificationsRead marks every notification read
func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	return c.post(ctx, "/notifications/mark-all-read/", nil, nil)
}

// UnreadCount returns the server's unread notification count
func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	var resp struct {
		UnreadCount int `json:"unread_count"`
	}
	if err := c.get(ctx, "/notifications/unread-count/", &resp); err != nil {
		return 0, err
	}
	return resp.UnreadCount, nil
}

// GetNotificationPreferences returns which notifications the user receives
func (c *Client) GetNotificationPreferences(ctx context.Context) (*NotificationPreferences, error) {
	var prefs NotificationPreferences
	if err := c.get(ctx, "/notifications/preferences/", &prefs); err != nil {
		return nil, err
	}
	return &prefs, nil
}

// UpdateNotificationPreferences stores new preferences and returns what the
// server echoed back.
func (c *Client) UpdateNotificationPreferences(ctx context.Context, prefs NotificationPreferences) (*NotificationPreferences, error) {
	var resp struct {
		Message     string                  `json:"message"`
		Preferences NotificationPreferences `json:"preferences"`
	}
	if err := c.do(ctx, http.MethodPut, "/notifications/preferences/", prefs, &resp); err != nil {
		return nil, err
	}
	return &resp.Preferences, nil
}

// StreamURL returns the absolute URL of the notification stream
func (c *Client) StreamURL() string {
	return strings.TrimRight(c.http.BaseURL(), "/") + StreamPath
}
