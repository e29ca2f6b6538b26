// Package stream delivers live notification events from the backend. A
// Source produces events for one connection; Subscribe turns a source into a
// single ordered channel that lives until its context is cancelled.
package stream

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/socialconnect/cli/pkg/api"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// EventType discriminates stream events
type EventType string

const (
	EventConnection      EventType = "connection"
	EventHeartbeat       EventType = "heartbeat"
	EventNewNotification EventType = "new_notification"
	// EventError is sent by the server right before it ends the stream
	EventError EventType = "error"
)

// Event is one message from the push stream. Which fields are set depends
// on Type.
type Event struct {
	Type EventType

	// Message is set for connection and error events
	Message string
	// UnreadCount is set for heartbeat events
	UnreadCount int
	// Notification is set for new_notification events
	Notification *api.Notification
}

type wireEvent struct {
	Type         EventType         `json:"type"`
	Message      string            `json:"message"`
	UnreadCount  *int              `json:"unread_count"`
	Notification *api.Notification `json:"notification"`
}

// Decode parses one event payload. Unknown event types are returned as-is
// so callers can ignore them.
func Decode(data []byte) (Event, error) {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return Event{}, fmt.Errorf("malformed stream event: %w", err)
	}

	ev := Event{Type: w.Type, Message: w.Message}
	switch w.Type {
	case "":
		return Event{}, fmt.Errorf("stream event without type")
	case EventHeartbeat:
		if w.UnreadCount == nil {
			return Event{}, fmt.Errorf("heartbeat without unread_count")
		}
		ev.UnreadCount = *w.UnreadCount
	case EventNewNotification:
		if w.Notification == nil || w.Notification.ID == "" {
			return Event{}, fmt.Errorf("new_notification without a notification id")
		}
		ev.Notification = w.Notification
	}
	return ev, nil
}
