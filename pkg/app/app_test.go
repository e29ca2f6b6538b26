package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/socialconnect/cli/pkg/api"
	"github.com/socialconnect/cli/pkg/stream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backend serves login, the notification list and the stream
func backend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/users/login/", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"access_token":"tok","refresh_token":"ref","user":{"id":"u1","username":"ada"}}`)
	})
	mux.HandleFunc("/notifications/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set(api.UnreadCountHeader, "1")
		io.WriteString(w, `[{"id":"n1","sender":{"username":"bob"},"notification_type":"follow","message":"started following you","is_read":false,"created_at":"2024-05-01T10:00:00Z"}]`)
	})
	mux.HandleFunc("/notifications/stream/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"type\":\"heartbeat\",\"unread_count\":4}\n\n")
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newApp(t *testing.T, baseURL string) *App {
	t.Helper()
	a := New(Options{BaseURL: baseURL, Timeout: 5 * time.Second, StorageDir: t.TempDir()})
	t.Cleanup(a.Close)
	return a
}

func TestLoginThenWatch(t *testing.T) {
	srv := backend(t)
	a := newApp(t, srv.URL)

	_, err := a.Auth.Login(context.Background(), "ada", "pw")
	require.NoError(t, err)
	require.True(t, a.Auth.State().IsAuthenticated)

	src, err := a.StreamSource()
	require.NoError(t, err)
	assert.Equal(t, "sse", src.Name())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a.Notifications.Watch(ctx, src, a.StreamOptions())

	snap := a.Notifications.Snapshot()
	require.Len(t, snap.Notifications, 1)
	assert.Equal(t, 4, snap.UnreadCount, "heartbeat overrides the fetched count")
}

func TestRestoreAcrossInstances(t *testing.T) {
	srv := backend(t)
	dir := t.TempDir()

	first := New(Options{BaseURL: srv.URL, Timeout: 5 * time.Second, StorageDir: dir})
	_, err := first.Auth.Login(context.Background(), "ada", "pw")
	require.NoError(t, err)

	second := New(Options{BaseURL: srv.URL, Timeout: 5 * time.Second, StorageDir: dir})
	state := second.Auth.RestoreAuth()
	assert.True(t, state.IsAuthenticated)
	assert.Equal(t, "u1", state.UserID())
	assert.Equal(t, "tok", second.Client.AccessToken())
}

func TestStreamSourceSelection(t *testing.T) {
	a := New(Options{BaseURL: "https://api.example.com/api", StorageDir: t.TempDir(), StreamTransport: TransportWebSocket})
	src, err := a.StreamSource()
	require.NoError(t, err)
	assert.Equal(t, "websocket", src.Name())

	a = New(Options{BaseURL: "http://x", StorageDir: t.TempDir(), StreamTransport: "carrier-pigeon"})
	_, err = a.StreamSource()
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "carrier-pigeon"))
}

func TestStreamOptions(t *testing.T) {
	a := New(Options{StorageDir: t.TempDir(), StreamReconnect: true, MaxReconnectInterval: time.Minute})
	assert.Equal(t, stream.Options{Reconnect: true, MaxInterval: time.Minute}, a.StreamOptions())
}

func TestToastsShareStorage(t *testing.T) {
	a := newApp(t, "http://x")
	m := a.NewToasts()
	defer m.Close()
	require.NoError(t, m.Dismiss("n1"))

	again := a.NewToasts()
	defer again.Close()
	assert.True(t, again.IsDismissed("n1"))
}
