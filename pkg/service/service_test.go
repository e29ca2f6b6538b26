package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/fatih/color"
	"github.com/socialconnect/cli/pkg/api"
	"github.com/socialconnect/cli/pkg/app"
	clierrors "github.com/socialconnect/cli/pkg/errors"
	"github.com/socialconnect/cli/pkg/output"
	"github.com/socialconnect/cli/pkg/prompter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// backend is a fake server for the endpoints the services call
type backend struct {
	srv   *httptest.Server
	mux   *http.ServeMux
	prefs api.NotificationPreferences

	mu     sync.Mutex
	role   string
	hits   map[string]int
	bodies map[string][]byte
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	b := &backend{
		mux:    http.NewServeMux(),
		prefs:  api.NotificationPreferences{FollowNotifications: true, LikeNotifications: true, CommentNotifications: true},
		hits:   make(map[string]int),
		bodies: make(map[string][]byte),
	}
	b.mux.HandleFunc("POST /users/login/", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		role := b.role
		b.mu.Unlock()
		writeJSON(w, fmt.Sprintf(`{"access_token":"tok","refresh_token":"ref","user":{"id":"%s","username":"ada","first_name":"Ada","role":"%s"}}`, gofakeit.UUID(), role))
	})
	b.mux.HandleFunc("POST /users/logout/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{}`)
	})
	b.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))
		b.mu.Lock()
		b.hits[key]++
		b.bodies[key] = body
		b.mu.Unlock()
		b.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(b.srv.Close)
	return b
}

func (b *backend) setRole(role string) {
	b.mu.Lock()
	b.role = role
	b.mu.Unlock()
}

func (b *backend) hitCount(key string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[key]
}

// body returns the last request body sent to key
func (b *backend) body(key string) []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bodies[key]
}

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	io.WriteString(w, body)
}

// fixture builds services over a fresh app pointed at the backend
type fixture struct {
	app  *app.App
	out  *bytes.Buffer
	deps Deps
}

func newFixture(t *testing.T, b *backend, format output.OutputFormat, input string) *fixture {
	t.Helper()
	a := app.New(app.Options{BaseURL: b.srv.URL, Timeout: 5 * time.Second, StorageDir: t.TempDir()})
	t.Cleanup(a.Close)
	out := &bytes.Buffer{}
	return &fixture{
		app: a,
		out: out,
		deps: Deps{
			App:    a,
			Out:    output.New(out, format),
			Prompt: prompter.New(strings.NewReader(input), io.Discard),
			Now:    func() time.Time { return fixedNow },
		},
	}
}

func (f *fixture) login(t *testing.T) {
	t.Helper()
	_, err := f.app.Auth.Login(context.Background(), "ada", "pw")
	require.NoError(t, err)
}

func TestLoginPromptsForMissingValues(t *testing.T) {
	b := newBackend(t)
	f := newFixture(t, b, output.FormatText, "ada\npw\n")

	require.NoError(t, NewAuthService(f.deps).Login(context.Background(), "", ""))
	assert.Contains(t, f.out.String(), "Logged in as Ada (@ada)")
	assert.True(t, f.app.Auth.State().IsAuthenticated)
}

func TestStatusSignedOut(t *testing.T) {
	b := newBackend(t)
	f := newFixture(t, b, output.FormatText, "")

	require.NoError(t, NewAuthService(f.deps).Status())
	assert.Contains(t, f.out.String(), "Not logged in.")
}

func TestStatusSignedIn(t *testing.T) {
	b := newBackend(t)
	f := newFixture(t, b, output.FormatText, "")
	f.login(t)

	require.NoError(t, NewAuthService(f.deps).Status())
	assert.Contains(t, f.out.String(), "@ada")
	assert.Contains(t, f.out.String(), "Role: user")
}

func TestCommandsRequireLogin(t *testing.T) {
	b := newBackend(t)
	f := newFixture(t, b, output.FormatText, "")
	ctx := context.Background()

	err := NewPostService(f.deps).Feed(ctx, 1, "")
	require.Error(t, err)
	assert.Equal(t, clierrors.ErrorTypeAuth, clierrors.CategorizeError(err).Type)

	require.Error(t, NewNotificationService(f.deps).List(ctx, false))
	require.Error(t, NewNotificationWatcherService(f.deps).Watch(ctx, WatchOptions{}))
}

func post(category, content string) string {
	return fmt.Sprintf(`{"id":"%s","content":"%s","category":"%s","author":{"id":"%s","username":"bob"},"created_at":"2024-05-01T11:00:00Z"}`,
		gofakeit.UUID(), content, category, gofakeit.UUID())
}

func TestFeedFiltersCategoryLocally(t *testing.T) {
	b := newBackend(t)
	b.mux.HandleFunc("GET /posts/feed/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, "["+post("question", "anyone up for chess")+","+post("general", "nice weather")+"]")
	})
	f := newFixture(t, b, output.FormatText, "")
	f.login(t)

	require.NoError(t, NewPostService(f.deps).Feed(context.Background(), 1, "Question"))
	assert.Contains(t, f.out.String(), "anyone up for chess")
	assert.NotContains(t, f.out.String(), "nice weather")
}

func TestFeedJSON(t *testing.T) {
	b := newBackend(t)
	b.mux.HandleFunc("GET /posts/feed/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, "["+post("general", "first")+","+post("general", "second")+"]")
	})
	f := newFixture(t, b, output.FormatJSON, "")
	f.login(t)

	require.NoError(t, NewPostService(f.deps).Feed(context.Background(), 1, ""))
	var posts []api.Post
	require.NoError(t, json.Unmarshal(f.out.Bytes(), &posts))
	require.Len(t, posts, 2)
	assert.Equal(t, "first", posts[0].Content)
}

func TestDeletePostAsksFirst(t *testing.T) {
	b := newBackend(t)
	b.mux.HandleFunc("DELETE /posts/{id}/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	id := gofakeit.UUID()

	f := newFixture(t, b, output.FormatText, "n\n")
	f.login(t)
	require.NoError(t, NewPostService(f.deps).Delete(context.Background(), id, false))
	assert.Contains(t, f.out.String(), "Cancelled.")
	assert.Equal(t, 0, b.hitCount("DELETE /posts/"+id+"/"))

	f = newFixture(t, b, output.FormatText, "")
	f.login(t)
	require.NoError(t, NewPostService(f.deps).Delete(context.Background(), id, true))
	assert.Contains(t, f.out.String(), "Post deleted")
	assert.Equal(t, 1, b.hitCount("DELETE /posts/"+id+"/"))
}

func TestAddCommentPromptsForContent(t *testing.T) {
	b := newBackend(t)
	postID := gofakeit.UUID()
	b.mux.HandleFunc("POST /posts/{id}/comments/", func(w http.ResponseWriter, r *http.Request) {
		var req api.CreateCommentRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		writeJSON(w, fmt.Sprintf(`{"id":"%s","content":"%s","author":{"username":"ada"},"created_at":"2024-05-01T11:59:00Z"}`, gofakeit.UUID(), req.Content))
	})
	f := newFixture(t, b, output.FormatText, "great post\n")
	f.login(t)

	require.NoError(t, NewPostService(f.deps).AddComment(context.Background(), postID, ""))
	assert.JSONEq(t, `{"content":"great post"}`, string(b.body("POST /posts/"+postID+"/comments/")))
	assert.Contains(t, f.out.String(), "Comment added")
}

func TestViewMeResolvesSignedInUser(t *testing.T) {
	b := newBackend(t)
	b.mux.HandleFunc("GET /users/{id}/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, fmt.Sprintf(`{"id":"%s","username":"ada","first_name":"Ada","profile":{"bio":"hello there"}}`, r.PathValue("id")))
	})
	f := newFixture(t, b, output.FormatText, "")
	f.login(t)

	require.NoError(t, NewUserService(f.deps).View(context.Background(), "me"))
	assert.Equal(t, 1, b.hitCount("GET /users/"+f.app.Auth.State().UserID()+"/"))
	assert.Contains(t, f.out.String(), "hello there")
}

func TestSettingsUpdateNeedsChanges(t *testing.T) {
	b := newBackend(t)
	f := newFixture(t, b, output.FormatText, "")
	f.login(t)

	err := NewSettingsService(f.deps).Update(context.Background(), api.SettingsUpdate{})
	require.Error(t, err)
	assert.Equal(t, 0, b.hitCount("PUT /users/settings/"))
}

func notificationsHandler(list string, unread int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(api.UnreadCountHeader, fmt.Sprint(unread))
		writeJSON(w, list)
	}
}

const twoNotifications = `[
	{"id":"n2","sender":{"username":"bob","first_name":"Bob"},"notification_type":"like","message":"liked your post","is_read":false,"created_at":"2024-05-01T11:00:00Z"},
	{"id":"n1","sender":{"username":"cy"},"notification_type":"follow","message":"started following you","is_read":true,"created_at":"2024-05-01T10:00:00Z"}
]`

func TestNotificationListUnreadOnly(t *testing.T) {
	b := newBackend(t)
	b.mux.HandleFunc("GET /notifications/", notificationsHandler(twoNotifications, 1))
	f := newFixture(t, b, output.FormatJSON, "")
	f.login(t)

	require.NoError(t, NewNotificationService(f.deps).List(context.Background(), true))
	var got api.NotificationList
	require.NoError(t, json.Unmarshal(f.out.Bytes(), &got))
	require.Len(t, got.Notifications, 1)
	assert.Equal(t, "n2", got.Notifications[0].ID)
	assert.Equal(t, 1, got.UnreadCount)
}

func TestUpdatePreferencesKeepsUnchangedFields(t *testing.T) {
	b := newBackend(t)
	b.mux.HandleFunc("GET /notifications/preferences/", func(w http.ResponseWriter, r *http.Request) {
		data, _ := json.Marshal(b.prefs)
		writeJSON(w, string(data))
	})
	b.mux.HandleFunc("PUT /notifications/preferences/", func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		writeJSON(w, string(data))
	})
	f := newFixture(t, b, output.FormatText, "")
	f.login(t)

	off, on := false, true
	err := NewNotificationService(f.deps).UpdatePreferences(context.Background(), PreferenceChanges{Like: &off, Push: &on})
	require.NoError(t, err)

	var sent api.NotificationPreferences
	require.NoError(t, json.Unmarshal(b.body("PUT /notifications/preferences/"), &sent))
	assert.Equal(t, api.NotificationPreferences{
		FollowNotifications:  true,
		LikeNotifications:    false,
		CommentNotifications: true,
		PushNotifications:    true,
	}, sent)
	assert.Contains(t, f.out.String(), "Preferences updated")
}

func TestUpdatePreferencesNothingToDo(t *testing.T) {
	b := newBackend(t)
	f := newFixture(t, b, output.FormatText, "")
	f.login(t)
	require.Error(t, NewNotificationService(f.deps).UpdatePreferences(context.Background(), PreferenceChanges{}))
}

func TestDismissPersists(t *testing.T) {
	b := newBackend(t)
	f := newFixture(t, b, output.FormatText, "")

	svc := NewNotificationService(f.deps)
	require.NoError(t, svc.Dismiss("n7"))

	toasts := f.app.NewToasts()
	assert.True(t, toasts.IsDismissed("n7"))
	toasts.Close()

	require.NoError(t, svc.ResetDismissed())
	toasts = f.app.NewToasts()
	defer toasts.Close()
	assert.False(t, toasts.IsDismissed("n7"))
}

func TestAdminRequiresRole(t *testing.T) {
	b := newBackend(t)
	b.mux.HandleFunc("GET /admin/users/stats/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"users":{"total":12,"active":10},"posts":{"total":40,"today":3},"date":{"today":"2024-05-01"}}`)
	})

	f := newFixture(t, b, output.FormatText, "")
	f.login(t)
	err := NewAdminService(f.deps).Stats(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, b.hitCount("GET /admin/users/stats/"))

	b.setRole("admin")
	f = newFixture(t, b, output.FormatText, "")
	f.login(t)
	require.NoError(t, NewAdminService(f.deps).Stats(context.Background()))
	assert.Contains(t, f.out.String(), "Users: 12")
	assert.Contains(t, f.out.String(), "Posts today: 3 (2024-05-01)")
}

func TestAdminBulkDelete(t *testing.T) {
	b := newBackend(t)
	b.setRole("admin")
	b.mux.HandleFunc("POST /admin/posts/bulk-delete/", func(w http.ResponseWriter, r *http.Request) {
		var req api.BulkDeleteRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		writeJSON(w, fmt.Sprintf(`{"status":"ok","deleted_count":%d}`, len(req.PostIDs)))
	})
	f := newFixture(t, b, output.FormatText, "y\n")
	f.login(t)

	ids := []string{gofakeit.UUID(), gofakeit.UUID()}
	require.NoError(t, NewAdminService(f.deps).BulkDeletePosts(context.Background(), ids, false))
	var req api.BulkDeleteRequest
	require.NoError(t, json.Unmarshal(b.body("POST /admin/posts/bulk-delete/"), &req))
	assert.Equal(t, ids, req.PostIDs)
	assert.Contains(t, f.out.String(), "Deleted 2 posts")
}

func TestWatchPrintsUnreadOnce(t *testing.T) {
	b := newBackend(t)
	b.mux.HandleFunc("GET /notifications/", notificationsHandler(twoNotifications, 1))
	b.mux.HandleFunc("GET /notifications/stream/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, "data: {\"type\":\"connection\",\"message\":\"connected\"}\n\n")
		// n2 again, then a new one
		io.WriteString(w, "data: {\"type\":\"new_notification\",\"notification\":{\"id\":\"n2\",\"notification_type\":\"like\",\"message\":\"liked your post\"}}\n\n")
		io.WriteString(w, "data: {\"type\":\"new_notification\",\"notification\":{\"id\":\"n3\",\"sender\":{\"username\":\"dee\"},\"notification_type\":\"comment\",\"message\":\"commented on your post\"}}\n\n")
	})
	f := newFixture(t, b, output.FormatText, "")
	f.login(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, NewNotificationWatcherService(f.deps).Watch(ctx, WatchOptions{}))

	out := f.out.String()
	assert.Equal(t, 1, strings.Count(out, "liked your post"))
	assert.Contains(t, out, "commented on your post")
	assert.NotContains(t, out, "started following you", "read notifications are not printed")
	assert.Contains(t, out, "2 unread")
	assert.Contains(t, out, "Notification watcher stopped")
}

func TestWatchListRedraws(t *testing.T) {
	b := newBackend(t)
	b.mux.HandleFunc("GET /notifications/", notificationsHandler(twoNotifications, 1))
	b.mux.HandleFunc("GET /notifications/stream/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, "data: {\"type\":\"heartbeat\",\"unread_count\":7}\n\n")
	})
	f := newFixture(t, b, output.FormatText, "")
	f.login(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, NewNotificationWatcherService(f.deps).Watch(ctx, WatchOptions{List: true}))

	out := f.out.String()
	assert.Contains(t, out, "Notifications (7 unread)")
	assert.Contains(t, out, "started following you", "the list shows read entries too")
}

func TestWatchStopsOnLogout(t *testing.T) {
	b := newBackend(t)
	b.mux.HandleFunc("GET /notifications/", notificationsHandler(`[]`, 0))
	connected := make(chan struct{})
	b.mux.HandleFunc("GET /notifications/stream/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, ": hello\n\n")
		w.(http.Flusher).Flush()
		close(connected)
		<-r.Context().Done()
	})
	f := newFixture(t, b, output.FormatText, "")
	f.login(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	errc := make(chan error, 1)
	go func() {
		errc <- NewNotificationWatcherService(f.deps).Watch(ctx, WatchOptions{Toasts: true})
	}()

	select {
	case <-connected:
	case <-ctx.Done():
		t.Fatal("stream never connected")
	}
	require.NoError(t, f.app.Auth.Logout(context.Background()))

	select {
	case err := <-errc:
		require.Error(t, err)
		assert.Equal(t, clierrors.ErrorTypeAuth, clierrors.CategorizeError(err).Type)
	case <-ctx.Done():
		t.Fatal("watch did not stop after logout")
	}
}
