package auth

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/socialconnect/cli/pkg/api"
	"github.com/socialconnect/cli/pkg/client"
	clierrors "github.com/socialconnect/cli/pkg/errors"
	"github.com/socialconnect/cli/pkg/session"
	"github.com/socialconnect/cli/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend stands in for the users and posts endpoints
type fakeBackend struct {
	mu           sync.Mutex
	validAccess  string
	refreshOK    bool
	refreshCalls int32
	logoutCalls  int32
	logoutStatus int
	refreshDelay time.Duration
	gate         func()
}

func (f *fakeBackend) access() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.validAccess
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/users/login/":
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), `"password":"right"`) {
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"error":"Invalid credentials"}`)
			return
		}
		io.WriteString(w, `{"access_token":"access-1","refresh_token":"refresh-1","user":{"id":"u1","username":"alice"}}`)
	case "/users/token/refresh/":
		atomic.AddInt32(&f.refreshCalls, 1)
		time.Sleep(f.refreshDelay)
		if !f.refreshOK {
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"detail":"Token is invalid or expired"}`)
			return
		}
		f.mu.Lock()
		f.validAccess = "access-2"
		f.mu.Unlock()
		io.WriteString(w, `{"access":"access-2"}`)
	case "/users/logout/":
		atomic.AddInt32(&f.logoutCalls, 1)
		if f.logoutStatus != 0 {
			w.WriteHeader(f.logoutStatus)
			return
		}
		io.WriteString(w, `{"message":"Logout successful"}`)
	case "/users/register/":
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"message":"User registered successfully. Please check your email to verify your account.","user_id":"u9"}`)
	case "/users/me/":
		if r.Header.Get("Authorization") != "Bearer "+f.access() {
			f.mu.Lock()
			gate := f.gate
			f.mu.Unlock()
			if gate != nil {
				gate()
			}
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"detail":"Given token not valid for any token type"}`)
			return
		}
		io.WriteString(w, `{"id":"u1","username":"alice"}`)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type harness struct {
	backend  *fakeBackend
	sessions *session.Store
	store    *Store
	api      *api.Client
	expired  int32
}

func newHarness(t *testing.T, backend *fakeBackend) *harness {
	t.Helper()
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	h := &harness{backend: backend, sessions: session.NewStore(storage.New(t.TempDir()))}
	refresher := NewRefresher(h.sessions, client.NewPlain(srv.URL, 5*time.Second, nil))

	c := client.New(client.Options{
		BaseURL:   srv.URL,
		Timeout:   5 * time.Second,
		Tokens:    h.sessions,
		Refresher: refresher,
		OnUnauthorized: func() {
			atomic.AddInt32(&h.expired, 1)
			h.store.Expire()
		},
	})
	h.api = api.New(c)
	h.store = NewStore(h.api, h.sessions)
	return h
}

func TestLoginThenRestore(t *testing.T) {
	h := newHarness(t, &fakeBackend{validAccess: "access-1"})

	user, err := h.store.Login(context.Background(), "alice", "right")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	st := h.store.State()
	assert.True(t, st.IsAuthenticated)
	assert.Equal(t, "access-1", st.Token)
	assert.Equal(t, "refresh-1", st.RefreshToken)

	// A fresh process sees the same identity
	restored := NewStore(h.api, h.sessions).RestoreAuth()
	assert.True(t, restored.IsAuthenticated)
	assert.Equal(t, "u1", restored.UserID())
	assert.Equal(t, "access-1", restored.Token)
	assert.Equal(t, "refresh-1", restored.RefreshToken)
}

func TestLoginFailureStaysSignedOut(t *testing.T) {
	h := newHarness(t, &fakeBackend{})

	_, err := h.store.Login(context.Background(), "alice", "wrong")
	require.Error(t, err)
	assert.Equal(t, "Invalid credentials", clierrors.CategorizeError(err).Message)
	assert.False(t, h.store.State().IsAuthenticated)
	assert.Empty(t, h.sessions.AccessToken())
	// Bad credentials never go through the refresh path
	assert.Zero(t, atomic.LoadInt32(&h.backend.refreshCalls))
}

func TestRegisterDoesNotAuthenticate(t *testing.T) {
	h := newHarness(t, &fakeBackend{})
	resp, err := h.store.Register(context.Background(), api.RegisterRequest{
		Email: "a@example.com", Username: "alice_1", Password: "longenough", PasswordConfirm: "longenough",
		FirstName: "Alice", LastName: "Liddell",
	})
	require.NoError(t, err)
	assert.Equal(t, "u9", resp.UserID)
	assert.Contains(t, resp.Message, "registered")
	assert.False(t, h.store.State().IsAuthenticated)
}

func TestLogoutClearsEvenWhenServerFails(t *testing.T) {
	h := newHarness(t, &fakeBackend{validAccess: "access-1", logoutStatus: http.StatusInternalServerError})
	_, err := h.store.Login(context.Background(), "alice", "right")
	require.NoError(t, err)

	require.NoError(t, h.store.Logout(context.Background()))
	assert.EqualValues(t, 1, atomic.LoadInt32(&h.backend.logoutCalls))
	assert.False(t, h.store.State().IsAuthenticated)
	assert.False(t, h.sessions.Load().Valid())
}

func TestRestoreAuthIsIdempotent(t *testing.T) {
	h := newHarness(t, &fakeBackend{})
	assert.False(t, h.store.RestoreAuth().IsAuthenticated)
	assert.False(t, h.store.RestoreAuth().IsAuthenticated)

	require.NoError(t, h.sessions.Save(session.Session{User: &api.User{ID: "u1"}, Token: "t", RefreshToken: "r", IsAuthenticated: true}))
	first := h.store.RestoreAuth()
	second := h.store.RestoreAuth()
	assert.Equal(t, first, second)
	assert.True(t, second.IsAuthenticated)
}

func TestRestoreAuthWithTokenButNoUserClears(t *testing.T) {
	h := newHarness(t, &fakeBackend{})
	require.NoError(t, h.sessions.Save(session.Session{Token: "t", RefreshToken: "r"}))
	assert.False(t, h.store.RestoreAuth().IsAuthenticated)
	assert.Empty(t, h.sessions.RefreshToken())
}

func TestExpiredTokenIsRefreshedAndRetried(t *testing.T) {
	h := newHarness(t, &fakeBackend{validAccess: "access-1", refreshOK: true})
	_, err := h.store.Login(context.Background(), "alice", "right")
	require.NoError(t, err)

	// The server rotates its signing key
	h.backend.mu.Lock()
	h.backend.validAccess = "unknown"
	h.backend.mu.Unlock()

	me, err := h.api.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "alice", me.Username)
	assert.EqualValues(t, 1, atomic.LoadInt32(&h.backend.refreshCalls))
	assert.Equal(t, "access-2", h.sessions.AccessToken())
	assert.Equal(t, "refresh-1", h.sessions.RefreshToken())

	h.store.Sync()
	assert.Equal(t, "access-2", h.store.State().Token)
}

func TestFailedRefreshSignsOut(t *testing.T) {
	h := newHarness(t, &fakeBackend{validAccess: "access-1", refreshOK: false})
	_, err := h.store.Login(context.Background(), "alice", "right")
	require.NoError(t, err)

	var changes []State
	h.store.Subscribe(func(s State) { changes = append(changes, s) })

	h.backend.mu.Lock()
	h.backend.validAccess = "unknown"
	h.backend.mu.Unlock()

	_, err = h.api.Me(context.Background())
	require.Error(t, err)
	assert.True(t, clierrors.IsType(err, clierrors.ErrorTypeSessionExpired))

	assert.EqualValues(t, 1, atomic.LoadInt32(&h.expired))
	assert.False(t, h.sessions.Load().Valid())
	st := h.store.State()
	assert.False(t, st.IsAuthenticated)
	assert.True(t, st.Expired)
	assert.True(t, clierrors.IsType(h.store.RequireAuth(), clierrors.ErrorTypeSessionExpired))

	require.Len(t, changes, 1)
	assert.False(t, changes[0].IsAuthenticated)
}

func TestConcurrentRefreshIsSingleFlight(t *testing.T) {
	const callers = 4
	var arrived sync.WaitGroup
	arrived.Add(callers)
	backend := &fakeBackend{validAccess: "access-1", refreshOK: true, refreshDelay: 300 * time.Millisecond}
	h := newHarness(t, backend)
	_, err := h.store.Login(context.Background(), "alice", "right")
	require.NoError(t, err)

	backend.mu.Lock()
	backend.validAccess = "unknown"
	backend.mu.Unlock()

	// Hold every first attempt until all callers have been rejected together
	var once sync.Once
	release := make(chan struct{})
	backend.mu.Lock()
	backend.gate = func() {
		arrived.Done()
		once.Do(func() {
			go func() {
				arrived.Wait()
				close(release)
			}()
		})
		<-release
	}
	backend.mu.Unlock()

	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.api.Me(context.Background())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&backend.refreshCalls))
}

func TestCancelledCallerDoesNotAbortSharedRefresh(t *testing.T) {
	backend := &fakeBackend{validAccess: "access-1", refreshOK: true, refreshDelay: 300 * time.Millisecond}
	h := newHarness(t, backend)
	_, err := h.store.Login(context.Background(), "alice", "right")
	require.NoError(t, err)

	refresher := NewRefresher(h.sessions, client.NewPlain(h.api.HTTP().BaseURL(), 5*time.Second, nil))

	leaderCtx, cancelLeader := context.WithCancel(context.Background())
	defer cancelLeader()
	leaderErr := make(chan error, 1)
	go func() {
		_, err := refresher.Refresh(leaderCtx)
		leaderErr <- err
	}()
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&backend.refreshCalls) == 1
	}, 2*time.Second, 5*time.Millisecond)

	type result struct {
		token string
		err   error
	}
	follower := make(chan result, 1)
	go func() {
		token, err := refresher.Refresh(context.Background())
		follower <- result{token, err}
	}()
	time.Sleep(50 * time.Millisecond)
	cancelLeader()

	assert.ErrorIs(t, <-leaderErr, context.Canceled)
	got := <-follower
	require.NoError(t, got.err)
	assert.Equal(t, "access-2", got.token)

	assert.EqualValues(t, 1, atomic.LoadInt32(&backend.refreshCalls))
	saved := h.sessions.Load()
	assert.True(t, saved.Valid())
	assert.Equal(t, "access-2", saved.Token)
}

func TestRequireAdmin(t *testing.T) {
	h := newHarness(t, &fakeBackend{})
	assert.True(t, clierrors.IsType(h.store.RequireAdmin(), clierrors.ErrorTypeAuth))

	require.NoError(t, h.sessions.Save(session.Session{User: &api.User{ID: "u1", Role: "user"}, Token: "t", RefreshToken: "r"}))
	h.store.RestoreAuth()
	assert.True(t, clierrors.IsType(h.store.RequireAdmin(), clierrors.ErrorTypeForbidden))

	require.NoError(t, h.sessions.Save(session.Session{User: &api.User{ID: "u1", Role: "admin"}, Token: "t", RefreshToken: "r"}))
	h.store.RestoreAuth()
	assert.NoError(t, h.store.RequireAdmin())
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp":     exp.Unix(),
		"user_id": "u1",
	}).SignedString([]byte("not-the-server-key"))
	require.NoError(t, err)

	got, err := TokenExpiry(token)
	require.NoError(t, err)
	assert.True(t, exp.Equal(got))

	_, err = TokenExpiry("garbage")
	assert.Error(t, err)

	h := newHarness(t, &fakeBackend{})
	_, err = h.store.AccessTokenExpiry()
	assert.ErrorIs(t, err, ErrNoToken)
}
