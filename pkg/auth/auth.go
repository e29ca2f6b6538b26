// Package auth owns the signed-in identity: login, registration, logout,
// restoring a persisted session and refreshing expired access tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/socialconnect/cli/pkg/api"
	clierrors "github.com/socialconnect/cli/pkg/errors"
	"github.com/socialconnect/cli/pkg/logger"
	"github.com/socialconnect/cli/pkg/session"
)

// State is an immutable snapshot of the auth store
type State struct {
	User            *api.User
	Token           string
	RefreshToken    string
	IsAuthenticated bool
	// Expired is set when the session was dropped after a failed refresh
	Expired bool
}

// UserID returns the signed-in user's id, or "" when signed out
func (s State) UserID() string {
	if s.User == nil {
		return ""
	}
	return s.User.ID
}

// Store holds the current identity. Reads are lock-free snapshots; every
// mutation replaces the whole snapshot.
type Store struct {
	api      *api.Client
	sessions *session.Store

	state atomic.Pointer[State]

	mu        sync.Mutex
	listeners map[int]func(State)
	nextID    int
}

// NewStore returns a signed-out store. Call RestoreAuth to pick up a
// persisted session.
func NewStore(client *api.Client, sessions *session.Store) *Store {
	s := &Store{
		api:       client,
		sessions:  sessions,
		listeners: make(map[int]func(State)),
	}
	s.state.Store(&State{})
	return s
}

// State returns the current snapshot
func (s *Store) State() State {
	return *s.state.Load()
}

// Subscribe registers fn to be called after every identity change. fn runs
// with the store locked and must not call Login, Logout or RestoreAuth. The
// returned function unregisters it.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// swap must be called with mu held
func (s *Store) swap(next State) {
	prev := s.state.Swap(&next)
	if prev.UserID() == next.UserID() && prev.IsAuthenticated == next.IsAuthenticated {
		return
	}
	for _, fn := range s.listeners {
		fn(next)
	}
}

// Login authenticates and persists the session. On failure the store is
// left signed out.
func (s *Store) Login(ctx context.Context, identifier, password string) (*api.User, error) {
	resp, err := s.api.Login(ctx, api.LoginRequest{EmailOrUsername: identifier, Password: password})
	if err != nil {
		s.mu.Lock()
		s.swap(State{})
		s.mu.Unlock()
		return nil, err
	}

	user := resp.User
	sess := session.Session{
		User:            &user,
		Token:           resp.AccessToken,
		RefreshToken:    resp.RefreshToken,
		IsAuthenticated: true,
	}
	if err := s.sessions.Save(sess); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.swap(State{User: &user, Token: sess.Token, RefreshToken: sess.RefreshToken, IsAuthenticated: true})
	s.mu.Unlock()

	logger.Info("Logged in", "username", user.Username)
	return &user, nil
}

// Register creates an account and returns the backend's answer verbatim.
// The store stays signed out.
func (s *Store) Register(ctx context.Context, req api.RegisterRequest) (*api.RegisterResponse, error) {
	return s.api.Register(ctx, req)
}

// Logout tells the backend to revoke the refresh token, then clears the
// session whether or not that worked.
func (s *Store) Logout(ctx context.Context) error {
	refresh := s.sessions.RefreshToken()
	if refresh != "" {
		if err := s.api.Logout(ctx, refresh); err != nil {
			logger.Warn("Server logout failed", "error", err)
		}
	}
	return s.clear(false)
}

// RestoreAuth marks the store authenticated when a persisted token and user
// exist, and clears everything otherwise. Calling it repeatedly is safe.
func (s *Store) RestoreAuth() State {
	sess := s.sessions.Load()

	s.mu.Lock()
	defer s.mu.Unlock()

	if !sess.Valid() {
		if err := s.sessions.Clear(); err != nil {
			logger.Warn("Failed to clear session", "error", err)
		}
		s.swap(State{})
		return s.State()
	}

	s.swap(State{
		User:            sess.User,
		Token:           sess.Token,
		RefreshToken:    sess.RefreshToken,
		IsAuthenticated: true,
	})
	return s.State()
}

// Expire drops the session after the backend rejected both the access and
// the refresh token.
func (s *Store) Expire() {
	logger.Warn("Session expired")
	if err := s.clear(true); err != nil {
		logger.Error("Failed to clear session", "error", err)
	}
}

func (s *Store) clear(expired bool) error {
	err := s.sessions.Clear()
	s.mu.Lock()
	s.swap(State{Expired: expired})
	s.mu.Unlock()
	return err
}

// Sync reloads the access token after a transparent refresh so snapshots
// match what is on disk.
func (s *Store) Sync() {
	sess := s.sessions.Load()
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.State()
	if !cur.IsAuthenticated || !sess.Valid() {
		return
	}
	cur.Token = sess.Token
	cur.RefreshToken = sess.RefreshToken
	s.swap(cur)
}

// RequireAuth returns a not-logged-in error unless a user is signed in
func (s *Store) RequireAuth() error {
	st := s.State()
	if st.IsAuthenticated {
		return nil
	}
	if st.Expired {
		return clierrors.SessionExpiredError()
	}
	return clierrors.NotLoggedInError()
}

// RequireAdmin returns a forbidden error unless the user has the admin role
func (s *Store) RequireAdmin() error {
	if err := s.RequireAuth(); err != nil {
		return err
	}
	u := s.State().User
	if u == nil || !(u.IsAdmin || u.Role == "admin") {
		return clierrors.ForbiddenError()
	}
	return nil
}

// ErrNoToken is returned by AccessTokenExpiry when signed out
var ErrNoToken = errors.New("no access token")

// AccessTokenExpiry reads the exp claim of the current access token. The
// signature is not checked; the backend does that.
func (s *Store) AccessTokenExpiry() (time.Time, error) {
	token := s.State().Token
	if token == "" {
		return time.Time{}, ErrNoToken
	}
	return TokenExpiry(token)
}

// TokenExpiry reads the exp claim of a JWT without verifying it
func TokenExpiry(token string) (time.Time, error) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed access token: %w", err)
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, err
	}
	if exp == nil {
		return time.Time{}, fmt.Errorf("access token has no expiry")
	}
	return exp.Time, nil
}
