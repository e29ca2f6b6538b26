// Package session persists the signed-in user and their token pair.
package session

import (
	"fmt"

	"github.com/socialconnect/cli/pkg/api"
	"github.com/socialconnect/cli/pkg/logger"
	"github.com/socialconnect/cli/pkg/storage"
)

// StorageKey is the storage key the session blob lives under
const StorageKey = "auth-storage"

// Session is the authenticated identity. The zero value is signed out.
type Session struct {
	User            *api.User `json:"user"`
	Token           string    `json:"token"`
	RefreshToken    string    `json:"refreshToken"`
	IsAuthenticated bool      `json:"isAuthenticated"`
}

// Valid reports whether the session carries enough to make requests
func (s Session) Valid() bool {
	return s.Token != "" && s.User != nil
}

// envelope is the on-disk shape of the blob
type envelope struct {
	State   Session `json:"state"`
	Version int     `json:"version"`
}

// Store reads and writes the persisted session. Every read goes to disk so
// a token written by another process or command is picked up immediately.
type Store struct {
	storage *storage.Store
}

// NewStore returns a session store backed by s
func NewStore(s *storage.Store) *Store {
	return &Store{storage: s}
}

// Load returns the persisted session, or a zero Session when there is none.
// A corrupt blob is treated as signed out.
func (st *Store) Load() Session {
	var env envelope
	ok, err := st.storage.Get(StorageKey, &env)
	if err != nil {
		logger.Warn("Ignoring unreadable session", "error", err)
		return Session{}
	}
	if !ok {
		return Session{}
	}
	return env.State
}

// Save persists s
func (st *Store) Save(s Session) error {
	if err := st.storage.Set(StorageKey, envelope{State: s}); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Clear removes the persisted session
func (st *Store) Clear() error {
	return st.storage.Remove(StorageKey)
}

// UpdateAccessToken replaces the access token, and the refresh token when a
// rotated one is supplied, keeping everything else.
func (st *Store) UpdateAccessToken(access, refresh string) error {
	s := st.Load()
	if s.RefreshToken == "" && refresh == "" {
		return fmt.Errorf("no session to update")
	}
	s.Token = access
	if refresh != "" {
		s.RefreshToken = refresh
	}
	return st.Save(s)
}

// AccessToken returns the persisted access token
func (st *Store) AccessToken() string {
	return st.Load().Token
}

// RefreshToken returns the persisted refresh token
func (st *Store) RefreshToken() string {
	return st.Load().RefreshToken
}

// Path returns the file backing the session
func (st *Store) Path() string {
	return st.storage.Path(StorageKey)
}
