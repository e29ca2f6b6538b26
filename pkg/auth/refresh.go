package auth

import (
	"context"
	"errors"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/socialconnect/cli/pkg/api"
	"github.com/socialconnect/cli/pkg/logger"
	"github.com/socialconnect/cli/pkg/metrics"
	"github.com/socialconnect/cli/pkg/session"
	"golang.org/x/sync/singleflight"
)

// ErrNoRefreshToken means there is nothing to refresh with
var ErrNoRefreshToken = errors.New("no refresh token - please log in again")

// refreshTimeout bounds the shared refresh call, which outlives any single
// caller's context
const refreshTimeout = 30 * time.Second

// Refresher exchanges the persisted refresh token for a new access token.
// Concurrent callers share one in-flight refresh.
type Refresher struct {
	sessions *session.Store
	rest     *resty.Client
	group    singleflight.Group
}

// NewRefresher returns a refresher that calls the refresh endpoint through
// rest, which must not carry the refresh transport itself.
func NewRefresher(sessions *session.Store, rest *resty.Client) *Refresher {
	return &Refresher{sessions: sessions, rest: rest}
}

// Refresh performs the exchange and persists the result. A rejected or
// missing refresh token clears the persisted session; a cancelled caller
// only stops waiting and leaves the shared refresh running for the others.
func (r *Refresher) Refresh(ctx context.Context) (string, error) {
	ch := r.group.DoChan("refresh", func() (interface{}, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()
		return r.refresh(shared)
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Shared {
			logger.Debug("Joined in-flight token refresh")
		}
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (r *Refresher) refresh(ctx context.Context) (string, error) {
	m := metrics.Get()

	refreshToken := r.sessions.RefreshToken()
	if refreshToken == "" {
		m.TokenRefreshesTotal.WithLabelValues("missing").Inc()
		r.clear()
		return "", ErrNoRefreshToken
	}

	resp, err := api.RefreshAccessToken(ctx, r.rest, refreshToken)
	if err != nil {
		m.TokenRefreshesTotal.WithLabelValues("failure").Inc()
		// A timed-out exchange says nothing about the refresh token
		if ctx.Err() == nil {
			r.clear()
		}
		return "", err
	}

	if err := r.sessions.UpdateAccessToken(resp.Access, resp.Refresh); err != nil {
		m.TokenRefreshesTotal.WithLabelValues("failure").Inc()
		return "", err
	}
	m.TokenRefreshesTotal.WithLabelValues("success").Inc()
	return resp.Access, nil
}

func (r *Refresher) clear() {
	if err := r.sessions.Clear(); err != nil {
		logger.Error("Failed to clear session", "error", err)
	}
}
