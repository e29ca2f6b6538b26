package client

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"

	clierrors "github.com/socialconnect/cli/pkg/errors"
	"github.com/socialconnect/cli/pkg/logger"
)

type ctxKey int

const skipAuthKey ctxKey = iota

// WithoutAuth marks requests made with ctx as anonymous: no bearer header is
// attached and a 401 is returned as-is. Login and registration use it so bad
// credentials never trigger a refresh.
func WithoutAuth(ctx context.Context) context.Context {
	return context.WithValue(ctx, skipAuthKey, true)
}

func skipAuth(ctx context.Context) bool {
	v, _ := ctx.Value(skipAuthKey).(bool)
	return v
}

// authTransport attaches the bearer token at send time and performs at most
// one refresh-and-replay per request.
type authTransport struct {
	base           http.RoundTripper
	tokens         TokenSource
	refresher      Refresher
	onUnauthorized func()
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if skipAuth(req.Context()) {
		return t.base.RoundTrip(req)
	}

	first := req.Clone(req.Context())
	body, err := bufferBody(first)
	if err != nil {
		return nil, err
	}
	if t.tokens != nil {
		if token := t.tokens.AccessToken(); token != "" {
			first.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := t.base.RoundTrip(first)
	if err != nil || resp.StatusCode != http.StatusUnauthorized || t.refresher == nil {
		return resp, err
	}

	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	logger.Debug("Access token rejected, refreshing", "url", req.URL.String())
	token, rerr := t.refresher.Refresh(req.Context())
	if rerr != nil {
		if errors.Is(rerr, context.Canceled) || errors.Is(rerr, context.DeadlineExceeded) {
			return nil, rerr
		}
		logger.Warn("Token refresh failed, session cleared", "error", rerr)
		if t.onUnauthorized != nil {
			t.onUnauthorized()
		}
		expired := clierrors.SessionExpiredError()
		expired.Cause = rerr
		return nil, expired
	}

	replay := req.Clone(req.Context())
	if body != nil {
		replay.Body = body()
	}
	replay.Header.Set("Authorization", "Bearer "+token)

	// The replay is final: a second 401 goes back to the caller.
	return t.base.RoundTrip(replay)
}

// bufferBody reads req's body into memory, leaves req with a fresh reader
// and returns a constructor for replay bodies. It returns nil when there is
// no body.
func bufferBody(req *http.Request) (func() io.ReadCloser, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	data, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return nil, err
	}
	body := func() io.ReadCloser { return io.NopCloser(bytes.NewReader(data)) }
	req.Body = body()
	req.GetBody = func() (io.ReadCloser, error) { return body(), nil }
	return body, nil
}
