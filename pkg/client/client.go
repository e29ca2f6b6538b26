package client

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/socialconnect/cli/pkg/logger"
	"github.com/socialconnect/cli/pkg/metrics"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// UserAgent is sent with every request
const UserAgent = "SocialConnect-CLI/0.1.0"

// TokenSource supplies the current access token. Implementations read the
// persisted session, so a token written by another process is picked up on
// the next request.
type TokenSource interface {
	AccessToken() string
}

// Refresher exchanges the persisted refresh token for a new access token.
type Refresher interface {
	Refresh(ctx context.Context) (string, error)
}

// Options configures a Client
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	Tokens    TokenSource
	Refresher Refresher
	// OnUnauthorized runs after a failed refresh, once the session is gone
	OnUnauthorized func()
	// Transport is the innermost round tripper, http.DefaultTransport when nil
	Transport http.RoundTripper
}

// Client is the HTTP client shared by all API calls
type Client struct {
	rest   *resty.Client
	stream *http.Client
	opts   Options
}

// New builds a client with bearer injection and 401 refresh handling
func New(opts Options) *Client {
	base := opts.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	rt := otelhttp.NewTransport(&authTransport{
		base:           base,
		tokens:         opts.Tokens,
		refresher:      opts.Refresher,
		onUnauthorized: opts.OnUnauthorized,
	})

	rest := resty.New()
	rest.JSONMarshal = json.Marshal
	rest.JSONUnmarshal = json.Unmarshal
	rest.SetTransport(rt)
	rest.SetBaseURL(opts.BaseURL)
	rest.SetTimeout(opts.Timeout)
	rest.SetHeader("User-Agent", UserAgent)
	rest.SetHeader("Accept", "application/json")

	rest.OnBeforeRequest(func(c *resty.Client, req *resty.Request) error {
		req.SetHeader("X-Request-ID", uuid.NewString())
		logger.Debug("HTTP Request", "method", req.Method, "url", req.URL)
		return nil
	})

	rest.OnAfterResponse(func(c *resty.Client, resp *resty.Response) error {
		m := metrics.Get()
		m.HTTPRequestsTotal.WithLabelValues(resp.Request.Method, strconv.Itoa(resp.StatusCode())).Inc()
		m.HTTPRequestDuration.WithLabelValues(resp.Request.Method).Observe(resp.Time().Seconds())
		logger.Debug("HTTP Response",
			"method", resp.Request.Method,
			"url", resp.Request.URL,
			"status", resp.StatusCode(),
			"duration", resp.Time())
		return nil
	})

	return &Client{
		rest: rest,
		// Streams stay open indefinitely, so no overall timeout
		stream: &http.Client{Transport: rt},
		opts:   opts,
	}
}

// R starts a request bound to ctx
func (c *Client) R(ctx context.Context) *resty.Request {
	return c.rest.R().SetContext(ctx)
}

// Resty exposes the underlying resty client
func (c *Client) Resty() *resty.Client {
	return c.rest
}

// StreamClient returns an http.Client for long-lived streaming responses.
// It shares the auth transport but has no timeout.
func (c *Client) StreamClient() *http.Client {
	return c.stream
}

// BaseURL returns the configured API root
func (c *Client) BaseURL() string {
	return c.opts.BaseURL
}

// AccessToken returns the token the next request would carry
func (c *Client) AccessToken() string {
	if c.opts.Tokens == nil {
		return ""
	}
	return c.opts.Tokens.AccessToken()
}

// NewPlain returns a resty client with no auth handling, for the refresh
// call itself.
func NewPlain(baseURL string, timeout time.Duration, transport http.RoundTripper) *resty.Client {
	if transport == nil {
		transport = http.DefaultTransport
	}
	rest := resty.New()
	rest.JSONMarshal = json.Marshal
	rest.JSONUnmarshal = json.Unmarshal
	rest.SetTransport(otelhttp.NewTransport(transport))
	rest.SetBaseURL(baseURL)
	rest.SetTimeout(timeout)
	rest.SetHeader("User-Agent", UserAgent)
	return rest
}
