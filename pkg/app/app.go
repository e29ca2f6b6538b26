// Package app wires the client's components together. Commands get an
// *App instead of reaching for package globals.
package app

import (
	"fmt"
	"net/http"
	"time"

	"github.com/socialconnect/cli/pkg/api"
	"github.com/socialconnect/cli/pkg/auth"
	"github.com/socialconnect/cli/pkg/client"
	"github.com/socialconnect/cli/pkg/config"
	"github.com/socialconnect/cli/pkg/logger"
	"github.com/socialconnect/cli/pkg/metrics"
	"github.com/socialconnect/cli/pkg/notify"
	"github.com/socialconnect/cli/pkg/session"
	"github.com/socialconnect/cli/pkg/storage"
	"github.com/socialconnect/cli/pkg/stream"
	"github.com/socialconnect/cli/pkg/toast"
)

// Stream transports
const (
	TransportSSE       = "sse"
	TransportWebSocket = "websocket"
)

// Options configures an App
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	StorageDir string
	// Transport is the innermost HTTP round tripper; tests point it at a
	// fake backend
	Transport http.RoundTripper

	StreamTransport      string
	StreamReconnect      bool
	MaxReconnectInterval time.Duration
	// WebSocketURL overrides the address derived from the SSE endpoint
	WebSocketURL string

	Toast toast.Options
}

// OptionsFromConfig reads Options from the loaded configuration
func OptionsFromConfig() Options {
	timeout := time.Duration(config.GetInt("api.timeout")) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return Options{
		BaseURL:              config.GetString("api.base_url"),
		Timeout:              timeout,
		StorageDir:           config.GetStorageDir(),
		StreamTransport:      config.GetString("stream.transport"),
		StreamReconnect:      config.GetBool("stream.reconnect"),
		MaxReconnectInterval: config.GetDuration("stream.max_reconnect_interval"),
		WebSocketURL:         config.GetString("stream.websocket_url"),
		Toast: toast.Options{
			AdmissionWindow: config.GetDuration("toast.admission_window"),
			Duration:        config.GetDuration("toast.duration"),
			MaxVisible:      config.GetInt("toast.max_visible"),
			DismissReset:    config.GetDuration("toast.dismiss_reset"),
		},
	}
}

// App holds every long-lived component of one CLI invocation
type App struct {
	Storage       *storage.Store
	Sessions      *session.Store
	Refresher     *auth.Refresher
	Client        *client.Client
	API           *api.Client
	Auth          *auth.Store
	Notifications *notify.Pipeline
	Metrics       *metrics.Metrics

	opts Options
}

// New builds the component graph. Nothing touches the network until a
// command runs.
func New(opts Options) *App {
	a := &App{opts: opts, Metrics: metrics.Get()}

	a.Storage = storage.New(opts.StorageDir)
	a.Sessions = session.NewStore(a.Storage)
	a.Refresher = auth.NewRefresher(a.Sessions, client.NewPlain(opts.BaseURL, opts.Timeout, opts.Transport))

	a.Client = client.New(client.Options{
		BaseURL:   opts.BaseURL,
		Timeout:   opts.Timeout,
		Tokens:    a.Sessions,
		Refresher: a.Refresher,
		OnUnauthorized: func() {
			logger.Warn("Session expired, signing out")
			a.Auth.Expire()
		},
		Transport: opts.Transport,
	})
	a.API = api.New(a.Client)
	a.Auth = auth.NewStore(a.API, a.Sessions)
	a.Notifications = notify.New(a.API)

	return a
}

// StreamSource returns the configured push transport
func (a *App) StreamSource() (stream.Source, error) {
	switch a.opts.StreamTransport {
	case "", TransportSSE:
		return stream.NewSSESource(a.Client.StreamClient(), a.API.StreamURL()), nil
	case TransportWebSocket:
		u := a.opts.WebSocketURL
		if u == "" {
			var err error
			if u, err = stream.WebSocketURL(a.API.StreamURL()); err != nil {
				return nil, err
			}
		}
		return stream.NewWebSocketSource(stream.DefaultWebSocketConfig(u), a.Sessions), nil
	default:
		return nil, fmt.Errorf("unknown stream transport %q (want %s or %s)", a.opts.StreamTransport, TransportSSE, TransportWebSocket)
	}
}

// StreamOptions returns the subscription options from config
func (a *App) StreamOptions() stream.Options {
	return stream.Options{
		Reconnect:   a.opts.StreamReconnect,
		MaxInterval: a.opts.MaxReconnectInterval,
	}
}

// NewToasts returns a toast manager over the app's storage
func (a *App) NewToasts() *toast.Manager {
	return toast.NewManager(a.Storage, a.opts.Toast)
}

// Close releases the notification pipeline
func (a *App) Close() {
	a.Notifications.Close()
}
