package stream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/socialconnect/cli/pkg/api"
	"github.com/socialconnect/cli/pkg/client"
	"github.com/socialconnect/cli/pkg/logger"
)

// WebSocketConfig holds WebSocket source configuration
type WebSocketConfig struct {
	URL            string
	ConnectTimeout time.Duration
	PingInterval   time.Duration
	// PongWait is how long the connection may stay silent before it is
	// considered dead. Zero disables the read deadline.
	PongWait time.Duration
}

// DefaultWebSocketConfig returns the config for url
func DefaultWebSocketConfig(url string) WebSocketConfig {
	return WebSocketConfig{
		URL:            url,
		ConnectTimeout: 15 * time.Second,
		PingInterval:   30 * time.Second,
		PongWait:       70 * time.Second,
	}
}

// ConnectionStats holds connection statistics
type ConnectionStats struct {
	MessagesReceived int64
	LastError        string
	ConnectedAt      time.Time
	DisconnectedAt   time.Time
}

// WebSocketSource receives the same event frames as the SSE endpoint over
// a WebSocket, for deployments that proxy the stream that way.
type WebSocketSource struct {
	config WebSocketConfig
	tokens client.TokenSource
	dialer *websocket.Dialer

	statsLock sync.RWMutex
	stats     ConnectionStats
}

// NewWebSocketSource creates a source that authenticates with tokens
func NewWebSocketSource(config WebSocketConfig, tokens client.TokenSource) *WebSocketSource {
	return &WebSocketSource{
		config: config,
		tokens: tokens,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: config.ConnectTimeout,
		},
	}
}

// WebSocketURL turns an http(s) stream URL into its ws(s) equivalent
func WebSocketURL(httpURL string) (string, error) {
	u, err := url.Parse(httpURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported stream scheme %q", u.Scheme)
	}
	return u.String(), nil
}

// Name implements Source
func (s *WebSocketSource) Name() string { return "websocket" }

// Stats returns connection statistics
func (s *WebSocketSource) Stats() ConnectionStats {
	s.statsLock.RLock()
	defer s.statsLock.RUnlock()
	return s.stats
}

// Run implements Source
func (s *WebSocketSource) Run(ctx context.Context, emit Emit) error {
	conn, err := s.dial(ctx)
	if err != nil {
		s.recordError(err.Error())
		return err
	}
	s.recordConnected()
	defer s.recordDisconnected()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Closing the conn is what unblocks ReadMessage on cancellation
	go func() {
		<-runCtx.Done()
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		conn.Close()
	}()

	if s.config.PongWait > 0 {
		conn.SetReadDeadline(time.Now().Add(s.config.PongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(s.config.PongWait))
		})
	}
	if s.config.PingInterval > 0 {
		go s.pingLoop(runCtx, conn)
	}

	logger.Debug("WebSocket connected", "url", s.config.URL)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("WebSocket closed by server")
				return nil
			}
			s.recordError(err.Error())
			return err
		}
		s.recordMessageReceived()

		if s.config.PongWait > 0 {
			conn.SetReadDeadline(time.Now().Add(s.config.PongWait))
		}
		if err := dispatch(data, emit); err != nil {
			return err
		}
	}
}

func (s *WebSocketSource) dial(ctx context.Context) (*websocket.Conn, error) {
	u, err := url.Parse(s.config.URL)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	if s.tokens != nil {
		if token := s.tokens.AccessToken(); token != "" {
			header.Set("Authorization", "Bearer "+token)
			// Browsers cannot set headers on a WebSocket handshake, so
			// proxies also accept the token as a query parameter
			q := u.Query()
			q.Set("token", token)
			u.RawQuery = q.Encode()
		}
	}

	conn, resp, err := s.dialer.DialContext(ctx, u.String(), header)
	if err != nil {
		if resp != nil {
			return nil, &api.APIError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("stream rejected: %s", resp.Status)}
		}
		return nil, err
	}
	return conn, nil
}

func (s *WebSocketSource) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(s.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				logger.Debug("Failed to send ping", "error", err)
				return
			}
		}
	}
}

func (s *WebSocketSource) recordMessageReceived() {
	s.statsLock.Lock()
	s.stats.MessagesReceived++
	s.statsLock.Unlock()
}

func (s *WebSocketSource) recordError(errMsg string) {
	s.statsLock.Lock()
	s.stats.LastError = strings.TrimSpace(errMsg)
	s.statsLock.Unlock()
}

func (s *WebSocketSource) recordConnected() {
	s.statsLock.Lock()
	s.stats.ConnectedAt = time.Now()
	s.statsLock.Unlock()
}

func (s *WebSocketSource) recordDisconnected() {
	s.statsLock.Lock()
	s.stats.DisconnectedAt = time.Now()
	s.statsLock.Unlock()
}
