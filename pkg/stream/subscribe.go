package stream

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/socialconnect/cli/pkg/api"
	clierrors "github.com/socialconnect/cli/pkg/errors"
	"github.com/socialconnect/cli/pkg/logger"
	"github.com/socialconnect/cli/pkg/metrics"
)

// Emit hands one event to the subscriber. A non-nil error ends the
// connection.
type Emit func(Event) error

// Source is one kind of push connection
type Source interface {
	Name() string
	// Run connects and emits events until the connection ends or ctx is
	// cancelled.
	Run(ctx context.Context, emit Emit) error
}

// ErrServerError is returned when the server reports an error event
var ErrServerError = errors.New("stream error reported by server")

// Options controls a subscription
type Options struct {
	// Reconnect re-opens the stream with exponential backoff after it
	// drops. Off by default: a dropped stream stays closed.
	Reconnect bool
	// InitialInterval and MaxInterval bound the reconnect delay
	InitialInterval time.Duration
	MaxInterval     time.Duration
	// MaxElapsed stops reconnecting once this long has passed since the
	// subscription started. Zero retries forever.
	MaxElapsed time.Duration
	// Buffer is the channel capacity
	Buffer int
}

// Subscribe runs src in a goroutine and returns its events in order. The
// channel is closed once the stream has ended for good or ctx is cancelled.
func Subscribe(ctx context.Context, src Source, opts Options) <-chan Event {
	if opts.Buffer <= 0 {
		opts.Buffer = 16
	}
	out := make(chan Event, opts.Buffer)

	go func() {
		defer close(out)
		var err error
		if opts.Reconnect {
			err = runWithReconnect(ctx, src, out, opts)
		} else {
			_, err = runOnce(ctx, src, out)
		}
		if err != nil && ctx.Err() == nil {
			// Stream failures are never shown to the user
			logger.Debug("Notification stream ended", "source", src.Name(), "error", err)
		}
	}()

	return out
}

// runOnce runs one connection. received reports whether any event arrived,
// which the reconnect loop uses to reset its backoff.
func runOnce(ctx context.Context, src Source, out chan<- Event) (received bool, err error) {
	m := metrics.Get()

	emit := func(ev Event) error {
		received = true
		m.StreamEventsTotal.WithLabelValues(string(ev.Type)).Inc()
		if ev.Type == EventError {
			logger.Debug("Server reported stream error", "message", ev.Message)
			return ErrServerError
		}
		select {
		case out <- ev:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	err = src.Run(ctx, emit)
	switch {
	case ctx.Err() != nil:
		m.StreamConnectionsTotal.WithLabelValues(src.Name(), "cancelled").Inc()
		return received, ctx.Err()
	case err != nil && !received:
		m.StreamConnectionsTotal.WithLabelValues(src.Name(), "failed").Inc()
	default:
		m.StreamConnectionsTotal.WithLabelValues(src.Name(), "closed").Inc()
	}
	return received, err
}

var errDisconnected = errors.New("stream disconnected")

func runWithReconnect(ctx context.Context, src Source, out chan<- Event, opts Options) error {
	b := backoff.NewExponentialBackOff()
	if opts.InitialInterval > 0 {
		b.InitialInterval = opts.InitialInterval
	}
	if opts.MaxInterval > 0 {
		b.MaxInterval = opts.MaxInterval
	}

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		received, err := runOnce(ctx, src, out)
		if ctx.Err() != nil {
			return struct{}{}, backoff.Permanent(ctx.Err())
		}
		if permanent(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		if received {
			b.Reset()
		}
		if err == nil {
			err = errDisconnected
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxElapsedTime(opts.MaxElapsed),
		backoff.WithNotify(func(err error, next time.Duration) {
			logger.Debug("Reconnecting notification stream", "source", src.Name(), "error", err, "in", next)
		}),
	)
	return err
}

// permanent reports failures that reconnecting cannot fix
func permanent(err error) bool {
	if err == nil {
		return false
	}
	if clierrors.IsType(err, clierrors.ErrorTypeSessionExpired) {
		return true
	}
	return api.IsUnauthorized(err) || api.IsForbidden(err) || api.IsNotFound(err)
}
