// Package metrics holds the Prometheus collectors for the client: API calls,
// the notification pipeline, the push stream and toasts.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/socialconnect/cli/pkg/logger"
)

// Metrics holds all Prometheus metrics for the client
type Metrics struct {
	Registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	TokenRefreshesTotal *prometheus.CounterVec

	// Notification pipeline
	NotificationsReceived *prometheus.CounterVec
	NotificationsDeduped  *prometheus.CounterVec
	UnreadNotifications   prometheus.Gauge
	MarkReadTotal         *prometheus.CounterVec

	// Push stream
	StreamEventsTotal      *prometheus.CounterVec
	StreamConnectionsTotal *prometheus.CounterVec

	// Toasts
	ToastsShownTotal     prometheus.Counter
	ToastsDismissedTotal *prometheus.CounterVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Get returns the process-wide metrics, creating them on first use
func Get() *Metrics {
	once.Do(func() {
		instance = New(prometheus.NewRegistry())
	})
	return instance
}

// New creates every collector and registers it with reg
func New(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	reg.MustRegister(collectors.NewGoCollector())

	return &Metrics{
		Registry: reg,

		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "socialconnect_http_requests_total",
				Help: "Total number of API requests",
			},
			[]string{"method", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "socialconnect_http_request_duration_seconds",
				Help:    "API request latency in seconds",
				Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method"},
		),
		TokenRefreshesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "socialconnect_token_refreshes_total",
				Help: "Access token refresh attempts",
			},
			[]string{"result"},
		),

		NotificationsReceived: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "socialconnect_notifications_received_total",
				Help: "Notifications added to the local list",
			},
			[]string{"source"},
		),
		NotificationsDeduped: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "socialconnect_notifications_deduplicated_total",
				Help: "Notifications dropped because their id was already known",
			},
			[]string{"source"},
		),
		UnreadNotifications: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "socialconnect_unread_notifications",
				Help: "Current unread notification count",
			},
		),
		MarkReadTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "socialconnect_mark_read_total",
				Help: "Mark-as-read calls",
			},
			[]string{"scope", "result"},
		),

		StreamEventsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "socialconnect_stream_events_total",
				Help: "Push stream events by type",
			},
			[]string{"type"},
		),
		StreamConnectionsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "socialconnect_stream_connections_total",
				Help: "Push stream connection attempts",
			},
			[]string{"transport", "result"},
		),

		ToastsShownTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "socialconnect_toasts_shown_total",
				Help: "Toasts rendered",
			},
		),
		ToastsDismissedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "socialconnect_toasts_dismissed_total",
				Help: "Toasts dismissed",
			},
			[]string{"reason"},
		),
	}
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("Serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
