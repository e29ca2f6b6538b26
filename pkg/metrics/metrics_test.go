package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersAreIsolatedPerRegistry(t *testing.T) {
	a := New(prometheus.NewRegistry())
	b := New(prometheus.NewRegistry())

	a.NotificationsReceived.WithLabelValues("stream").Inc()
	a.NotificationsReceived.WithLabelValues("stream").Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(a.NotificationsReceived.WithLabelValues("stream")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.NotificationsReceived.WithLabelValues("stream")))
}

func TestGetIsSingleton(t *testing.T) {
	assert.Same(t, Get(), Get())
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.UnreadNotifications.Set(4)
	m.ToastsDismissedTotal.WithLabelValues("timeout").Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "socialconnect_unread_notifications 4")
	assert.Contains(t, string(body), `socialconnect_toasts_dismissed_total{reason="timeout"} 1`)
}
