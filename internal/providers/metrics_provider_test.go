package providers

import (
	"gatebot/internal/structures"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withTestRegistry(t *testing.T) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	prometheus.DefaultRegisterer = reg
	prometheus.DefaultGatherer = reg
	t.Cleanup(func() {
		prometheus.DefaultRegisterer = prometheus.NewRegistry()
		prometheus.DefaultGatherer = prometheus.DefaultRegisterer.(prometheus.Gatherer)
	})
	return reg
}

func TestNoopMetrics_WhenDisabled(t *testing.T) {
	conf := &structures.Config{
		Metrics: structures.MetricsConfig{Enabled: false},
	}
	m := NewMetricsProvider(conf)
	_, ok := m.(*noopMetrics)
	assert.True(t, ok, "should return noopMetrics when disabled")

	// Ensure no-op methods don't panic
	m.IncRequestsTotal("/test", 200)
	m.ObserveRequestDuration("/test", time.Millisecond)
	m.IncCacheHits()
	m.IncCacheMisses()
	m.ObservePersistenceDuration(time.Millisecond)
	m.IncPersistenceFailures()
	m.IncTasksScheduled("file_expiry")
	m.IncTasksFired("file_expiry")
	m.IncTasksCancelled("file_expiry")
	m.IncModerationHits()
	m.AddLinksRecorded(3)
	m.IncVerifications("ok")
	m.IncDownloads("ok")
	m.IncUpdates("message")
	m.SetUsersTotal(10)
}

func TestMetricsProvider_WhenEnabled(t *testing.T) {
	withTestRegistry(t)

	conf := &structures.Config{
		Metrics: structures.MetricsConfig{Enabled: true},
	}
	m := NewMetricsProvider(conf)
	_, ok := m.(*MetricsProvider)
	assert.True(t, ok, "should return MetricsProvider when enabled")
}

func TestMetricsProvider_IncrementCounters(t *testing.T) {
	withTestRegistry(t)

	conf := &structures.Config{
		Metrics: structures.MetricsConfig{Enabled: true},
	}
	m := NewMetricsProvider(conf).(*MetricsProvider)

	m.IncRequestsTotal("/summary", 200)
	m.IncRequestsTotal("/summary", 404)
	m.ObserveRequestDuration("/summary", 5*time.Millisecond)
	m.IncTasksScheduled("message_deletion")
	m.IncTasksScheduled("message_deletion")
	m.IncTasksCancelled("message_deletion")
	m.AddLinksRecorded(3)
	m.IncModerationHits()
	m.SetUsersTotal(7)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.requestsTotal.WithLabelValues("/summary", "2xx")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.tasksScheduled.WithLabelValues("message_deletion")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.tasksCancelled.WithLabelValues("message_deletion")))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.linksRecorded))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.moderationHits))
	assert.Equal(t, float64(7), testutil.ToFloat64(m.usersTotal))
}

func TestMetricsProvider_RegistersOnDefaultRegistry(t *testing.T) {
	reg := withTestRegistry(t)

	conf := &structures.Config{
		Metrics: structures.MetricsConfig{Enabled: true},
	}
	m := NewMetricsProvider(conf)
	m.IncDownloads("ok")

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "gatebot_downloads_total")
}

func TestHttpStatusBucket(t *testing.T) {
	tests := []struct {
		code     int
		expected string
	}{
		{100, "1xx"},
		{200, "2xx"},
		{201, "2xx"},
		{301, "3xx"},
		{400, "4xx"},
		{404, "4xx"},
		{500, "5xx"},
		{503, "5xx"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, httpStatusBucket(tt.code))
	}
}
