package providers

import (
	"gatebot/internal/structures"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncCacheHits()
	IncCacheMisses()
	ObservePersistenceDuration(duration time.Duration)
	IncPersistenceFailures()
	IncTasksScheduled(kind string)
	IncTasksFired(kind string)
	IncTasksCancelled(kind string)
	IncModerationHits()
	AddLinksRecorded(n int)
	IncVerifications(result string)
	IncDownloads(result string)
	IncUpdates(kind string)
	SetUsersTotal(count int)
}

type MetricsProvider struct {
	requestsTotal       *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	cacheHits           prometheus.Counter
	cacheMisses         prometheus.Counter
	persistenceDuration prometheus.Histogram
	persistenceFailures prometheus.Counter
	tasksScheduled      *prometheus.CounterVec
	tasksFired          *prometheus.CounterVec
	tasksCancelled      *prometheus.CounterVec
	moderationHits      prometheus.Counter
	linksRecorded       prometheus.Counter
	verifications       *prometheus.CounterVec
	downloads           *prometheus.CounterVec
	updates             *prometheus.CounterVec
	usersTotal          prometheus.Gauge
}

func (m *MetricsProvider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *MetricsProvider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncCacheHits() {
	m.cacheHits.Inc()
}

func (m *MetricsProvider) IncCacheMisses() {
	m.cacheMisses.Inc()
}

func (m *MetricsProvider) ObservePersistenceDuration(duration time.Duration) {
	m.persistenceDuration.Observe(duration.Seconds())
}

func (m *MetricsProvider) IncPersistenceFailures() {
	m.persistenceFailures.Inc()
}

func (m *MetricsProvider) IncTasksScheduled(kind string) {
	m.tasksScheduled.WithLabelValues(kind).Inc()
}

func (m *MetricsProvider) IncTasksFired(kind string) {
	m.tasksFired.WithLabelValues(kind).Inc()
}

func (m *MetricsProvider) IncTasksCancelled(kind string) {
	m.tasksCancelled.WithLabelValues(kind).Inc()
}

func (m *MetricsProvider) IncModerationHits() {
	m.moderationHits.Inc()
}

func (m *MetricsProvider) AddLinksRecorded(n int) {
	m.linksRecorded.Add(float64(n))
}

func (m *MetricsProvider) IncVerifications(result string) {
	m.verifications.WithLabelValues(result).Inc()
}

func (m *MetricsProvider) IncDownloads(result string) {
	m.downloads.WithLabelValues(result).Inc()
}

func (m *MetricsProvider) IncUpdates(kind string) {
	m.updates.WithLabelValues(kind).Inc()
}

func (m *MetricsProvider) SetUsersTotal(count int) {
	m.usersTotal.Set(float64(count))
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

func NewMetricsProvider(conf *structures.Config) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	return &MetricsProvider{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gatebot_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gatebot_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		cacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gatebot_cache_hits_total",
			Help: "Total number of cache hits",
		}),

		cacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gatebot_cache_misses_total",
			Help: "Total number of cache misses",
		}),

		persistenceDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "gatebot_persistence_duration_seconds",
			Help:    "Duration of document writes in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		persistenceFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gatebot_persistence_failures_total",
			Help: "Total number of failed document writes",
		}),

		tasksScheduled: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gatebot_tasks_scheduled_total",
			Help: "Deferred tasks scheduled per kind",
		}, []string{"kind"}),

		tasksFired: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gatebot_tasks_fired_total",
			Help: "Deferred tasks fired per kind",
		}, []string{"kind"}),

		tasksCancelled: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gatebot_tasks_cancelled_total",
			Help: "Deferred tasks cancelled per kind",
		}, []string{"kind"}),

		moderationHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gatebot_moderation_hits_total",
			Help: "Messages removed by the banned-word filter",
		}),

		linksRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gatebot_links_recorded_total",
			Help: "Links counted towards user thresholds",
		}),

		verifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gatebot_verifications_total",
			Help: "Channel membership verifications by result",
		}, []string{"result"}),

		downloads: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gatebot_downloads_total",
			Help: "Download attempts by result",
		}, []string{"result"}),

		updates: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gatebot_updates_total",
			Help: "Inbound updates by kind",
		}, []string{"kind"}),

		usersTotal: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "gatebot_users_total",
			Help: "Number of known users",
		}),
	}
}

// noopMetrics is a no-op implementation for when metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (n *noopMetrics) IncCacheHits()                                    {}
func (n *noopMetrics) IncCacheMisses()                                  {}
func (n *noopMetrics) ObservePersistenceDuration(_ time.Duration)       {}
func (n *noopMetrics) IncPersistenceFailures()                          {}
func (n *noopMetrics) IncTasksScheduled(_ string)                       {}
func (n *noopMetrics) IncTasksFired(_ string)                           {}
func (n *noopMetrics) IncTasksCancelled(_ string)                       {}
func (n *noopMetrics) IncModerationHits()                               {}
func (n *noopMetrics) AddLinksRecorded(_ int)                           {}
func (n *noopMetrics) IncVerifications(_ string)                        {}
func (n *noopMetrics) IncDownloads(_ string)                            {}
func (n *noopMetrics) IncUpdates(_ string)                              {}
func (n *noopMetrics) SetUsersTotal(_ int)                              {}

// NewNoopMetrics returns a provider that discards every observation.
func NewNoopMetrics() MetricsProviderInterface {
	return &noopMetrics{}
}
