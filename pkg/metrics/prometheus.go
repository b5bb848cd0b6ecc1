// Package metrics provides Prometheus metrics for the ranking engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns all Prometheus collectors for the engine.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Admission metrics
	votesAdmitted   prometheus.Counter
	votesDuplicate  prometheus.Counter
	admissionErrors prometheus.Counter

	// Refresh metrics
	scopeRefreshes      prometheus.Counter
	refreshErrors       prometheus.Counter
	refreshDuration     prometheus.Histogram
	staleSnapshotServed prometheus.Counter
	productsRanked      prometheus.Gauge
	malformedMetrics    prometheus.Counter

	// Reaper metrics
	reapRuns     prometheus.Counter
	votesReaped  prometheus.Counter
	reapDuration prometheus.Histogram

	// Store metrics
	storeQueryLatency prometheus.Histogram

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec
}

// Global manager backed by a custom registry so default Go collectors do
// not pollute the scrape output.
var globalManager *Manager                     //nolint:gochecknoglobals // singleton metrics manager
var customRegistry = prometheus.NewRegistry()  //nolint:gochecknoglobals // singleton registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers all collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "glowrank",
		subsystem:        "ranking",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initCollectors()
	return m
}

func (m *Manager) initCollectors() {
	auto := promauto.With(m.registry)

	m.votesAdmitted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "votes_admitted_total",
		Help:      "Total number of votes accepted and persisted",
	})
	m.votesDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "votes_duplicate_total",
		Help:      "Total number of votes rejected as duplicates within the validity window",
	})
	m.admissionErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "admission_errors_total",
		Help:      "Total number of vote submissions that failed on the store",
	})

	m.scopeRefreshes = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scope_refreshes_total",
		Help:      "Total number of full-scope ranking recomputations",
	})
	m.refreshErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "refresh_errors_total",
		Help:      "Total number of scope refreshes that failed on the upstream fetch",
	})
	m.refreshDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "refresh_duration_milliseconds",
		Help:      "Histogram of full-scope refresh duration in milliseconds",
		Buckets:   m.histogramBuckets,
	})
	m.staleSnapshotServed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "stale_snapshots_served_total",
		Help:      "Total number of refreshes answered from the last-known snapshot after a fetch failure",
	})
	m.productsRanked = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "products_ranked",
		Help:      "Number of products ranked in the most recent refresh",
	})
	m.malformedMetrics = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "malformed_metrics_total",
		Help:      "Total number of products demoted to unranked because of non-finite metrics",
	})

	m.reapRuns = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reap_runs_total",
		Help:      "Total number of expired-vote reap runs",
	})
	m.votesReaped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "votes_reaped_total",
		Help:      "Total number of expired vote records purged",
	})
	m.reapDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reap_duration_milliseconds",
		Help:      "Histogram of reap run duration in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.storeQueryLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_query_latency_milliseconds",
		Help:      "Histogram of catalog/vote store query latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint, method and status",
		},
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)
	m.errorsByEndpoint = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_errors_total",
			Help:      "Total number of HTTP error responses by endpoint and class",
		},
		[]string{"endpoint", "method", "class"},
	)
}

// Package-level helpers operating on the global manager.

func RecordVoteAdmitted()  { globalManager.votesAdmitted.Inc() }
func RecordVoteDuplicate() { globalManager.votesDuplicate.Inc() }
func RecordAdmissionError() { globalManager.admissionErrors.Inc() }

func RecordScopeRefresh()                  { globalManager.scopeRefreshes.Inc() }
func RecordRefreshError()                  { globalManager.refreshErrors.Inc() }
func RecordRefreshDuration(ms float64)     { globalManager.refreshDuration.Observe(ms) }
func RecordStaleSnapshotServed()           { globalManager.staleSnapshotServed.Inc() }
func UpdateProductsRanked(count int)       { globalManager.productsRanked.Set(float64(count)) }
func RecordMalformedMetric()               { globalManager.malformedMetrics.Inc() }

func RecordReapRun()                { globalManager.reapRuns.Inc() }
func RecordVotesReaped(count int64) { globalManager.votesReaped.Add(float64(count)) }
func RecordReapDuration(ms float64) { globalManager.reapDuration.Observe(ms) }

func RecordStoreQueryLatency(ms float64) { globalManager.storeQueryLatency.Observe(ms) }

func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

func RecordHTTPRequestDuration(endpoint, method, statusCode string, ms float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(ms)
}

func RecordHTTPError(endpoint, method, class string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, class).Inc()
}

// GetRegistry returns the registry backing the global manager for scraping.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
