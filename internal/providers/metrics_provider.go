package providers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"icd/internal/models"
	"icd/internal/structures"
	"time"
)

// Cycle outcomes reported by IncCycles.
const (
	OutcomeCommitted    = "committed"
	OutcomeInvalidInput = "invalid_input"
	OutcomeDetection    = "detection_error"
	OutcomeStorage      = "storage_error"
)

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncCacheHits()
	IncCacheMisses()
	SetCacheEntries(n int64)
	ObservePersistenceDuration(duration time.Duration)
	IncCycles(outcome string)
	AddAcceptedDetections(label string, n int)
	SetCounts(counts models.Counts)
}

type MetricsProvider struct {
	requestsTotal       *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	cacheHits           prometheus.Counter
	cacheMisses         prometheus.Counter
	cacheEntries        prometheus.Gauge
	persistenceDuration prometheus.Histogram
	cyclesTotal         *prometheus.CounterVec
	detectionsTotal     *prometheus.CounterVec
	counterQuantity     *prometheus.GaugeVec
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

func (m *MetricsProvider) SetCacheEntries(n int64) {
	m.cacheEntries.Set(float64(n))
}

func (m *MetricsProvider) ObservePersistenceDuration(duration time.Duration) {
	m.persistenceDuration.Observe(duration.Seconds())
}

func (m *MetricsProvider) IncCycles(outcome string) {
	m.cyclesTotal.WithLabelValues(outcome).Inc()
}

func (m *MetricsProvider) AddAcceptedDetections(label string, n int) {
	if n <= 0 {
		return
	}
	m.detectionsTotal.WithLabelValues(label).Add(float64(n))
}

func (m *MetricsProvider) SetCounts(counts models.Counts) {
	for _, k := range models.Kinds {
		m.counterQuantity.WithLabelValues(k.Name()).Set(float64(counts.Get(k)))
	}
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
			Name: "icd_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "icd_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		cacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "icd_cache_hits_total",
			Help: "Total number of cache hits",
		}),

		cacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "icd_cache_misses_total",
			Help: "Total number of cache misses",
		}),

		cacheEntries: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "icd_cache_entries",
			Help: "Result bodies held in the cache",
		}),

		persistenceDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "icd_persistence_duration_seconds",
			Help:    "Duration of snapshot writes in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		cyclesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "icd_detection_cycles_total",
			Help: "Detection cycles by outcome",
		}, []string{"outcome"}),

		detectionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "icd_accepted_detections_total",
			Help: "Detections at or above the confidence threshold, by label",
		}, []string{"label"}),

		counterQuantity: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "icd_counter_quantity",
			Help: "Counter values of the current snapshot",
		}, []string{"kind"}),
	}
}

// noopMetrics is used when metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (n *noopMetrics) IncCacheHits()                                    {}
func (n *noopMetrics) IncCacheMisses()                                  {}
func (n *noopMetrics) SetCacheEntries(_ int64)                          {}
func (n *noopMetrics) ObservePersistenceDuration(_ time.Duration)       {}
func (n *noopMetrics) IncCycles(_ string)                               {}
func (n *noopMetrics) AddAcceptedDetections(_ string, _ int)            {}
func (n *noopMetrics) SetCounts(_ models.Counts)                        {}
