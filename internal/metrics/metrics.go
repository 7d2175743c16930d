// Package metrics owns the Prometheus collectors exported by every fintrack binary.
//
// A Metrics value registers into its own registry so that tests and multiple
// binaries in one process never collide. All methods are safe on a nil *Metrics,
// which lets components treat instrumentation as optional.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fintrack"

type Metrics struct {
	Registry *prometheus.Registry

	httpRequests         *prometheus.CounterVec
	httpDuration         *prometheus.HistogramVec
	transactionsCreated  *prometheus.CounterVec
	eventsPublished      *prometheus.CounterVec
	eventsConsumed       *prometheus.CounterVec
	notificationsCreated *prometheus.CounterVec
	notificationsDeduped *prometheus.CounterVec
	billsDetected        prometheus.Histogram
	reminderRuns         *prometheus.CounterVec
	reminderDuration     prometheus.Histogram
	cacheHits            *prometheus.CounterVec
	cacheMisses          *prometheus.CounterVec
	breakerState         *prometheus.GaugeVec
	exportedBills        *prometheus.CounterVec
	rateLimited          prometheus.Counter
	suspiciousRequests   prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		transactionsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_created_total",
			Help:      "Transactions stored, by type.",
		}, []string{"type"}),
		eventsPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Transaction events handed to the broker, by outcome.",
		}, []string{"result"}),
		eventsConsumed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_consumed_total",
			Help:      "Transaction events processed by the worker, by outcome.",
		}, []string{"result"}),
		notificationsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_created_total",
			Help:      "Notifications stored, by type.",
		}, []string{"type"}),
		notificationsDeduped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_deduplicated_total",
			Help:      "Notifications suppressed because their dedup key was already used, by type.",
		}, []string{"type"}),
		billsDetected: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recurring_bills_detected",
			Help:      "Recurring bills found per detection run.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
		}),
		reminderRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminder_runs_total",
			Help:      "Payment reminder sweeps, by outcome.",
		}, []string{"result"}),
		reminderDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reminder_run_duration_seconds",
			Help:      "Duration of a full payment reminder sweep.",
			Buckets:   prometheus.DefBuckets,
		}),
		cacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Cache hits, by cache name.",
		}, []string{"cache"}),
		cacheMisses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Cache misses, by cache name.",
		}, []string{"cache"}),
		breakerState: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0 closed, 1 half-open, 2 open), by breaker name.",
		}, []string{"name"}),
		exportedBills: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exported_bills_total",
			Help:      "Recurring bills written to the export backend, by backend.",
		}, []string{"backend"}),
		rateLimited: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_requests_total",
			Help:      "Write requests rejected by the per-IP rate limiter.",
		}),
		suspiciousRequests: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "suspicious_requests_total",
			Help:      "Requests matching a known attack pattern.",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, statusLabel(status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(d.Seconds())
}

func (m *Metrics) IncTransactionCreated(txType string) {
	if m == nil {
		return
	}
	m.transactionsCreated.WithLabelValues(txType).Inc()
}

func (m *Metrics) IncEventPublished(result string) {
	if m == nil {
		return
	}
	m.eventsPublished.WithLabelValues(result).Inc()
}

func (m *Metrics) IncEventConsumed(result string) {
	if m == nil {
		return
	}
	m.eventsConsumed.WithLabelValues(result).Inc()
}

func (m *Metrics) IncNotification(notifType string, created bool) {
	if m == nil {
		return
	}
	if created {
		m.notificationsCreated.WithLabelValues(notifType).Inc()
		return
	}
	m.notificationsDeduped.WithLabelValues(notifType).Inc()
}

func (m *Metrics) ObserveBillsDetected(n int) {
	if m == nil {
		return
	}
	m.billsDetected.Observe(float64(n))
}

func (m *Metrics) ObserveReminderRun(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.reminderRuns.WithLabelValues(result).Inc()
	m.reminderDuration.Observe(d.Seconds())
}

func (m *Metrics) IncCacheHit(cache string) {
	if m == nil {
		return
	}
	m.cacheHits.WithLabelValues(cache).Inc()
}

func (m *Metrics) IncCacheMiss(cache string) {
	if m == nil {
		return
	}
	m.cacheMisses.WithLabelValues(cache).Inc()
}

func (m *Metrics) SetBreakerState(name string, state float64) {
	if m == nil {
		return
	}
	m.breakerState.WithLabelValues(name).Set(state)
}

func (m *Metrics) AddExportedBills(backend string, n int) {
	if m == nil {
		return
	}
	m.exportedBills.WithLabelValues(backend).Add(float64(n))
}

func (m *Metrics) IncRateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}

func (m *Metrics) IncSuspicious() {
	if m == nil {
		return
	}
	m.suspiciousRequests.Inc()
}

func statusLabel(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
