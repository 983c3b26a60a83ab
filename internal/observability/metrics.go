package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type moduleMetrics struct {
	windowMessages       prometheus.Gauge
	windowTokens         prometheus.Gauge
	windowCompressTotal  *prometheus.CounterVec
	windowTokensSaved    prometheus.Counter
	windowCompressDur    *prometheus.HistogramVec
	windowSummarizerFail prometheus.Counter

	vectorEntries     *prometheus.GaugeVec
	vectorInsertTotal *prometheus.CounterVec
	vectorSearchDur   *prometheus.HistogramVec

	sharedNamespaces    prometheus.Gauge
	sharedEntries       prometheus.Gauge
	sharedSubscriptions prometheus.Gauge
	sharedAccessTotal   *prometheus.CounterVec
	sharedConflictTotal *prometheus.CounterVec
	sharedExpiredTotal  prometheus.Counter
	sharedEventsDropped prometheus.Counter
}

var (
	metricsOnce sync.Once
	metricsInst *moduleMetrics
)

func getMetrics() *moduleMetrics {
	metricsOnce.Do(func() {
		m := &moduleMetrics{
			windowMessages: prometheus.NewGauge(
				prometheus.GaugeOpts{
					Name: "window_messages",
					Help: "Current message count in the context window.",
				},
			),
			windowTokens: prometheus.NewGauge(
				prometheus.GaugeOpts{
					Name: "window_tokens",
					Help: "Current token estimate of the context window including summary.",
				},
			),
			windowCompressTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "window_compressions_total",
					Help: "Total compression passes by strategy.",
				},
				[]string{"strategy"},
			),
			windowTokensSaved: prometheus.NewCounter(
				prometheus.CounterOpts{
					Name: "window_tokens_saved_total",
					Help: "Total tokens removed by compression passes.",
				},
			),
			windowCompressDur: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "window_compression_duration_seconds",
					Help:    "Compression pass duration in seconds by strategy.",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"strategy"},
			),
			windowSummarizerFail: prometheus.NewCounter(
				prometheus.CounterOpts{
					Name: "window_summarizer_failures_total",
					Help: "Total summarizer errors or timeouts during compression.",
				},
			),
			vectorEntries: prometheus.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "vector_entries",
					Help: "Current entry count by backend.",
				},
				[]string{"backend"},
			),
			vectorInsertTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "vector_inserts_total",
					Help: "Total vector store inserts by backend and status.",
				},
				[]string{"backend", "status"},
			),
			vectorSearchDur: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "vector_search_duration_seconds",
					Help:    "Vector search duration in seconds by backend.",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"backend"},
			),
			sharedNamespaces: prometheus.NewGauge(
				prometheus.GaugeOpts{
					Name: "shared_namespaces",
					Help: "Current shared memory namespace count.",
				},
			),
			sharedEntries: prometheus.NewGauge(
				prometheus.GaugeOpts{
					Name: "shared_entries",
					Help: "Current shared memory entry count across namespaces.",
				},
			),
			sharedSubscriptions: prometheus.NewGauge(
				prometheus.GaugeOpts{
					Name: "shared_subscriptions",
					Help: "Current shared memory subscription count.",
				},
			),
			sharedAccessTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "shared_access_total",
					Help: "Total shared memory accesses by action and status.",
				},
				[]string{"action", "status"},
			),
			sharedConflictTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "shared_conflicts_total",
					Help: "Total rejected writes by conflict strategy.",
				},
				[]string{"strategy"},
			),
			sharedExpiredTotal: prometheus.NewCounter(
				prometheus.CounterOpts{
					Name: "shared_expired_entries_total",
					Help: "Total entries removed by TTL expiry.",
				},
			),
			sharedEventsDropped: prometheus.NewCounter(
				prometheus.CounterOpts{
					Name: "shared_events_dropped_total",
					Help: "Total events dropped because the dispatch buffer was full.",
				},
			),
		}

		prometheus.MustRegister(
			m.windowMessages,
			m.windowTokens,
			m.windowCompressTotal,
			m.windowTokensSaved,
			m.windowCompressDur,
			m.windowSummarizerFail,
			m.vectorEntries,
			m.vectorInsertTotal,
			m.vectorSearchDur,
			m.sharedNamespaces,
			m.sharedEntries,
			m.sharedSubscriptions,
			m.sharedAccessTotal,
			m.sharedConflictTotal,
			m.sharedExpiredTotal,
			m.sharedEventsDropped,
		)

		metricsInst = m
	})

	return metricsInst
}

// EnsureRegistered initializes and registers metrics the first time it is called.
func EnsureRegistered() {
	_ = getMetrics()
}

func MetricsHandler() http.Handler {
	EnsureRegistered()
	return promhttp.Handler()
}

func SetWindowUsage(messages, tokens int) {
	m := getMetrics()
	m.windowMessages.Set(float64(messages))
	m.windowTokens.Set(float64(tokens))
}

func RecordWindowCompression(strategy string, duration time.Duration, tokensSaved int) {
	m := getMetrics()
	m.windowCompressTotal.WithLabelValues(strategy).Inc()
	m.windowCompressDur.WithLabelValues(strategy).Observe(duration.Seconds())
	if tokensSaved > 0 {
		m.windowTokensSaved.Add(float64(tokensSaved))
	}
}

func RecordSummarizerFailure() {
	m := getMetrics()
	m.windowSummarizerFail.Inc()
}

func SetVectorEntries(backend string, count int) {
	m := getMetrics()
	m.vectorEntries.WithLabelValues(backend).Set(float64(count))
}

func RecordVectorInsert(backend string, success bool) {
	m := getMetrics()
	status := "error"
	if success {
		status = "success"
	}
	m.vectorInsertTotal.WithLabelValues(backend, status).Inc()
}

func RecordVectorSearch(backend string, duration time.Duration) {
	m := getMetrics()
	m.vectorSearchDur.WithLabelValues(backend).Observe(duration.Seconds())
}

func SetSharedUsage(namespaces, entries, subscriptions int) {
	m := getMetrics()
	m.sharedNamespaces.Set(float64(namespaces))
	m.sharedEntries.Set(float64(entries))
	m.sharedSubscriptions.Set(float64(subscriptions))
}

func RecordSharedAccess(action string, success bool) {
	m := getMetrics()
	status := "denied"
	if success {
		status = "success"
	}
	m.sharedAccessTotal.WithLabelValues(action, status).Inc()
}

func RecordSharedConflict(strategy string) {
	m := getMetrics()
	m.sharedConflictTotal.WithLabelValues(strategy).Inc()
}

func RecordSharedExpired(count int) {
	if count <= 0 {
		return
	}
	m := getMetrics()
	m.sharedExpiredTotal.Add(float64(count))
}

func RecordEventDropped() {
	m := getMetrics()
	m.sharedEventsDropped.Inc()
}
