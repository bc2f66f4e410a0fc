package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	OrdersEnqueuedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "orders_enqueued_total",
			Help: "Total number of orders accepted into the pipeline queue (count)",
		},
	)

	OrdersProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_processed_total",
			Help: "Total number of pipeline job completions by outcome (count)",
		},
		[]string{"status"},
	)

	OrderRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "order_retries_total",
			Help: "Total number of jobs re-enqueued after a retryable failure (count)",
		},
	)

	DuplicatesSuppressedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "orders_duplicates_suppressed_total",
			Help: "Total number of submissions suppressed by the dedup check (count)",
		},
	)

	QueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "order_queue_depth",
			Help: "Number of jobs pending or in flight in the pipeline queue (count)",
		},
	)

	ProcessingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "order_processing_duration_ms",
			Help:    "End-to-end per-job processing duration in milliseconds",
			Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		},
		[]string{"status"},
	)

	EnrichmentRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrichment_requests_total",
			Help: "Total number of outbound catalog requests by result (count)",
		},
		[]string{"status"},
	)

	EnrichmentDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "enrichment_fetch_duration_ms",
			Help:    "Duration of a whole FetchMany fan-out in milliseconds",
			Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		},
	)

	SourceMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "source_messages_total",
			Help: "Total number of payloads read from the external queue by result (count)",
		},
		[]string{"source", "status"},
	)

	RateLimitRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_requests_total",
			Help: "Total number of requests evaluated by the rate limiter (count)",
		},
		[]string{"status"},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)
)

func RegisterPipelineMetrics() {
	prometheus.MustRegister(
		OrdersEnqueuedTotal,
		OrdersProcessedTotal,
		OrderRetriesTotal,
		DuplicatesSuppressedTotal,
		QueueDepth,
		ProcessingDuration,
	)
}

func RegisterEnrichmentMetrics() {
	prometheus.MustRegister(
		EnrichmentRequestsTotal,
		EnrichmentDuration,
	)
}

func RegisterSourceMetrics() {
	prometheus.MustRegister(SourceMessagesTotal)
}

func RegisterHTTPMetrics() {
	prometheus.MustRegister(RateLimitRequestsTotal)
}

func RegisterCircuitBreakerMetrics() {
	prometheus.MustRegister(CircuitBreakerState)
}

func ObserveProcessingDuration(d time.Duration, status string) {
	ProcessingDuration.WithLabelValues(status).Observe(float64(d.Milliseconds()))
}

func ObserveEnrichmentDuration(d time.Duration) {
	EnrichmentDuration.Observe(float64(d.Milliseconds()))
}

func SetQueueDepth(depth int) {
	QueueDepth.Set(float64(depth))
}
