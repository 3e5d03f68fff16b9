package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Gateway metrics
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventgate_requests_total",
			Help: "Total number of ingress requests by response status",
		},
		[]string{"status"},
	)

	// Bus metrics
	PublishesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventgate_publishes_total",
			Help: "Total number of bus publishes by outcome",
		},
		[]string{"outcome"},
	)

	DispatchQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "eventgate_dispatch_queue_depth",
			Help: "Current depth of the bus dispatch queue",
		},
	)

	// Sink metrics
	SinkDeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventgate_sink_deliveries_total",
			Help: "Total number of sink deliveries by sink and status",
		},
		[]string{"sink", "status"},
	)

	// Archive sink metrics
	ArchiveFlushDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "eventgate_archive_flush_duration_seconds",
			Help:    "Duration of archive batch flushes in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	ArchiveFlushFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eventgate_archive_flush_failures_total",
			Help: "Total number of archive flushes that failed after retries",
		},
	)

	ArchiveBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "eventgate_archive_batch_size",
			Help:    "Number of envelopes per archive batch write",
			Buckets: []float64{1, 5, 10, 50, 100, 500, 1000, 5000},
		},
	)

	// Rate limiting metrics
	RateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eventgate_rate_limit_hits_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
	)
)
