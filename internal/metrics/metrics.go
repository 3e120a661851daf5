package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the transcription pipeline
type Metrics struct {
	// Session metrics
	ActiveSessions  prometheus.Gauge
	SessionsStarted prometheus.Counter
	SessionsExpired prometheus.Counter
	SessionDuration prometheus.Histogram

	// Chunk pipeline metrics
	ChunksSealed    prometheus.Counter
	ChunksCommitted prometheus.Counter
	ChunksFailed    prometheus.Counter
	ChunkQueueDepth prometheus.Gauge
	ChunkSize       prometheus.Histogram

	// Provider metrics
	ProviderRequests *prometheus.CounterVec
	ProviderFailures *prometheus.CounterVec
	ProviderLatency  *prometheus.HistogramVec

	// Insight metrics
	ExtractionRequests prometheus.Counter
	ExtractionFailures prometheus.Counter
	ActionItemsFound   prometheus.Counter
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics() *Metrics {
	return &Metrics{
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "scribe_active_sessions",
			Help: "Current number of live recording sessions",
		}),
		SessionsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "scribe_sessions_started_total",
			Help: "Total number of sessions started",
		}),
		SessionsExpired: promauto.NewCounter(prometheus.CounterOpts{
			Name: "scribe_sessions_expired_total",
			Help: "Total number of sessions expired by the sweeper",
		}),
		SessionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "scribe_session_duration_seconds",
			Help:    "Duration of completed sessions in seconds",
			Buckets: []float64{60, 300, 600, 1800, 3600, 7200, 14400},
		}),
		ChunksSealed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "scribe_chunks_sealed_total",
			Help: "Total number of audio chunks sealed",
		}),
		ChunksCommitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "scribe_chunks_committed_total",
			Help: "Total number of chunks whose segments were persisted",
		}),
		ChunksFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "scribe_chunks_failed_total",
			Help: "Total number of chunks that produced zero segments",
		}),
		ChunkQueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "scribe_chunk_queue_depth",
			Help: "Current number of sealed chunks awaiting a pipeline worker",
		}),
		ChunkSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "scribe_chunk_size_bytes",
			Help:    "Raw byte size of sealed chunks",
			Buckets: prometheus.ExponentialBuckets(16384, 4, 8),
		}),
		ProviderRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "scribe_provider_requests_total",
			Help: "Total number of external provider calls",
		}, []string{"operation"}),
		ProviderFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "scribe_provider_failures_total",
			Help: "Total number of external provider calls that failed after retries",
		}, []string{"operation"}),
		ProviderLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scribe_provider_latency_seconds",
			Help:    "End-to-end latency of external provider calls including polling",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		}, []string{"operation"}),
		ExtractionRequests: promauto.NewCounter(prometheus.CounterOpts{
			Name: "scribe_extraction_requests_total",
			Help: "Total number of LLM extraction passes",
		}),
		ExtractionFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "scribe_extraction_failures_total",
			Help: "Total number of failed LLM extraction passes",
		}),
		ActionItemsFound: promauto.NewCounter(prometheus.CounterOpts{
			Name: "scribe_action_items_total",
			Help: "Total number of action item drafts detected",
		}),
	}
}
