// Package metrics holds the Prometheus collectors shared by newsdesk components.
//
// Collectors are package-level so decorators and connectors can be built
// without threading a registry through every constructor. Register must be
// called once by the binary that exposes /metrics.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "newsdesk"

// Outcome labels used by ConnectorRequestsTotal.
const (
	OutcomeOK            = "ok"
	OutcomeNotConfigured = "not_configured"
	OutcomeTransport     = "transport"
	OutcomeProvider      = "provider"
	OutcomeMalformed     = "malformed"
	OutcomeEmpty         = "empty"
	OutcomeStorage       = "storage"
)

var (
	// EmbeddingCacheTotal counts embedding cache lookups by result ("hit"/"miss").
	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_cache_total",
			Help:      "Embedding cache hits and misses",
		},
		[]string{"result"},
	)

	// ConnectorRequestsTotal counts connector calls by outcome.
	ConnectorRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connector_requests_total",
			Help:      "Source connector calls by outcome",
		},
		[]string{"connector", "outcome"},
	)

	// ConnectorDocumentsTotal counts documents written to the store per connector.
	ConnectorDocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connector_documents_total",
			Help:      "Documents ingested per source connector",
		},
		[]string{"connector"},
	)

	// PipelineRunsTotal counts research runs by how they ended ("ok"/"degraded"/"panic").
	PipelineRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_total",
			Help:      "Research pipeline runs by result",
		},
		[]string{"result"},
	)

	// PipelineStageDuration observes how long each pipeline stage took.
	PipelineStageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_stage_duration_seconds",
			Help:      "Research pipeline stage duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"stage"},
	)
)

var registerOnce sync.Once

// Register adds every collector to the default registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			EmbeddingCacheTotal,
			ConnectorRequestsTotal,
			ConnectorDocumentsTotal,
			PipelineRunsTotal,
			PipelineStageDuration,
			httpRequestDuration,
			httpRequestsTotal,
		)
	})
}
