// Package metrics exposes Prometheus counters for the matching engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "hirematch"

var (
	// SwipesRecorded counts stored swipes by direction and type.
	SwipesRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "swipes_recorded_total",
		Help:      "Total number of swipes recorded",
	}, []string{"direction", "type"})

	// MatchesCreated counts matches by type.
	MatchesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "matches_created_total",
		Help:      "Total number of matches created",
	}, []string{"type"})

	// ApplicationTransitions counts application status changes by target status.
	ApplicationTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "application_transitions_total",
		Help:      "Total number of application status transitions",
	}, []string{"to"})

	// Cascades counts multi-statement deletions by entity and outcome (committed, rolled_back).
	Cascades = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cascade_deletes_total",
		Help:      "Total number of cascading deletes by entity and outcome",
	}, []string{"entity", "outcome"})

	// RPCDuration records unary RPC latency by method and status code.
	RPCDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "grpc",
		Name:      "request_duration_seconds",
		Help:      "gRPC request latency in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "code"})
)

// ObserveCascade counts one finished cascade transaction of entity.
// Call it only once the transaction has run; rejections before it are not cascades.
func ObserveCascade(entity string, err error) {
	Cascades.WithLabelValues(entity, CascadeOutcome(err)).Inc()
}

// CascadeOutcome returns the outcome label for a cascade result.
func CascadeOutcome(err error) string {
	if err != nil {
		return "rolled_back"
	}
	return "committed"
}
