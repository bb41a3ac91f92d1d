// Package metrics defines the Prometheus collectors for the risk engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AssessmentsTotal counts completed fraud assessments by verdict.
	AssessmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "risk",
			Subsystem: "engine",
			Name:      "assessments_total",
			Help:      "Total completed fraud assessments",
		},
		[]string{"risk_level", "recommendation"},
	)

	// AssessmentDuration tracks end-to-end assessment latency.
	AssessmentDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "risk",
			Subsystem: "engine",
			Name:      "assessment_duration_seconds",
			Help:      "Latency of fraud assessment requests",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// FailSafeTotal counts assessments that degraded to the fail-safe verdict
	// because a dependency was unavailable.
	FailSafeTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "risk",
			Subsystem: "engine",
			Name:      "failsafe_total",
			Help:      "Assessments that fell back to the fail-safe verdict",
		},
	)

	// IngestedTransactions counts settled transactions consumed from Kafka.
	IngestedTransactions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "risk",
			Subsystem: "ingest",
			Name:      "transactions_total",
			Help:      "Settled transactions consumed for history tracking",
		},
		[]string{"result"},
	)
)
