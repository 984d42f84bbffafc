package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	AttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "burn_attempts_total",
			Help: "Count of finished burn attempts by terminal state",
		},
		[]string{"outcome"},
	)
	SagaTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "burn_saga_transitions_total",
			Help: "Count of saga state transitions",
		},
		[]string{"state"},
	)
	SyncRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "burn_sync_retries_total",
			Help: "Count of ledger sync retries after a confirmed burn",
		},
		[]string{"outcome"},
	)
)

// Register installs the collectors on the default registry. Call once.
func Register() {
	prometheus.MustRegister(
		AttemptsTotal,
		SagaTransitions,
		SyncRetries,
	)
}
