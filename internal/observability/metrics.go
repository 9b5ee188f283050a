package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthFailures counts rejected authentication attempts by reason.
	AuthFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postblog_auth_failures_total",
		Help: "Total number of rejected authentication attempts by reason",
	}, []string{"reason"})

	// TokensIssued counts session tokens signed by the token service.
	TokensIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "postblog_tokens_issued_total",
		Help: "Total number of session tokens issued",
	})

	// TokensRevoked counts session tokens added to the revocation store.
	TokensRevoked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "postblog_tokens_revoked_total",
		Help: "Total number of session tokens revoked",
	})

	// RevocationsPruned counts expired revocation entries removed by the pruner.
	RevocationsPruned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "postblog_revocations_pruned_total",
		Help: "Total number of expired revocation entries pruned",
	})

	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postblog_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// StoreOperationLatency records store latency by backend and operation.
	StoreOperationLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "postblog_store_operation_seconds",
		Help:    "Store operation latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"backend", "operation"})
)

// StoreMetrics records operation latency for one storage backend.
type StoreMetrics struct {
	backend string
}

// NewStoreMetrics returns a StoreMetrics labelled with backend.
func NewStoreMetrics(backend string) *StoreMetrics {
	return &StoreMetrics{backend: backend}
}

// ObserveOperation records the latency of an operation that started at start.
func (m *StoreMetrics) ObserveOperation(operation string, start time.Time) {
	StoreOperationLatency.WithLabelValues(m.backend, operation).Observe(time.Since(start).Seconds())
}

// TrackOperation returns a function that records latency when called (e.g. defer).
func (m *StoreMetrics) TrackOperation(operation string) func() {
	start := time.Now()
	return func() {
		m.ObserveOperation(operation, start)
	}
}
