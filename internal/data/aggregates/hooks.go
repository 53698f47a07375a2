package aggregates

import (
	"time"

	"github.com/yungbote/greenlight-backend/internal/observability"
)

// Hooks receives one signal per aggregate write.
type Hooks interface {
	ObserveOperation(name, status string, dur time.Duration)
	IncConflict(name string)
	IncRetry(name string)
}

type metricsHooks struct {
	metrics *observability.Metrics
}

// NewObservabilityHooks reports writes to prometheus. A nil metrics value
// yields hooks that drop everything.
func NewObservabilityHooks(metrics *observability.Metrics) Hooks {
	return metricsHooks{metrics: metrics}
}

func (h metricsHooks) ObserveOperation(name, status string, dur time.Duration) {
	h.metrics.ObserveAggregateOperation(name, status, dur)
}

func (h metricsHooks) IncConflict(name string) { h.metrics.IncAggregateConflict(name) }

func (h metricsHooks) IncRetry(name string) { h.metrics.IncAggregateRetry(name) }
