package observability

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/formwork/pkg/domain"
)

// Metrics records validation activity.
type Metrics struct {
	passes   *prometheus.CounterVec
	fields   prometheus.Counter
	failed   prometheus.Counter
	expired  prometheus.Counter
	duration prometheus.Histogram
	writes   prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		passes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "formwork_validation_passes_total",
				Help: "Total number of validation passes by outcome",
			},
			[]string{"outcome"},
		),
		fields: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "formwork_validated_fields_total",
			Help: "Total number of fields dispatched to the validator",
		}),
		failed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "formwork_field_errors_total",
			Help: "Total number of fields that ended a pass with errors",
		}),
		expired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "formwork_stale_results_total",
			Help: "Total number of validation results discarded as stale",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "formwork_validation_duration_seconds",
			Help:    "Duration of validation passes",
			Buckets: prometheus.DefBuckets,
		}),
		writes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "formwork_store_writes_total",
			Help: "Total number of field records changed",
		}),
	}

	if reg != nil {
		for _, c := range []prometheus.Collector{m.passes, m.fields, m.failed, m.expired, m.duration, m.writes} {
			if err := reg.Register(c); err != nil {
				return nil, fmt.Errorf("failed to register metrics: %w", err)
			}
		}
	}
	return m, nil
}

// Hooks returns the hooks feeding m.
func (m *Metrics) Hooks() domain.Hooks {
	return domain.Hooks{
		OnValidationStart: func(_ context.Context, e *domain.PassEvent) {
			m.fields.Add(float64(len(e.Fields)))
		},
		OnValidationDone: func(_ context.Context, e *domain.PassEvent) {
			m.passes.WithLabelValues(outcome(e)).Inc()
			m.failed.Add(float64(len(e.Failed)))
			m.expired.Add(float64(len(e.Expired)))
			m.duration.Observe(e.Duration.Seconds())
		},
		OnStoreChange: func(names []string) {
			m.writes.Add(float64(len(names)))
		},
	}
}

func outcome(e *domain.PassEvent) string {
	switch {
	case e.Err != nil:
		return "error"
	case len(e.Failed) > 0:
		return "invalid"
	case len(e.Expired) > 0:
		return "stale"
	default:
		return "valid"
	}
}
