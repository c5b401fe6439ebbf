package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus collectors for batch observability.
type Metrics struct {
	rowsProcessed *prometheus.CounterVec
	batchesTotal  prometheus.Counter
}

// NewMetrics creates and registers batch metrics on the given registerer.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "addrcheck"
	}
	m := &Metrics{
		rowsProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rows_processed_total",
				Help:      "Rows processed, labeled by outcome",
			},
			[]string{"outcome"},
		),
		batchesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "batches_total",
				Help:      "Completed validation batches",
			},
		),
	}
	reg.MustRegister(m.rowsProcessed, m.batchesTotal)
	return m
}

// ObserveRow records one row outcome.
func (m *Metrics) ObserveRow(outcome Outcome) {
	m.rowsProcessed.WithLabelValues(outcome.label()).Inc()
}

// ObserveBatch records one completed batch.
func (m *Metrics) ObserveBatch() {
	m.batchesTotal.Inc()
}

func (o Outcome) label() string {
	switch o {
	case OutcomeValid:
		return "valid"
	case OutcomeValidationError:
		return "validation_error"
	case OutcomeServiceError:
		return "service_error"
	default:
		return "unknown"
	}
}
