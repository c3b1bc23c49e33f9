package ledger

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts ledger operations by name and outcome.
type Metrics struct {
	operations *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	ops := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledger",
		Name:      "operations_total",
		Help:      "Ledger mutations by operation and outcome (ok or error kind).",
	}, []string{"operation", "outcome"})
	if err := reg.Register(ops); err != nil {
		return nil, err
	}
	return &Metrics{operations: ops}, nil
}

func (m *Metrics) observe(op string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "internal"
		if kind, ok := KindOf(err); ok {
			outcome = string(kind)
		}
	}
	m.operations.WithLabelValues(op, outcome).Inc()
}
