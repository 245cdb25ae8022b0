package cart

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	Mutations *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	m := &Metrics{
		Mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cart_mutations_total",
				Help:      "Cart mutations by operation and outcome",
			},
			[]string{"op", "outcome"},
		),
	}
	reg.MustRegister(m.Mutations)
	return m
}

func (m *Metrics) observe(op string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.Mutations.WithLabelValues(op, outcome).Inc()
}
