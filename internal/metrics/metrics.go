package metrics

import (
	"github.com/Skotchmaster/rocketshoes/internal/cart"
	"github.com/prometheus/client_golang/prometheus"
)

// Cart counts cart operations by outcome.
type Cart struct {
	operations *prometheus.CounterVec
}

func NewCart(reg prometheus.Registerer) *Cart {
	m := &Cart{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "rocketshoes",
				Name:      "cart_operations_total",
				Help:      "Cart operations by operation and outcome.",
			},
			[]string{"operation", "outcome"},
		),
	}
	reg.MustRegister(m.operations)
	return m
}

func (m *Cart) Observe(op string, outcome cart.Outcome) {
	m.operations.WithLabelValues(op, string(outcome)).Inc()
}
