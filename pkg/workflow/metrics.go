package workflow

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	outcomeOK      = "ok"
	outcomeInvalid = "invalid"
	outcomeFailed  = "failed"
	outcomeBusy    = "busy"
)

// Metrics counts workflow operations by outcome
type Metrics struct {
	registry         *prometheus.Registry
	operationsTotal  *prometheus.CounterVec
	connectedWallets prometheus.Gauge
}

// NewMetrics builds a metrics set on its own registry
func NewMetrics() *Metrics {
	ops := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "keystore_swap_operations_total",
		Help: "Workflow operations by outcome",
	}, []string{"operation", "outcome"})

	wallets := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "keystore_swap_connected_wallets",
		Help: "Number of wallets held by the session",
	})

	r := prometheus.NewRegistry()
	r.MustRegister(ops, wallets)

	return &Metrics{
		registry:         r,
		operationsTotal:  ops,
		connectedWallets: wallets,
	}
}

// Handler exposes the registry over HTTP
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) incOperation(op operation, outcome string) {
	m.operationsTotal.WithLabelValues(string(op), outcome).Inc()
}

func (m *Metrics) setConnectedWallets(n int) {
	m.connectedWallets.Set(float64(n))
}
