package publish

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts what a Client did during one run. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	transactions *prometheus.CounterVec
	deployments  *prometheus.CounterVec
	wait         prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "anipublish",
			Name:      "transactions_total",
			Help:      "Transactions by outcome.",
		}, []string{"outcome"}),
		deployments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "anipublish",
			Name:      "deployments_total",
			Help:      "Confirmed contract deployments by contract name.",
		}, []string{"contract"}),
		wait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "anipublish",
			Name:      "confirmation_wait_seconds",
			Help:      "Time spent waiting for transaction confirmation.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		}),
	}
	if reg != nil {
		reg.MustRegister(m.transactions, m.deployments, m.wait)
	}
	return m
}

func (m *Metrics) observeSent() {
	if m == nil {
		return
	}
	m.transactions.WithLabelValues("sent").Inc()
}

// observeRejected counts transactions dropped because the dry run reverted.
func (m *Metrics) observeRejected() {
	if m == nil {
		return
	}
	m.transactions.WithLabelValues("rejected").Inc()
}

func (m *Metrics) observeFinal(status TxStatus, waited time.Duration) {
	if m == nil {
		return
	}
	m.transactions.WithLabelValues(status.String()).Inc()
	m.wait.Observe(waited.Seconds())
}

func (m *Metrics) observeDeployed(contract string) {
	if m == nil {
		return
	}
	m.deployments.WithLabelValues(contract).Inc()
}
