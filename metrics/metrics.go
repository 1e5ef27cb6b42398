// Package metrics exposes prometheus collectors for transaction processing.
package metrics

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Collector counts processed transactions and operations.
type Collector struct {
	transactions *prometheus.CounterVec
	operations   *prometheus.CounterVec
	rebuilds     prometheus.Histogram
}

// New creates a collector and registers it on reg.
func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "linmodel_transactions_total",
			Help: "Transactions applied, by direction.",
		}, []string{"direction"}),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "linmodel_operations_total",
			Help: "Operations applied, by type.",
		}, []string{"type"}),
		rebuilds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "linmodel_rebuild_nodes",
			Help:    "Nodes produced by each structural subtree rebuild.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
	}
	for _, collector := range []prometheus.Collector{c.transactions, c.operations, c.rebuilds} {
		if err := reg.Register(collector); err != nil {
			return nil, errors.Wrap(err, "failed to register collector")
		}
	}
	return c, nil
}

// ObserveTransaction counts one transaction applied in direction, "commit" or "rollback".
func (c *Collector) ObserveTransaction(direction string) {
	if c == nil {
		return
	}
	c.transactions.WithLabelValues(direction).Inc()
}

// ObserveOperation counts one operation of type typ.
func (c *Collector) ObserveOperation(typ string) {
	if c == nil {
		return
	}
	c.operations.WithLabelValues(typ).Inc()
}

// ObserveRebuild records the number of nodes produced by a subtree rebuild.
func (c *Collector) ObserveRebuild(nodes int) {
	if c == nil {
		return
	}
	c.rebuilds.Observe(float64(nodes))
}
