package benchmark

import (
	"github.com/atlas-desktop/backtest-workflow-engine/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
)

// nodeCollector exposes a node's cycle history as Prometheus metrics.
// The teacher's go.mod pulls in client_golang but never registers a
// collector; here the cycle tracker is the natural home for it since
// it already owns per-cycle timing and outcome data.
type nodeCollector struct {
	duration *prometheus.HistogramVec
	failures *prometheus.CounterVec
	cycles   *prometheus.CounterVec
}

// NewNodeCollector builds and registers a node's collectors against
// reg. A nil registry is valid and yields a collector that still tracks
// observations locally without exposition, for tests.
func NewNodeCollector(reg *prometheus.Registry, nodeID types.NodeId) *nodeCollector {
	c := &nodeCollector{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "backtest",
			Subsystem: "node",
			Name:      "cycle_duration_seconds",
			Help:      "Duration of a single node cycle.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"node_id"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "backtest",
			Subsystem: "node",
			Name:      "cycle_failures_total",
			Help:      "Count of cycles that completed with a non-OK outcome.",
		}, []string{"node_id", "code"}),
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "backtest",
			Subsystem: "node",
			Name:      "cycles_total",
			Help:      "Count of completed cycles.",
		}, []string{"node_id"}),
	}
	if reg != nil {
		reg.MustRegister(c.duration, c.failures, c.cycles)
	}
	return c
}

func (c *nodeCollector) observe(cycle types.CompletedCycle) {
	nodeID := string(cycle.NodeID)
	c.cycles.WithLabelValues(nodeID).Inc()
	c.duration.WithLabelValues(nodeID).Observe(cycle.CompletedAt.Sub(cycle.StartedAt).Seconds())
	if !cycle.Outcome.OK {
		c.failures.WithLabelValues(nodeID, cycle.Outcome.Code).Inc()
	}
}
