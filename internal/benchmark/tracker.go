// Package benchmark implements the per-node cycle tracker and the
// strategy-wide completion barrier, plus their Prometheus exposition.
// Grounded on the teacher's internal/backtester/metrics.go rolling
// window bookkeeping, generalized from equity-curve sampling to
// per-cycle latency/outcome tracking.
package benchmark

import (
	"sync"
	"time"

	"github.com/atlas-desktop/backtest-workflow-engine/pkg/types"
)

// DefaultWindow is the rolling window size for cycle history retained
// per node.
const DefaultWindow = 1024

// CycleTracker records completed cycles for a single node in a fixed
// size ring buffer, oldest entries evicted first.
type CycleTracker struct {
	mu      sync.Mutex
	nodeID  types.NodeId
	window  int
	entries []types.CompletedCycle
	next    int
	full    bool

	collector *nodeCollector
}

// NewCycleTracker creates a tracker for nodeID with the default window.
func NewCycleTracker(nodeID types.NodeId, collector *nodeCollector) *CycleTracker {
	return &CycleTracker{
		nodeID:  nodeID,
		window:  DefaultWindow,
		entries: make([]types.CompletedCycle, DefaultWindow),
		collector: collector,
	}
}

// Record appends a completed cycle, evicting the oldest entry once the
// window is full, and updates the Prometheus collectors if attached.
func (t *CycleTracker) Record(c types.CompletedCycle) {
	t.mu.Lock()
	t.entries[t.next] = c
	t.next = (t.next + 1) % t.window
	if t.next == 0 {
		t.full = true
	}
	t.mu.Unlock()

	if t.collector != nil {
		t.collector.observe(c)
	}
}

// Recent returns up to n of the most recently recorded cycles, newest
// last.
func (t *CycleTracker) Recent(n int) []types.CompletedCycle {
	t.mu.Lock()
	defer t.mu.Unlock()

	count := t.next
	if t.full {
		count = t.window
	}
	if n > count {
		n = count
	}
	out := make([]types.CompletedCycle, 0, n)
	start := t.next - n
	for i := 0; i < n; i++ {
		idx := (start + i + t.window) % t.window
		out = append(out, t.entries[idx])
	}
	return out
}

// Count returns the number of cycles currently retained, at most the
// window size; cycles already evicted from the ring are not counted.
func (t *CycleTracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.full {
		return t.window
	}
	return t.next
}

// StrategyCycleTracker aggregates the per-node reports for one
// strategy-wide cycle barrier completion.
type StrategyCycleTracker struct {
	CycleID     types.CycleId
	StartedAt   time.Time
	FinishedAt  time.Time
	NodeReports map[types.NodeId]types.CompletedCycle
}

// NewStrategyCycleTracker starts tracking cycle id at startedAt.
func NewStrategyCycleTracker(id types.CycleId, startedAt time.Time) *StrategyCycleTracker {
	return &StrategyCycleTracker{
		CycleID:     id,
		StartedAt:   startedAt,
		NodeReports: make(map[types.NodeId]types.CompletedCycle),
	}
}

// ReportNode records a single node's completion within this cycle.
func (s *StrategyCycleTracker) ReportNode(c types.CompletedCycle) {
	s.NodeReports[c.NodeID] = c
}

// Complete marks the barrier finished and returns the aggregate
// duration.
func (s *StrategyCycleTracker) Complete(finishedAt time.Time) time.Duration {
	s.FinishedAt = finishedAt
	return finishedAt.Sub(s.StartedAt)
}

// AnyFailed reports whether any tracked node reported a non-OK outcome.
func (s *StrategyCycleTracker) AnyFailed() bool {
	for _, r := range s.NodeReports {
		if !r.Outcome.OK {
			return true
		}
	}
	return false
}
