package benchmark

import (
	"sync"
	"time"

	"github.com/atlas-desktop/backtest-workflow-engine/pkg/types"
)

// Barrier coordinates a strategy-wide cycle: it knows the set of nodes
// that must report before the cycle is considered complete, and wakes
// Wait() once every active node has reported (or the node is inactive
// and was auto-completed by the caller).
type Barrier struct {
	mu       sync.Mutex
	pending  map[types.NodeId]struct{}
	done     chan struct{}
	tracker  *StrategyCycleTracker
}

// NewBarrier starts a barrier for cycle id over the given active node
// set.
func NewBarrier(id types.CycleId, startedAt time.Time, activeNodes []types.NodeId) *Barrier {
	pending := make(map[types.NodeId]struct{}, len(activeNodes))
	for _, n := range activeNodes {
		pending[n] = struct{}{}
	}
	b := &Barrier{
		pending: pending,
		done:    make(chan struct{}),
		tracker: NewStrategyCycleTracker(id, startedAt),
	}
	if len(pending) == 0 {
		close(b.done)
	}
	return b
}

// Report records nodeID's completion for this cycle. The barrier
// closes Done() once every pending node has reported.
func (b *Barrier) Report(c types.CompletedCycle) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.tracker.ReportNode(c)
	delete(b.pending, c.NodeID)
	if len(b.pending) == 0 {
		select {
		case <-b.done:
		default:
			close(b.done)
		}
	}
}

// Done returns a channel that closes once every active node for this
// cycle has reported.
func (b *Barrier) Done() <-chan struct{} {
	return b.done
}

// Complete finalizes the barrier's tracker at finishedAt and returns
// it for inspection (AnyFailed, NodeReports, duration).
func (b *Barrier) Complete(finishedAt time.Time) *StrategyCycleTracker {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tracker.Complete(finishedAt)
	return b.tracker
}
