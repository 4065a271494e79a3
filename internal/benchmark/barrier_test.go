package benchmark

import (
	"testing"
	"time"

	"github.com/atlas-desktop/backtest-workflow-engine/pkg/types"
)

func TestBarrierClosesOnceAllNodesReport(t *testing.T) {
	now := time.Now()
	b := NewBarrier(1, now, []types.NodeId{"a", "b"})

	select {
	case <-b.Done():
		t.Fatal("barrier should not be done before any node reports")
	default:
	}

	b.Report(types.CompletedCycle{NodeID: "a", CycleID: 1, Outcome: types.CycleOutcome{OK: true}})
	select {
	case <-b.Done():
		t.Fatal("barrier should not be done with one of two nodes pending")
	default:
	}

	b.Report(types.CompletedCycle{NodeID: "b", CycleID: 1, Outcome: types.CycleOutcome{OK: false, Code: "X"}})
	select {
	case <-b.Done():
	case <-time.After(time.Second):
		t.Fatal("barrier should be done once both nodes reported")
	}

	report := b.Complete(time.Now())
	if !report.AnyFailed() {
		t.Fatal("expected AnyFailed to be true after a failing node report")
	}
}

func TestBarrierWithNoActiveNodesClosesImmediately(t *testing.T) {
	b := NewBarrier(1, time.Now(), nil)
	select {
	case <-b.Done():
	default:
		t.Fatal("barrier with no active nodes should close immediately")
	}
}
