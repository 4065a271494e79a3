package workflow

import (
	"testing"

	"github.com/atlas-desktop/backtest-workflow-engine/internal/apperrors"
	"github.com/atlas-desktop/backtest-workflow-engine/pkg/types"
)

func TestBuildOrderEmptyGraph(t *testing.T) {
	order, err := buildOrder(nil, nil)
	if err != nil {
		t.Fatalf("unexpected error on empty graph: %v", err)
	}
	if len(order) != 0 {
		t.Fatalf("expected empty order, got %v", order)
	}
}

func TestBuildOrderLinearChain(t *testing.T) {
	nodes := []types.NodeConfig{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	edges := []types.EdgeConfig{
		{FromNode: "a", ToNode: "b"},
		{FromNode: "b", ToNode: "c"},
	}
	order, err := buildOrder(nodes, edges)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []types.NodeId{"a", "b", "c"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i, id := range want {
		if order[i] != id {
			t.Fatalf("order[%d] = %s, want %s", i, order[i], id)
		}
	}
}

func TestBuildOrderDetectsCycle(t *testing.T) {
	nodes := []types.NodeConfig{{ID: "a"}, {ID: "b"}}
	edges := []types.EdgeConfig{
		{FromNode: "a", ToNode: "b"},
		{FromNode: "b", ToNode: "a"},
	}
	_, err := buildOrder(nodes, edges)
	if !apperrors.Is(err, apperrors.CodeStrategyNodeCycle) {
		t.Fatalf("expected CodeStrategyNodeCycle, got %v", err)
	}
}
