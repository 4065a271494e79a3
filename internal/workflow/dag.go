// Package workflow implements the strategy runtime: DAG construction
// from StrategyConfig, the play loop, the single-threaded command
// router, and the custom-variable store. Grounded on the teacher's
// internal/backtester/engine.go Run loop, restructured per §4.F from
// "drain a sorted event queue" to "drive a play-index watch with a
// completion barrier per cycle".
package workflow

import (
	"github.com/atlas-desktop/backtest-workflow-engine/internal/apperrors"
	"github.com/atlas-desktop/backtest-workflow-engine/pkg/types"
)

// buildOrder runs Kahn's algorithm over the configured edges. A
// residual in-degree after the sort means the graph has a cycle,
// raised as STRATEGY_1003.
func buildOrder(nodes []types.NodeConfig, edges []types.EdgeConfig) ([]types.NodeId, error) {
	inDegree := make(map[types.NodeId]int, len(nodes))
	adjacency := make(map[types.NodeId][]types.NodeId, len(nodes))
	for _, n := range nodes {
		inDegree[n.ID] = 0
	}
	for _, e := range edges {
		adjacency[e.FromNode] = append(adjacency[e.FromNode], e.ToNode)
		inDegree[e.ToNode]++
	}

	var queue []types.NodeId
	for _, n := range nodes {
		if inDegree[n.ID] == 0 {
			queue = append(queue, n.ID)
		}
	}

	order := make([]types.NodeId, 0, len(nodes))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)
		for _, next := range adjacency[id] {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if len(order) != len(nodes) {
		return nil, apperrors.NewStrategyError(apperrors.CodeStrategyNodeCycle,
			"node graph contains a cycle",
			"节点图存在环路",
		)
	}
	return order, nil
}
