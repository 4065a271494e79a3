package catalog

import (
	"context"

	"github.com/atlas-desktop/backtest-workflow-engine/internal/bus"
	"github.com/atlas-desktop/backtest-workflow-engine/internal/node"
)

// StartNode emits one Trigger on its default handle per play-index
// change; it has no input handles and never fails.
type StartNode struct {
	*node.Runtime
}

// NewStartNode builds a StartNode wrapping rt.
func NewStartNode(rt *node.Runtime) *StartNode {
	n := &StartNode{Runtime: rt}
	rt.SetHandler(n)
	return n
}

// OnCycle emits a single generic trigger on the default handle.
func (n *StartNode) OnCycle(ctx context.Context, rt *node.Runtime, in node.CycleInputs) error {
	return rt.EmitDefault(in, bus.TriggerEvent{Kind: bus.TriggerGeneric})
}
