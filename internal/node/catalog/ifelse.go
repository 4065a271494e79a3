package catalog

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/atlas-desktop/backtest-workflow-engine/internal/apperrors"
	"github.com/atlas-desktop/backtest-workflow-engine/internal/bus"
	"github.com/atlas-desktop/backtest-workflow-engine/internal/node"
	"github.com/atlas-desktop/backtest-workflow-engine/pkg/types"
)

// Predicate evaluates a boolean condition over the node's current
// cycle inputs. Predicates are stored pre-compiled; Case.Raw retains
// the original JSON for IF_ELSE_NODE_1001 diagnostics.
type Predicate func(ctx context.Context, services StrategyServices) (bool, error)

// Case is one ordered branch of an IfElseNode.
type Case struct {
	CaseID    types.ConfigId
	Predicate Predicate
	Raw       json.RawMessage
}

// IfElseNode evaluates its cases in order and emits on the first
// matching case's handle, or on ElseHandleId if none match.
type IfElseNode struct {
	*node.Runtime
	services StrategyServices
	cases    []Case
	handles  map[types.ConfigId]*bus.OutputHandle
}

// NewIfElseNode builds an IfElseNode wrapping rt.
func NewIfElseNode(rt *node.Runtime, services StrategyServices, cases []Case) *IfElseNode {
	n := &IfElseNode{
		Runtime:  rt,
		services: services,
		cases:    cases,
		handles:  make(map[types.ConfigId]*bus.OutputHandle),
	}
	rt.SetHandler(n)
	return n
}

// Init registers one output handle per case plus the else handle.
func (n *IfElseNode) Init(ctx context.Context) error {
	for _, c := range n.cases {
		h := n.RegisterOutput(types.HandleId(caseHandleName(c.CaseID)))
		h.ConfigID = c.CaseID
		n.handles[c.CaseID] = h
	}
	n.RegisterOutput(types.ElseHandleId)
	return n.Runtime.Init(ctx)
}

// OnCycle evaluates cases in order, emitting on the first match or
// else.
func (n *IfElseNode) OnCycle(ctx context.Context, rt *node.Runtime, in node.CycleInputs) error {
	for _, c := range n.cases {
		matched, err := c.Predicate(ctx, n.services)
		if err != nil {
			return apperrors.NewNodeError(apperrors.CodeIfElsePredicateFailed,
				"predicate evaluation failed: "+err.Error(),
				"条件判断执行失败: "+err.Error(),
			)
		}
		if !matched {
			continue
		}
		h := n.handles[c.CaseID]
		h.Publish(bus.TriggerEvent{
			Kind:       bus.TriggerConditionMatch,
			FromNodeID: rt.ID,
			FromHandle: h.ID,
			PlayIndex:  in.PlayIndex,
			CycleID:    in.CycleID,
			CaseID:     c.CaseID,
		})
		return nil
	}

	elseHandle, err := rt.Handles.Handle(types.ElseHandleId)
	if err != nil {
		return err
	}
	elseHandle.Publish(bus.TriggerEvent{
		Kind:       bus.TriggerConditionMatch,
		FromNodeID: rt.ID,
		FromHandle: types.ElseHandleId,
		PlayIndex:  in.PlayIndex,
		CycleID:    in.CycleID,
		IsElse:     true,
	})
	return nil
}

func caseHandleName(id types.ConfigId) string {
	return "case_" + strconv.Itoa(int(id))
}
