package catalog

import (
	"context"
	"strconv"

	"github.com/atlas-desktop/backtest-workflow-engine/internal/apperrors"
	"github.com/atlas-desktop/backtest-workflow-engine/internal/bus"
	"github.com/atlas-desktop/backtest-workflow-engine/internal/node"
	"github.com/atlas-desktop/backtest-workflow-engine/internal/vts"
	"github.com/atlas-desktop/backtest-workflow-engine/pkg/types"
)

// PositionOperation is one of the three supported position management
// operations.
type PositionOperation string

const (
	PositionCloseAll       PositionOperation = "close_all"
	PositionClosePosition  PositionOperation = "close_position"
	PositionPartiallyClose PositionOperation = "partially_close"
)

// PositionOperationConfig is one configured position operation,
// triggered whenever an event arrives on InputHandleID.
type PositionOperationConfig struct {
	ConfigID      types.ConfigId
	InputHandleID types.HandleId
	Operation     PositionOperation
	Symbol        string
	PositionID    string
}

// PositionNode applies position management operations against the
// VTS, routing success/failure per config_id.
type PositionNode struct {
	*node.Runtime
	services       StrategyServices
	configs        []PositionOperationConfig
	successHandles map[types.ConfigId]*bus.OutputHandle
	failedHandles  map[types.ConfigId]*bus.OutputHandle
}

// NewPositionNode builds a PositionNode wrapping rt.
func NewPositionNode(rt *node.Runtime, services StrategyServices, configs []PositionOperationConfig) *PositionNode {
	n := &PositionNode{
		Runtime:        rt,
		services:       services,
		configs:        configs,
		successHandles: make(map[types.ConfigId]*bus.OutputHandle),
		failedHandles:  make(map[types.ConfigId]*bus.OutputHandle),
	}
	rt.SetHandler(n)
	return n
}

// Init registers a success and failed output handle per configured
// operation.
func (n *PositionNode) Init(ctx context.Context) error {
	for _, cfg := range n.configs {
		ok := n.RegisterOutput(types.HandleId("position_" + strconv.Itoa(int(cfg.ConfigID)) + "_success"))
		ok.ConfigID = cfg.ConfigID
		n.successHandles[cfg.ConfigID] = ok

		fail := n.RegisterOutput(types.HandleId("position_" + strconv.Itoa(int(cfg.ConfigID)) + "_failed"))
		fail.ConfigID = cfg.ConfigID
		n.failedHandles[cfg.ConfigID] = fail
	}
	return n.Runtime.Init(ctx)
}

// OnCycle applies every configured operation whose input handle fired
// this cycle.
func (n *PositionNode) OnCycle(ctx context.Context, rt *node.Runtime, in node.CycleInputs) error {
	for _, cfg := range n.configs {
		if len(in.Events[cfg.InputHandleID]) == 0 {
			continue
		}

		var req vts.Request
		switch cfg.Operation {
		case PositionCloseAll:
			req = vts.Request{Kind: vts.ReqCloseAll, Symbol: cfg.Symbol}
		case PositionClosePosition:
			req = vts.Request{Kind: vts.ReqClose, PositionID: cfg.PositionID}
		case PositionPartiallyClose:
			req = vts.Request{Kind: vts.ReqPartialClose, PositionID: cfg.PositionID}
		default:
			return apperrors.NewNodeError(apperrors.CodePositionOperationFailed,
				"unknown position operation",
				"未知的持仓操作",
			)
		}

		_, err := n.services.SubmitVTS(ctx, req)
		success := err == nil
		code := ""
		if err != nil {
			if ae, ok := err.(*apperrors.Error); ok {
				code = ae.Code
			} else {
				code = apperrors.CodePositionOperationFailed
			}
		}

		var handle *bus.OutputHandle
		if success {
			handle = n.successHandles[cfg.ConfigID]
		} else {
			handle = n.failedHandles[cfg.ConfigID]
		}
		if handle == nil {
			continue
		}
		handle.Publish(bus.TriggerEvent{
			Kind:       bus.TriggerOrderResult,
			FromNodeID: rt.ID,
			FromHandle: handle.ID,
			PlayIndex:  in.PlayIndex,
			CycleID:    in.CycleID,
			ConfigID:   cfg.ConfigID,
			Success:    success,
			Code:       code,
		})
	}
	return nil
}
