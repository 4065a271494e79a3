package catalog

import (
	"context"
	"strconv"

	"github.com/atlas-desktop/backtest-workflow-engine/internal/apperrors"
	"github.com/atlas-desktop/backtest-workflow-engine/internal/bus"
	"github.com/atlas-desktop/backtest-workflow-engine/internal/node"
	"github.com/atlas-desktop/backtest-workflow-engine/internal/vts"
	"github.com/atlas-desktop/backtest-workflow-engine/pkg/types"
	"github.com/atlas-desktop/backtest-workflow-engine/pkg/utils"
	"github.com/shopspring/decimal"
)

// FuturesOrderConfig is one configured order submission, triggered
// whenever an event arrives on InputHandleID. Price/Quantity are
// resolved at build time from the node's JSON config; a future
// enhancement could let either reference an upstream indicator
// output instead of a literal.
type FuturesOrderConfig struct {
	OrderConfigID types.ConfigId
	InputHandleID types.HandleId
	Symbol        string
	OrderType     types.OrderType
	OrderSide     types.PositionSide
	Price         decimal.Decimal
	Quantity      decimal.Decimal
	TP            *types.TPSL
	SL            *types.TPSL
}

// FuturesOrderNode submits an order to the VTS whenever its input
// handle fires, routing the result to a success or failed handle
// tagged by OrderConfigID.
type FuturesOrderNode struct {
	*node.Runtime
	services     StrategyServices
	configs      []FuturesOrderConfig
	successHandles map[types.ConfigId]*bus.OutputHandle
	failedHandles  map[types.ConfigId]*bus.OutputHandle
}

// NewFuturesOrderNode builds a FuturesOrderNode wrapping rt.
func NewFuturesOrderNode(rt *node.Runtime, services StrategyServices, configs []FuturesOrderConfig) *FuturesOrderNode {
	n := &FuturesOrderNode{
		Runtime:        rt,
		services:       services,
		configs:        configs,
		successHandles: make(map[types.ConfigId]*bus.OutputHandle),
		failedHandles:  make(map[types.ConfigId]*bus.OutputHandle),
	}
	rt.SetHandler(n)
	return n
}

// Init registers a success and a failed output handle per configured
// order, each tagged with that order's ConfigId.
func (n *FuturesOrderNode) Init(ctx context.Context) error {
	for _, cfg := range n.configs {
		ok := n.RegisterOutput(types.HandleId("order_" + strconv.Itoa(int(cfg.OrderConfigID)) + "_success"))
		ok.ConfigID = cfg.OrderConfigID
		n.successHandles[cfg.OrderConfigID] = ok

		fail := n.RegisterOutput(types.HandleId("order_" + strconv.Itoa(int(cfg.OrderConfigID)) + "_failed"))
		fail.ConfigID = cfg.OrderConfigID
		n.failedHandles[cfg.OrderConfigID] = fail
	}
	return n.Runtime.Init(ctx)
}

// OnCycle submits every order whose InputHandleID received an event
// this cycle.
func (n *FuturesOrderNode) OnCycle(ctx context.Context, rt *node.Runtime, in node.CycleInputs) error {
	for _, cfg := range n.configs {
		if len(in.Events[cfg.InputHandleID]) == 0 {
			continue
		}

		price, qty := cfg.Price, cfg.Quantity
		if info, err := n.services.GetSymbolInfo(ctx, cfg.Symbol); err == nil {
			price = utils.RoundToTickSize(price, info.TickSize)
			qty = utils.RoundToStepSize(qty, info.StepSize)
		}

		req := vts.Request{
			Kind:     vts.ReqOpen,
			Symbol:   cfg.Symbol,
			Side:     cfg.OrderSide,
			Type:     cfg.OrderType,
			Price:    price,
			Quantity: qty,
			TP:       cfg.TP,
			SL:       cfg.SL,
		}
		resp, err := n.services.SubmitVTS(ctx, req)
		code := ""
		success := err == nil
		if err != nil {
			if ae, ok := err.(*apperrors.Error); ok {
				code = ae.Code
			} else {
				code = apperrors.CodeFuturesOrderSubmitFailed
			}
		}

		var handle *bus.OutputHandle
		if success {
			handle = n.successHandles[cfg.OrderConfigID]
		} else {
			handle = n.failedHandles[cfg.OrderConfigID]
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
			ConfigID:   cfg.OrderConfigID,
			Success:    success,
			Code:       code,
		})
		_ = resp
	}
	return nil
}
