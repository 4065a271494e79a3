// Package catalog implements the seven concrete node kinds dispatched
// from StrategyConfig.Nodes: Start, Kline, Indicator, Variable, IfElse,
// FuturesOrder, Position. Each embeds *node.Runtime and implements
// node.EventHandler. Grounded on the teacher's per-strategy structs in
// internal/strategy/*.go (momentum/grid/dca, each owning its own config
// plus Initialize/OnBar/OnTick/Reset), generalized here to the shared
// node contract instead of one struct per trading style.
package catalog

import (
	"context"

	"github.com/atlas-desktop/backtest-workflow-engine/internal/fabric"
	"github.com/atlas-desktop/backtest-workflow-engine/internal/vts"
	"github.com/atlas-desktop/backtest-workflow-engine/pkg/types"
	"github.com/shopspring/decimal"
)

// SymbolInfo is the exchange metadata FuturesOrderNode uses to round
// prices/quantities to valid increments.
type SymbolInfo struct {
	TickSize decimal.Decimal
	StepSize decimal.Decimal
}

// StrategyServices is the narrow surface a catalog node needs from the
// owning workflow.Runtime: the single-threaded command router (F) and
// the VTS command inbox (G). Catalog depends on this interface, not on
// the workflow package, so the dependency points the natural direction
// (workflow -> catalog, never catalog -> workflow).
type StrategyServices interface {
	GetKlineData(ctx context.Context, symbol string, playIndex types.PlayIndex) (fabric.KlineTick, bool, error)
	GetSymbolInfo(ctx context.Context, symbol string) (SymbolInfo, error)
	GetCustomVariable(ctx context.Context, name string) (decimal.Decimal, bool, error)
	UpdateCustomVariable(ctx context.Context, name string, value decimal.Decimal) error
	SysVariable(ctx context.Context, name string) (decimal.Decimal, error)

	SubmitVTS(ctx context.Context, req vts.Request) (vts.Response, error)
}
