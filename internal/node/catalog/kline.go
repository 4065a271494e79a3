package catalog

import (
	"context"

	"github.com/atlas-desktop/backtest-workflow-engine/internal/apperrors"
	"github.com/atlas-desktop/backtest-workflow-engine/internal/bus"
	"github.com/atlas-desktop/backtest-workflow-engine/internal/node"
	"github.com/atlas-desktop/backtest-workflow-engine/pkg/types"
)

// Timeframe is a kline interval label (e.g. "1m", "1h").
type Timeframe string

// SymbolConfig pairs a symbol with the timeframe KlineNode fetches it
// at, and the ConfigId its DataReady events are tagged with.
type SymbolConfig struct {
	ConfigID types.ConfigId
	Symbol   string
	Interval Timeframe
}

// KlineConfig is KlineNode's parsed configuration.
type KlineConfig struct {
	DataSource types.DataSourceMode
	Symbols    []SymbolConfig
	TimeRange  struct {
		Start, End int64
	}
}

// KlineNode fetches kline data for each configured symbol every cycle
// and emits DataReady(symbolConfigID) once new data has arrived.
type KlineNode struct {
	*node.Runtime
	services StrategyServices
	cfg      KlineConfig
	handles  map[types.ConfigId]*bus.OutputHandle
}

// NewKlineNode builds a KlineNode wrapping rt. Its per-symbol output
// handles are registered by Init.
func NewKlineNode(rt *node.Runtime, services StrategyServices, cfg KlineConfig) *KlineNode {
	n := &KlineNode{
		Runtime:  rt,
		services: services,
		cfg:      cfg,
		handles:  make(map[types.ConfigId]*bus.OutputHandle),
	}
	rt.SetHandler(n)
	return n
}

// Init registers a data-ready output handle per configured symbol,
// then runs the base lifecycle.
func (n *KlineNode) Init(ctx context.Context) error {
	if n.cfg.DataSource == "" {
		return apperrors.NewNodeError(apperrors.CodeKlineNoExchangeMode,
			"kline node has no configured data source",
			"K线节点未配置数据源",
		)
	}
	for _, sym := range n.cfg.Symbols {
		h := n.RegisterOutput(types.HandleId(sym.Symbol))
		h.ConfigID = sym.ConfigID
		n.handles[sym.ConfigID] = h
	}
	return n.Runtime.Init(ctx)
}

// OnCycle fetches each configured symbol's latest kline and emits
// DataReady on its dedicated handle when fresh data arrived.
func (n *KlineNode) OnCycle(ctx context.Context, rt *node.Runtime, in node.CycleInputs) error {
	for _, sym := range n.cfg.Symbols {
		_, fresh, err := n.services.GetKlineData(ctx, sym.Symbol, in.PlayIndex)
		if err != nil {
			return apperrors.NewNodeError(apperrors.CodeKlineStrategyError,
				"kline data fetch failed: "+err.Error(),
				"获取K线数据失败: "+err.Error(),
			)
		}
		if !fresh {
			continue
		}
		h, ok := n.handles[sym.ConfigID]
		if !ok {
			continue
		}
		h.Publish(bus.TriggerEvent{
			Kind:       bus.TriggerDataReady,
			FromNodeID: rt.ID,
			FromHandle: h.ID,
			PlayIndex:  in.PlayIndex,
			CycleID:    in.CycleID,
			ConfigID:   sym.ConfigID,
		})
	}
	return nil
}
