package workflow

import (
	"fmt"

	"github.com/atlas-desktop/backtest-workflow-engine/internal/benchmark"
	"github.com/atlas-desktop/backtest-workflow-engine/internal/indicator"
	"github.com/atlas-desktop/backtest-workflow-engine/internal/node"
	"github.com/atlas-desktop/backtest-workflow-engine/internal/node/catalog"
	"github.com/atlas-desktop/backtest-workflow-engine/pkg/types"
	"github.com/atlas-desktop/backtest-workflow-engine/pkg/utils"
	"go.uber.org/zap"
)

// buildNode dispatches cfg.Kind to the matching catalog constructor,
// grounded on the teacher's strategy.StrategyRegistry factory
// (internal/strategy/strategy.go), generalized from "one registry entry
// per trading style" to "one entry per node kind".
func (r *Runtime) buildNode(logger *zap.Logger, cfg types.NodeConfig) (node.Node, *node.Runtime, error) {
	tracker := benchmark.NewCycleTracker(cfg.ID, benchmark.NewNodeCollector(r.promRegistry, cfg.ID))
	rt := node.NewRuntime(logger, cfg.ID, cfg.Name, cfg.Kind, tracker)

	switch cfg.Kind {
	case types.NodeKindStart:
		return catalog.NewStartNode(rt), rt, nil

	case types.NodeKindKline:
		return catalog.NewKlineNode(rt, r, parseKlineConfig(cfg.Config)), rt, nil

	case types.NodeKindIndicator:
		return catalog.NewIndicatorNode(rt, indicator.Stub{}, parseIndicatorConfigs(cfg.Config)), rt, nil

	case types.NodeKindVariable:
		return catalog.NewVariableNode(rt, r, parseVariableConfigs(cfg.Config)), rt, nil

	case types.NodeKindIfElse:
		return catalog.NewIfElseNode(rt, r, parseCases(cfg.Config)), rt, nil

	case types.NodeKindFuturesOrder:
		return catalog.NewFuturesOrderNode(rt, r, parseFuturesOrderConfigs(cfg.Config)), rt, nil

	case types.NodeKindPosition:
		return catalog.NewPositionNode(rt, r, parsePositionConfigs(cfg.Config)), rt, nil

	default:
		return nil, nil, fmt.Errorf("unknown node kind %q", cfg.Kind)
	}
}

func parseKlineConfig(cfg map[string]any) catalog.KlineConfig {
	out := catalog.KlineConfig{DataSource: types.DataSourceMode(stringField(cfg, "dataSource"))}
	for i, m := range mapSliceField(cfg, "symbols") {
		out.Symbols = append(out.Symbols, catalog.SymbolConfig{
			ConfigID: types.ConfigId(i),
			Symbol:   utils.FormatSymbol(stringField(m, "symbol")),
			Interval: catalog.Timeframe(stringField(m, "interval")),
		})
	}
	return out
}

func parseIndicatorConfigs(cfg map[string]any) []catalog.IndicatorConfig {
	var out []catalog.IndicatorConfig
	for i, m := range mapSliceField(cfg, "indicators") {
		out = append(out, catalog.IndicatorConfig{
			ConfigID: types.ConfigId(i),
			Source:   types.HandleId(stringField(m, "sourceHandle")),
			Lookback: intField(m, "lookback"),
			Spec: indicator.Config{
				Name:   stringField(m, "name"),
				Params: m,
			},
		})
	}
	return out
}

func parseVariableConfigs(cfg map[string]any) []catalog.VariableConfig {
	var out []catalog.VariableConfig
	for _, m := range mapSliceField(cfg, "operations") {
		out = append(out, catalog.VariableConfig{
			Name:      stringField(m, "name"),
			SysVar:    stringField(m, "sysVar"),
			Operation: catalog.VariableOperation(stringField(m, "operation")),
			Operand:   decimalField(m, "operand"),
		})
	}
	return out
}

func parseCases(cfg map[string]any) []catalog.Case {
	var out []catalog.Case
	for i, m := range mapSliceField(cfg, "cases") {
		left := stringField(m, "left")
		op := stringField(m, "operator")
		right := decimalField(m, "right")
		out = append(out, catalog.Case{
			CaseID:    types.ConfigId(i),
			Predicate: buildPredicate(left, op, right),
		})
	}
	return out
}

func parseFuturesOrderConfigs(cfg map[string]any) []catalog.FuturesOrderConfig {
	var out []catalog.FuturesOrderConfig
	for i, m := range mapSliceField(cfg, "orders") {
		out = append(out, catalog.FuturesOrderConfig{
			OrderConfigID: types.ConfigId(i),
			InputHandleID: types.HandleId(stringField(m, "inputHandle")),
			Symbol:        utils.FormatSymbol(stringField(m, "symbol")),
			OrderType:     types.OrderType(stringField(m, "orderType")),
			OrderSide:     types.PositionSide(stringField(m, "side")),
			Price:         decimalField(m, "price"),
			Quantity:      decimalField(m, "quantity"),
		})
	}
	return out
}

func parsePositionConfigs(cfg map[string]any) []catalog.PositionOperationConfig {
	var out []catalog.PositionOperationConfig
	for i, m := range mapSliceField(cfg, "operations") {
		out = append(out, catalog.PositionOperationConfig{
			ConfigID:      types.ConfigId(i),
			InputHandleID: types.HandleId(stringField(m, "inputHandle")),
			Operation:     catalog.PositionOperation(stringField(m, "operation")),
			Symbol:        stringField(m, "symbol"),
			PositionID:    stringField(m, "positionId"),
		})
	}
	return out
}
