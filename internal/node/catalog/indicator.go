package catalog

import (
	"context"
	"strconv"
	"time"

	"github.com/atlas-desktop/backtest-workflow-engine/internal/apperrors"
	"github.com/atlas-desktop/backtest-workflow-engine/internal/bus"
	"github.com/atlas-desktop/backtest-workflow-engine/internal/indicator"
	"github.com/atlas-desktop/backtest-workflow-engine/internal/node"
	"github.com/atlas-desktop/backtest-workflow-engine/pkg/types"
)

// IndicatorConfig is one configured indicator computation, keyed by
// its own ConfigId for output routing.
type IndicatorConfig struct {
	ConfigID types.ConfigId
	Source   types.HandleId // input handle carrying the raw series
	Lookback int
	Spec     indicator.Config
}

// IndicatorNode maintains a rolling window of raw input values per
// configured indicator and recomputes it through indicator.Library
// every time new data arrives on Source.
type IndicatorNode struct {
	*node.Runtime
	lib     indicator.Library
	configs []IndicatorConfig

	windows map[types.ConfigId]*window
	handles map[types.ConfigId]*bus.OutputHandle
}

type window struct {
	datetimes []time.Time
	values    []float64
}

// NewIndicatorNode builds an IndicatorNode wrapping rt.
func NewIndicatorNode(rt *node.Runtime, lib indicator.Library, configs []IndicatorConfig) *IndicatorNode {
	n := &IndicatorNode{
		Runtime: rt,
		lib:     lib,
		configs: configs,
		windows: make(map[types.ConfigId]*window),
		handles: make(map[types.ConfigId]*bus.OutputHandle),
	}
	rt.SetHandler(n)
	return n
}

// Init registers one output handle per configured indicator.
func (n *IndicatorNode) Init(ctx context.Context) error {
	for _, cfg := range n.configs {
		h := n.RegisterOutput(types.HandleId("indicator_" + strconv.Itoa(int(cfg.ConfigID))))
		h.ConfigID = cfg.ConfigID
		n.handles[cfg.ConfigID] = h
		n.windows[cfg.ConfigID] = &window{}
	}
	return n.Runtime.Init(ctx)
}

// OnCycle appends the latest value from each indicator's source handle
// to its rolling window, trims it to Lookback, and recomputes.
func (n *IndicatorNode) OnCycle(ctx context.Context, rt *node.Runtime, in node.CycleInputs) error {
	for _, cfg := range n.configs {
		events := in.Events[cfg.Source]
		if len(events) == 0 {
			continue
		}

		w := n.windows[cfg.ConfigID]
		now := time.Now()
		for range events {
			w.datetimes = append(w.datetimes, now)
		}
		if cfg.Lookback > 0 && len(w.datetimes) > cfg.Lookback {
			trim := len(w.datetimes) - cfg.Lookback
			w.datetimes = w.datetimes[trim:]
			w.values = w.values[trim:]
		}

		_, err := n.lib.Compute(ctx, cfg.Spec, w.datetimes, map[string][]float64{"close": w.values})
		if err != nil {
			return apperrors.NewNodeError(apperrors.CodeIndicatorComputeFailed,
				"indicator computation failed: "+err.Error(),
				"指标计算失败: "+err.Error(),
			)
		}

		h := n.handles[cfg.ConfigID]
		h.Publish(bus.TriggerEvent{
			Kind:       bus.TriggerDataReady,
			FromNodeID: rt.ID,
			FromHandle: h.ID,
			PlayIndex:  in.PlayIndex,
			CycleID:    in.CycleID,
			ConfigID:   cfg.ConfigID,
		})
	}
	return nil
}
