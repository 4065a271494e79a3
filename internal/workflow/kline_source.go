package workflow

import (
	"github.com/atlas-desktop/backtest-workflow-engine/internal/fabric"
	"github.com/atlas-desktop/backtest-workflow-engine/internal/node/catalog"
	"github.com/atlas-desktop/backtest-workflow-engine/pkg/types"
	"github.com/shopspring/decimal"
)

// KlineSource is the strategy's data-source collaborator, satisfied
// either by a file-backed series (DataSourceFile) or by an exchange
// adapter (DataSourceExchange, out of scope for this module). Grounded
// on the teacher's data.Store cache-then-load pattern
// (internal/data/store.go), narrowed to the two lookups the command
// router serves: a bar by play index and a symbol's tick/step sizes.
type KlineSource interface {
	At(symbol string, playIndex types.PlayIndex) (fabric.KlineTick, bool, error)
	SymbolInfo(symbol string) (catalog.SymbolInfo, error)
}

// FileKlineSource serves a preloaded, in-memory series per symbol —
// the DataSourceFile mode. Each symbol's series is indexed directly by
// PlayIndex, mirroring the teacher's cached []*types.OHLCV slices.
type FileKlineSource struct {
	series map[string][]fabric.KlineTick
	info   map[string]catalog.SymbolInfo
}

// NewFileKlineSource builds a source from preloaded per-symbol series.
func NewFileKlineSource(series map[string][]fabric.KlineTick, info map[string]catalog.SymbolInfo) *FileKlineSource {
	return &FileKlineSource{series: series, info: info}
}

// At returns the tick at playIndex for symbol, or ok=false once the
// series is exhausted.
func (s *FileKlineSource) At(symbol string, playIndex types.PlayIndex) (fabric.KlineTick, bool, error) {
	ticks, ok := s.series[symbol]
	if !ok {
		return fabric.KlineTick{}, false, nil
	}
	idx := int(playIndex)
	if idx < 0 || idx >= len(ticks) {
		return fabric.KlineTick{}, false, nil
	}
	return ticks[idx], true, nil
}

// SymbolInfo returns the configured tick/step size for symbol, or a
// default of 1e-8 increments if unconfigured.
func (s *FileKlineSource) SymbolInfo(symbol string) (catalog.SymbolInfo, error) {
	if info, ok := s.info[symbol]; ok {
		return info, nil
	}
	return catalog.SymbolInfo{TickSize: decimal.New(1, -8), StepSize: decimal.New(1, -8)}, nil
}
