package workflow

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/atlas-desktop/backtest-workflow-engine/internal/fabric"
	"github.com/atlas-desktop/backtest-workflow-engine/internal/node/catalog"
	"github.com/shopspring/decimal"
)

// ohlcvRecord is the on-disk shape of one bar, matching the teacher's
// data.Store JSON file layout (internal/data/store.go).
type ohlcvRecord struct {
	Symbol string `json:"symbol"`
	Open   string `json:"open"`
	High   string `json:"high"`
	Low    string `json:"low"`
	Close  string `json:"close"`
	Volume string `json:"volume"`
}

// LoadFileKlineSource reads one "<symbol>_<timeframe>.json" file per
// symbol from dataDir, the same naming convention as the teacher's
// data.Store, and builds a FileKlineSource indexed by PlayIndex.
func LoadFileKlineSource(dataDir, timeframe string, symbols []string, info map[string]catalog.SymbolInfo) (*FileKlineSource, error) {
	series := make(map[string][]fabric.KlineTick, len(symbols))
	for _, symbol := range symbols {
		path := filepath.Join(dataDir, fmt.Sprintf("%s_%s.json", symbol, timeframe))
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading kline data for %s: %w", symbol, err)
		}

		var records []ohlcvRecord
		if err := json.Unmarshal(raw, &records); err != nil {
			return nil, fmt.Errorf("parsing kline data for %s: %w", symbol, err)
		}

		ticks := make([]fabric.KlineTick, 0, len(records))
		for _, rec := range records {
			ticks = append(ticks, fabric.KlineTick{
				Symbol: symbol,
				Open:   rec.Open,
				High:   rec.High,
				Low:    rec.Low,
				Close:  rec.Close,
				Volume: rec.Volume,
			})
		}
		series[symbol] = ticks
	}

	if info == nil {
		info = make(map[string]catalog.SymbolInfo, len(symbols))
	}
	for _, symbol := range symbols {
		if _, ok := info[symbol]; !ok {
			info[symbol] = catalog.SymbolInfo{TickSize: decimal.New(1, -8), StepSize: decimal.New(1, -8)}
		}
	}

	return NewFileKlineSource(series, info), nil
}
