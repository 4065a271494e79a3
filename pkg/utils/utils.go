// Package utils provides small numeric and symbol helpers shared across
// the workflow engine and virtual trading system.
package utils

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FormatSymbol normalizes a trading symbol into BASE/QUOTE form.
func FormatSymbol(symbol string) string {
	symbol = strings.TrimSpace(symbol)
	symbol = strings.ToUpper(symbol)
	symbol = strings.ReplaceAll(symbol, "-", "/")
	symbol = strings.ReplaceAll(symbol, "_", "/")

	if !strings.Contains(symbol, "/") {
		quotes := []string{"USDT", "USDC", "USD", "BTC", "ETH", "BNB"}
		for _, quote := range quotes {
			if strings.HasSuffix(symbol, quote) && symbol != quote {
				return strings.TrimSuffix(symbol, quote) + "/" + quote
			}
		}
	}

	return symbol
}

// ParseSymbol extracts base and quote from a BASE/QUOTE symbol.
func ParseSymbol(symbol string) (base, quote string) {
	parts := strings.Split(symbol, "/")
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return symbol, ""
}

// RoundToTickSize rounds a price down to the nearest tick size.
func RoundToTickSize(price, tickSize decimal.Decimal) decimal.Decimal {
	if tickSize.IsZero() {
		return price
	}
	return price.Div(tickSize).Floor().Mul(tickSize)
}

// RoundToStepSize rounds a quantity down to the nearest step size.
func RoundToStepSize(qty, stepSize decimal.Decimal) decimal.Decimal {
	if stepSize.IsZero() {
		return qty
	}
	return qty.Div(stepSize).Floor().Mul(stepSize)
}

// TimeRange represents an inclusive [Start, End] time window.
// StrategyConfig keeps its own StartTime/EndTime fields and does not
// use this type.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Duration returns the length of the time range.
func (tr TimeRange) Duration() time.Duration {
	return tr.End.Sub(tr.Start)
}

// Contains reports whether t falls within [Start, End].
func (tr TimeRange) Contains(t time.Time) bool {
	return (t.Equal(tr.Start) || t.After(tr.Start)) && (t.Equal(tr.End) || t.Before(tr.End))
}

// Valid reports whether the range satisfies Start <= End.
func (tr TimeRange) Valid() bool {
	return !tr.Start.After(tr.End)
}
