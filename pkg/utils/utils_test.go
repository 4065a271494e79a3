package utils

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestFormatSymbol(t *testing.T) {
	cases := map[string]string{
		"btcusdt":   "BTC/USDT",
		"eth-usdc":  "ETH/USDC",
		"sol_usd":   "SOL/USD",
		"BTC/USDT":  "BTC/USDT",
		"USDT":      "USDT",
	}
	for in, want := range cases {
		if got := FormatSymbol(in); got != want {
			t.Errorf("FormatSymbol(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseSymbol(t *testing.T) {
	base, quote := ParseSymbol("BTC/USDT")
	if base != "BTC" || quote != "USDT" {
		t.Fatalf("ParseSymbol = %q/%q, want BTC/USDT", base, quote)
	}
	base, quote = ParseSymbol("BTCUSDT")
	if base != "BTCUSDT" || quote != "" {
		t.Fatalf("ParseSymbol without separator = %q/%q, want BTCUSDT/\"\"", base, quote)
	}
}

func TestRoundToTickSize(t *testing.T) {
	price := decimal.NewFromFloat(100.567)
	tick := decimal.NewFromFloat(0.01)
	got := RoundToTickSize(price, tick)
	if !got.Equal(decimal.NewFromFloat(100.56)) {
		t.Fatalf("RoundToTickSize = %s, want 100.56", got)
	}
	if !RoundToTickSize(price, decimal.Zero).Equal(price) {
		t.Fatal("zero tick size should return price unchanged")
	}
}

func TestTimeRangeContains(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	tr := TimeRange{Start: start, End: end}

	if !tr.Valid() {
		t.Fatal("expected a valid range")
	}
	if !tr.Contains(start) || !tr.Contains(end) {
		t.Fatal("boundary timestamps should be contained")
	}
	if tr.Contains(end.Add(time.Second)) {
		t.Fatal("timestamp past the end should not be contained")
	}
	if tr.Duration() != time.Hour {
		t.Fatalf("Duration() = %s, want 1h", tr.Duration())
	}
}
