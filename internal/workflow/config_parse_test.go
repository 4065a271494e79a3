package workflow

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestDecimalFieldAcceptsStringAndFloat(t *testing.T) {
	cfg := map[string]any{"a": "1.5", "b": 2.5, "c": "not-a-number"}
	if v := decimalField(cfg, "a"); !v.Equal(decimal.NewFromFloat(1.5)) {
		t.Fatalf("decimalField(a) = %s, want 1.5", v)
	}
	if v := decimalField(cfg, "b"); !v.Equal(decimal.NewFromFloat(2.5)) {
		t.Fatalf("decimalField(b) = %s, want 2.5", v)
	}
	if v := decimalField(cfg, "c"); !v.IsZero() {
		t.Fatalf("decimalField(c) = %s, want 0 (unparsable falls back to zero)", v)
	}
	if v := decimalField(cfg, "missing"); !v.IsZero() {
		t.Fatalf("decimalField(missing) = %s, want 0", v)
	}
}

func TestIntFieldAcceptsIntAndFloat(t *testing.T) {
	cfg := map[string]any{"a": 3, "b": 4.0}
	if v := intField(cfg, "a"); v != 3 {
		t.Fatalf("intField(a) = %d, want 3", v)
	}
	if v := intField(cfg, "b"); v != 4 {
		t.Fatalf("intField(b) = %d, want 4", v)
	}
}

func TestMapSliceFieldParsesNestedBlocks(t *testing.T) {
	cfg := map[string]any{
		"symbols": []any{
			map[string]any{"symbol": "BTCUSDT"},
			map[string]any{"symbol": "ETHUSDT"},
		},
	}
	out := mapSliceField(cfg, "symbols")
	if len(out) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(out))
	}
	if stringField(out[0], "symbol") != "BTCUSDT" {
		t.Fatalf("out[0].symbol = %q, want BTCUSDT", stringField(out[0], "symbol"))
	}
}

func TestStringSliceField(t *testing.T) {
	cfg := map[string]any{"accounts": []any{"a1", "a2"}}
	out := stringSliceField(cfg, "accounts")
	if len(out) != 2 || out[0] != "a1" || out[1] != "a2" {
		t.Fatalf("unexpected result: %v", out)
	}
}
