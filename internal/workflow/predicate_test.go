package workflow

import (
	"context"
	"testing"

	"github.com/atlas-desktop/backtest-workflow-engine/internal/fabric"
	"github.com/atlas-desktop/backtest-workflow-engine/internal/node/catalog"
	"github.com/atlas-desktop/backtest-workflow-engine/internal/vts"
	"github.com/atlas-desktop/backtest-workflow-engine/pkg/types"
	"github.com/shopspring/decimal"
)

// stubServices implements catalog.StrategyServices with a single named
// custom variable, enough to exercise buildPredicate in isolation.
type stubServices struct {
	value decimal.Decimal
}

func (s stubServices) GetKlineData(context.Context, string, types.PlayIndex) (fabric.KlineTick, bool, error) {
	return fabric.KlineTick{}, false, nil
}
func (s stubServices) GetSymbolInfo(context.Context, string) (catalog.SymbolInfo, error) {
	return catalog.SymbolInfo{}, nil
}
func (s stubServices) GetCustomVariable(context.Context, string) (decimal.Decimal, bool, error) {
	return s.value, true, nil
}
func (s stubServices) UpdateCustomVariable(context.Context, string, decimal.Decimal) error {
	return nil
}
func (s stubServices) SysVariable(context.Context, string) (decimal.Decimal, error) {
	return decimal.Zero, nil
}
func (s stubServices) SubmitVTS(context.Context, vts.Request) (vts.Response, error) {
	return vts.Response{}, nil
}

func TestBuildPredicateOperators(t *testing.T) {
	services := stubServices{value: decimal.NewFromInt(10)}
	cases := []struct {
		op   string
		lit  int64
		want bool
	}{
		{">", 5, true},
		{">", 10, false},
		{">=", 10, true},
		{"<", 20, true},
		{"<=", 10, true},
		{"==", 10, true},
		{"!=", 10, false},
	}
	for _, c := range cases {
		pred := buildPredicate("x", c.op, decimal.NewFromInt(c.lit))
		got, err := pred(context.Background(), services)
		if err != nil {
			t.Fatalf("operator %s: unexpected error: %v", c.op, err)
		}
		if got != c.want {
			t.Fatalf("operator %s: got %v, want %v", c.op, got, c.want)
		}
	}
}

func TestBuildPredicateUnsupportedOperator(t *testing.T) {
	services := stubServices{value: decimal.Zero}
	pred := buildPredicate("x", "~=", decimal.Zero)
	_, err := pred(context.Background(), services)
	if err == nil {
		t.Fatal("expected an error for an unsupported operator")
	}
}
