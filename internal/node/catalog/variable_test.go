package catalog

import (
	"context"
	"testing"

	"github.com/atlas-desktop/backtest-workflow-engine/internal/fabric"
	"github.com/atlas-desktop/backtest-workflow-engine/internal/vts"
	"github.com/atlas-desktop/backtest-workflow-engine/pkg/types"
	"github.com/shopspring/decimal"
)

// fakeServices is a minimal in-memory StrategyServices for catalog node
// unit tests, backed by a single map instead of the real command router.
type fakeServices struct {
	vars map[string]decimal.Decimal
}

func newFakeServices() *fakeServices {
	return &fakeServices{vars: map[string]decimal.Decimal{"counter": decimal.Zero}}
}

func (s *fakeServices) GetKlineData(context.Context, string, types.PlayIndex) (fabric.KlineTick, bool, error) {
	return fabric.KlineTick{}, false, nil
}
func (s *fakeServices) GetSymbolInfo(context.Context, string) (SymbolInfo, error) {
	return SymbolInfo{TickSize: decimal.New(1, -8), StepSize: decimal.New(1, -8)}, nil
}
func (s *fakeServices) GetCustomVariable(_ context.Context, name string) (decimal.Decimal, bool, error) {
	v, ok := s.vars[name]
	return v, ok, nil
}
func (s *fakeServices) UpdateCustomVariable(_ context.Context, name string, value decimal.Decimal) error {
	s.vars[name] = value
	return nil
}
func (s *fakeServices) SysVariable(context.Context, string) (decimal.Decimal, error) {
	return decimal.Zero, nil
}
func (s *fakeServices) SubmitVTS(context.Context, vts.Request) (vts.Response, error) {
	return vts.Response{}, nil
}

func TestVariableNodeAppliesOperationsInOrder(t *testing.T) {
	services := newFakeServices()
	n := &VariableNode{
		services: services,
		configs: []VariableConfig{
			{Name: "counter", Operation: OpSet, Operand: decimal.NewFromInt(10)},
			{Name: "counter", Operation: OpAdd, Operand: decimal.NewFromInt(5)},
			{Name: "counter", Operation: OpMultiply, Operand: decimal.NewFromInt(2)},
		},
	}

	for _, cfg := range n.configs {
		if err := n.apply(context.Background(), cfg); err != nil {
			t.Fatalf("apply(%+v): unexpected error: %v", cfg, err)
		}
	}

	got, _, _ := services.GetCustomVariable(context.Background(), "counter")
	if !got.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("counter = %s, want 30 ((10+5)*2)", got)
	}
}

func TestVariableNodeDivideByZeroErrors(t *testing.T) {
	services := newFakeServices()
	n := &VariableNode{services: services}
	err := n.apply(context.Background(), VariableConfig{Name: "counter", Operation: OpDivide, Operand: decimal.Zero})
	if err == nil {
		t.Fatal("expected an error dividing by zero")
	}
}

func TestVariableNodeToggle(t *testing.T) {
	services := newFakeServices()
	n := &VariableNode{services: services}

	if err := n.apply(context.Background(), VariableConfig{Name: "counter", Operation: OpToggle}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, _, _ := services.GetCustomVariable(context.Background(), "counter")
	if !v.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("counter after first toggle = %s, want 1", v)
	}

	if err := n.apply(context.Background(), VariableConfig{Name: "counter", Operation: OpToggle}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, _, _ = services.GetCustomVariable(context.Background(), "counter")
	if !v.IsZero() {
		t.Fatalf("counter after second toggle = %s, want 0", v)
	}
}
