package workflow

import (
	"testing"

	"github.com/atlas-desktop/backtest-workflow-engine/internal/apperrors"
	"github.com/atlas-desktop/backtest-workflow-engine/pkg/types"
	"github.com/shopspring/decimal"
)

func TestVariableStoreGetSet(t *testing.T) {
	s := newVariableStore([]types.CustomVariable{
		{Name: "counter", Type: types.CustomVariableNumber, Initial: decimal.Zero},
	})

	v, ok, err := s.get("counter")
	if err != nil || !ok || !v.IsZero() {
		t.Fatalf("get(counter) = %s, %v, %v; want 0, true, nil", v, ok, err)
	}

	if err := s.set("counter", decimal.NewFromInt(5)); err != nil {
		t.Fatalf("unexpected error setting declared variable: %v", err)
	}
	v, _, _ = s.get("counter")
	if !v.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("counter = %s, want 5", v)
	}
}

func TestVariableStoreRejectsUndeclaredName(t *testing.T) {
	s := newVariableStore(nil)
	_, _, err := s.get("missing")
	if !apperrors.Is(err, apperrors.CodeStrategyUnknownVariable) {
		t.Fatalf("expected CodeStrategyUnknownVariable, got %v", err)
	}
	if err := s.set("missing", decimal.NewFromInt(1)); !apperrors.Is(err, apperrors.CodeStrategyUnknownVariable) {
		t.Fatalf("expected CodeStrategyUnknownVariable on set, got %v", err)
	}
}

func TestVariableStoreSnapshot(t *testing.T) {
	s := newVariableStore([]types.CustomVariable{
		{Name: "a", Initial: decimal.NewFromInt(1)},
		{Name: "b", Initial: decimal.NewFromInt(2)},
	})
	snap := s.snapshot()
	if len(snap) != 2 || !snap["a"].Equal(decimal.NewFromInt(1)) || !snap["b"].Equal(decimal.NewFromInt(2)) {
		t.Fatalf("unexpected snapshot: %v", snap)
	}
}
