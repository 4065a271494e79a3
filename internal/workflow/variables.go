package workflow

import (
	"sync"

	"github.com/atlas-desktop/backtest-workflow-engine/internal/apperrors"
	"github.com/atlas-desktop/backtest-workflow-engine/pkg/types"
	"github.com/shopspring/decimal"
)

// variableStore is the strategy's custom-variable table, reached only
// through the command router goroutine; its own mutex exists solely
// for the rare direct read from outside that goroutine (tests).
type variableStore struct {
	mu     sync.RWMutex
	values map[string]decimal.Decimal
}

func newVariableStore(declared []types.CustomVariable) *variableStore {
	s := &variableStore{values: make(map[string]decimal.Decimal, len(declared))}
	for _, v := range declared {
		s.values[v.Name] = v.Initial
	}
	return s
}

func (s *variableStore) get(name string) (decimal.Decimal, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[name]
	if !ok {
		return decimal.Zero, false, apperrors.NewStrategyError(apperrors.CodeStrategyUnknownVariable,
			"unknown custom variable: "+name,
			"未知的自定义变量: "+name,
		)
	}
	return v, true, nil
}

func (s *variableStore) set(name string, value decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[name]; !ok {
		return apperrors.NewStrategyError(apperrors.CodeStrategyUnknownVariable,
			"unknown custom variable: "+name,
			"未知的自定义变量: "+name,
		)
	}
	s.values[name] = value
	return nil
}

func (s *variableStore) snapshot() map[string]decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]decimal.Decimal, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}
