package workflow

import (
	"context"
	"fmt"

	"github.com/atlas-desktop/backtest-workflow-engine/internal/node/catalog"
	"github.com/shopspring/decimal"
)

// buildPredicate compiles a single "<variable> <operator> <literal>"
// comparison into a catalog.Predicate, covering the operators an
// IfElse case needs: >, >=, <, <=, ==, !=.
func buildPredicate(variable, operator string, literal decimal.Decimal) catalog.Predicate {
	return func(ctx context.Context, services catalog.StrategyServices) (bool, error) {
		current, _, err := services.GetCustomVariable(ctx, variable)
		if err != nil {
			return false, err
		}
		switch operator {
		case ">":
			return current.GreaterThan(literal), nil
		case ">=":
			return current.GreaterThanOrEqual(literal), nil
		case "<":
			return current.LessThan(literal), nil
		case "<=":
			return current.LessThanOrEqual(literal), nil
		case "==":
			return current.Equal(literal), nil
		case "!=":
			return !current.Equal(literal), nil
		default:
			return false, fmt.Errorf("unsupported operator %q", operator)
		}
	}
}
