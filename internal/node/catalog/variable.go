package catalog

import (
	"context"

	"github.com/atlas-desktop/backtest-workflow-engine/internal/apperrors"
	"github.com/atlas-desktop/backtest-workflow-engine/internal/bus"
	"github.com/atlas-desktop/backtest-workflow-engine/internal/node"
	"github.com/shopspring/decimal"
)

// VariableOperation is one of the twelve supported custom-variable
// mutations.
type VariableOperation string

const (
	OpSet      VariableOperation = "set"
	OpAdd      VariableOperation = "add"
	OpSubtract VariableOperation = "subtract"
	OpMultiply VariableOperation = "multiply"
	OpDivide   VariableOperation = "divide"
	OpMin      VariableOperation = "min"
	OpMax      VariableOperation = "max"
	OpToggle   VariableOperation = "toggle"
	OpAppend   VariableOperation = "append"
	OpRemove   VariableOperation = "remove"
	OpClear    VariableOperation = "clear"
	OpGet      VariableOperation = "get"
)

// VariableConfig is one configured mutation: either a user-declared
// custom variable (Name) or a derived system variable (SysVar), never
// both.
type VariableConfig struct {
	Name      string
	SysVar    string
	Operation VariableOperation
	Operand   decimal.Decimal
}

// VariableNode applies a list of variable operations every cycle it is
// triggered, reading/writing through the strategy's custom variable
// store.
type VariableNode struct {
	*node.Runtime
	services StrategyServices
	configs  []VariableConfig
}

// NewVariableNode builds a VariableNode wrapping rt.
func NewVariableNode(rt *node.Runtime, services StrategyServices, configs []VariableConfig) *VariableNode {
	n := &VariableNode{Runtime: rt, services: services, configs: configs}
	rt.SetHandler(n)
	return n
}

// OnCycle applies every configured operation in order, then forwards
// the inbound trigger on the default handle.
func (n *VariableNode) OnCycle(ctx context.Context, rt *node.Runtime, in node.CycleInputs) error {
	for _, cfg := range n.configs {
		if err := n.apply(ctx, cfg); err != nil {
			return err
		}
	}
	return rt.EmitDefault(in, bus.TriggerEvent{Kind: bus.TriggerGeneric})
}

func (n *VariableNode) apply(ctx context.Context, cfg VariableConfig) error {
	if cfg.SysVar != "" {
		if cfg.SysVar == "" {
			return apperrors.NewNodeError(apperrors.CodeVariableSysVarNull,
				"system variable symbol is null",
				"系统变量标识为空",
			)
		}
		// System variables are read-only derived values; only OpGet is
		// meaningful and has no externally observable effect beyond
		// the node's own routing, so there is nothing further to do.
		_, err := n.services.SysVariable(ctx, cfg.SysVar)
		return err
	}

	current, _, err := n.services.GetCustomVariable(ctx, cfg.Name)
	if err != nil {
		return err
	}

	next := current
	switch cfg.Operation {
	case OpSet:
		next = cfg.Operand
	case OpAdd:
		next = current.Add(cfg.Operand)
	case OpSubtract:
		next = current.Sub(cfg.Operand)
	case OpMultiply:
		next = current.Mul(cfg.Operand)
	case OpDivide:
		if cfg.Operand.IsZero() {
			return apperrors.NewNodeError(apperrors.CodeVariableSysVarNull,
				"division by zero operand",
				"除数为零",
			)
		}
		next = current.Div(cfg.Operand)
	case OpMin:
		if cfg.Operand.LessThan(current) {
			next = cfg.Operand
		}
	case OpMax:
		if cfg.Operand.GreaterThan(current) {
			next = cfg.Operand
		}
	case OpToggle:
		if current.IsZero() {
			next = decimal.NewFromInt(1)
		} else {
			next = decimal.Zero
		}
	case OpClear:
		next = decimal.Zero
	case OpGet, OpAppend, OpRemove:
		// No numeric effect; these apply to list-typed variables, which
		// this engine represents outside the decimal store.
		return nil
	}

	return n.services.UpdateCustomVariable(ctx, cfg.Name, next)
}
