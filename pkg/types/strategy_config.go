package types

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DataSourceMode selects where a strategy reads kline/tick data from.
type DataSourceMode string

const (
	DataSourceFile     DataSourceMode = "file"
	DataSourceExchange DataSourceMode = "exchange"
)

// CustomVariableType is the declared type of a CustomVariable.
type CustomVariableType string

const (
	CustomVariableNumber CustomVariableType = "number"
	CustomVariableBool   CustomVariableType = "bool"
	CustomVariableString CustomVariableType = "string"
)

// CustomVariable is a user-declared, strategy-scoped variable with an
// initial value, mutated by VariableNode operations.
type CustomVariable struct {
	Name    string              `json:"name" mapstructure:"name"`
	Type    CustomVariableType  `json:"type" mapstructure:"type"`
	Initial decimal.Decimal     `json:"initialValue" mapstructure:"initialValue"`
}

// ExchangeModeConfig describes the exchange data source, when
// DataSource is DataSourceExchange.
type ExchangeModeConfig struct {
	Exchange string   `json:"exchange" mapstructure:"exchange"`
	Accounts []string `json:"accounts" mapstructure:"accounts"`
}

// StrategyConfig is the top-level, JSON-at-the-boundary configuration
// for a backtest strategy: data source, account parameters, the custom
// variable declarations, and the node/edge graph.
type StrategyConfig struct {
	ID                StrategyId           `json:"id" mapstructure:"id"`
	DataSource        DataSourceMode       `json:"dataSource" mapstructure:"dataSource"`
	ExchangeModeConfig *ExchangeModeConfig `json:"exchangeModeConfig,omitempty" mapstructure:"exchangeModeConfig"`
	InitialBalance    decimal.Decimal      `json:"initialBalance" mapstructure:"initialBalance"`
	Leverage          decimal.Decimal      `json:"leverage" mapstructure:"leverage"`
	FeeRate           decimal.Decimal      `json:"feeRate" mapstructure:"feeRate"`
	PlaySpeed         decimal.Decimal      `json:"playSpeed" mapstructure:"playSpeed"`
	MinInterval       time.Duration        `json:"minInterval" mapstructure:"minInterval"`
	StartTime         time.Time            `json:"startTime" mapstructure:"startTime"`
	EndTime           time.Time            `json:"endTime" mapstructure:"endTime"`
	SelectedAccounts  []string             `json:"selectedAccounts" mapstructure:"selectedAccounts"`
	CustomVariables   []CustomVariable     `json:"customVariables" mapstructure:"customVariables"`
	Nodes             []NodeConfig         `json:"nodes" mapstructure:"nodes"`
	Edges             []EdgeConfig         `json:"edges" mapstructure:"edges"`

	// Reserved is never filled by decoding or written by encoding (both
	// tags are "-"): unrecognized legacy keys such as the original
	// schema's unused "test1" migration field are dropped. Nothing reads
	// it.
	Reserved map[string]any `json:"-" mapstructure:"-"`
}

// Validate checks the invariants from the data model: positive initial
// balance, leverage >= 1, start <= end, and unique variable names.
func (c *StrategyConfig) Validate() error {
	if !c.InitialBalance.IsPositive() {
		return fmt.Errorf("initialBalance must be > 0, got %s", c.InitialBalance)
	}
	if c.Leverage.LessThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("leverage must be >= 1, got %s", c.Leverage)
	}
	if c.StartTime.After(c.EndTime) {
		return fmt.Errorf("startTime %s must not be after endTime %s", c.StartTime, c.EndTime)
	}
	if c.MinInterval <= 0 {
		return fmt.Errorf("minInterval must be > 0")
	}

	seen := make(map[string]struct{}, len(c.CustomVariables))
	for _, v := range c.CustomVariables {
		if _, dup := seen[v.Name]; dup {
			return fmt.Errorf("duplicate custom variable name %q", v.Name)
		}
		seen[v.Name] = struct{}{}
	}

	return nil
}

// NodeKind tags the concrete node catalog type dispatched from the
// opaque NodeConfig JSON blob.
type NodeKind string

const (
	NodeKindStart        NodeKind = "start"
	NodeKindKline         NodeKind = "kline"
	NodeKindIndicator     NodeKind = "indicator"
	NodeKindVariable      NodeKind = "variable"
	NodeKindIfElse        NodeKind = "if_else"
	NodeKindFuturesOrder  NodeKind = "futures_order"
	NodeKindPosition      NodeKind = "position"
)

// NodeConfig is a logical node record: identity plus an opaque
// configuration blob dispatched by Kind.
type NodeConfig struct {
	ID     NodeId         `json:"id" mapstructure:"id"`
	Name   string         `json:"name" mapstructure:"name"`
	Kind   NodeKind       `json:"nodeType" mapstructure:"nodeType"`
	Config map[string]any `json:"config" mapstructure:"config"`
}

// EdgeConfig is an immutable, build-time edge between two node handles.
type EdgeConfig struct {
	FromNode   NodeId   `json:"fromNode" mapstructure:"fromNode"`
	FromHandle HandleId `json:"fromHandle" mapstructure:"fromHandle"`
	ToNode     NodeId   `json:"toNode" mapstructure:"toNode"`
	ToHandle   HandleId `json:"toHandle" mapstructure:"toHandle"`
}
