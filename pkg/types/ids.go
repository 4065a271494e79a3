// Package types provides the shared data model of the backtest workflow
// engine: strategy configuration, the node/edge graph, and the virtual
// trading system's domain objects.
package types

// StrategyId identifies a strategy instance.
type StrategyId int32

// NodeId identifies a node within a strategy's DAG.
type NodeId string

// HandleId identifies an output or input handle on a node.
type HandleId string

// CycleId is a monotonic counter of completed barrier cycles. It
// increments strictly on every completed cycle and resets to 0 on
// Reset(); it is not bijective with PlayIndex (several resets can all
// observe PlayIndex 0).
type CycleId uint64

// PlayIndex is the discrete time step of a backtest, starting at 0 and
// incrementing by one per MinInterval.
type PlayIndex int32

// ConfigId tags a configuration within a node that owns more than one
// (e.g. two order configs on one FuturesOrderNode).
type ConfigId int32

// DefaultHandleId is the well-known output handle every node must expose.
const DefaultHandleId HandleId = "default"

// ElseHandleId is IfElseNode's fallback output handle.
const ElseHandleId HandleId = "else"
