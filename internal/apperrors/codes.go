package apperrors

// Strategy-level codes.
const (
	CodeStrategyInvalidConfig   = "STRATEGY_1001"
	CodeStrategyUnknownVariable = "STRATEGY_1002"
	CodeStrategyNodeCycle       = "STRATEGY_1003"
	CodeStrategyNotRunning      = "STRATEGY_1004"
	CodeStrategyCycleTimeout    = "STRATEGY_1005"
)

// Node-runtime codes.
const (
	CodeNodeHandleNotFound   = "NODE_1001"
	CodeNodeCommandSendFail  = "NODE_1002"
	CodeNodeEventSendFail    = "NODE_1003"
)

// Per-node-type codes.
const (
	CodeKlineNoExchangeMode = "KLINE_NODE_1001"
	CodeKlineStrategyError  = "KLINE_NODE_1002"

	CodeVariableSysVarNull = "VARIABLE_NODE_1001"

	CodeIfElsePredicateFailed = "IF_ELSE_NODE_1001"

	CodeIndicatorComputeFailed = "INDICATOR_NODE_1001"

	CodeFuturesOrderSubmitFailed = "FUTURES_ORDER_NODE_1001"

	CodePositionOperationFailed = "POSITION_NODE_1001"
)

// State-machine codes: every state machine uses the same suffix with
// its own subsystem prefix, e.g. "NODE_STATE_MACHINE_1001".
const (
	NodeStateMachineSuffix     = "_STATE_MACHINE_1001"
	CodeNodeIllegalTransition  = "NODE_STATE_MACHINE_1001"
	CodeStrategyIllegalTrans   = "STRATEGY_STATE_MACHINE_1001"
)

// Virtual trading system codes.
const (
	CodeVTSInsufficientMargin = "VTS_1001"
	CodeVTSUnknownPosition    = "VTS_1002"
	CodeVTSInvalidQuantity    = "VTS_1003"
)

// NewStrategyError builds a root STRATEGY_ error.
func NewStrategyError(code, msgEN, msgZH string) *Error {
	return New(code, msgEN, msgZH)
}

// NewNodeError builds a root NODE_ error.
func NewNodeError(code, msgEN, msgZH string) *Error {
	return New(code, msgEN, msgZH)
}

// NewStateMachineError builds a root *_STATE_MACHINE_1001 error.
func NewStateMachineError(prefix, msgEN, msgZH string) *Error {
	return New(prefix+NodeStateMachineSuffix, msgEN, msgZH)
}

// NewVTSError builds a root VTS_ error.
func NewVTSError(code, msgEN, msgZH string) *Error {
	return New(code, msgEN, msgZH)
}
