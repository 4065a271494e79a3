// Package vts implements the virtual trading system: a single-actor
// margin/futures ledger reached only through its command inbox.
// Grounded on the teacher's internal/backtester/portfolio.go
// (cash/position ledger) and internal/backtester/risk.go
// (drawdown/kill-switch), generalized from spot equity accounting to
// margin accounting with leverage, TP/SL, and liquidation.
package vts

import (
	"context"
	"fmt"

	"github.com/atlas-desktop/backtest-workflow-engine/internal/apperrors"
	"github.com/atlas-desktop/backtest-workflow-engine/internal/fabric"
	"github.com/atlas-desktop/backtest-workflow-engine/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RequestKind discriminates an inbox Request.
type RequestKind string

const (
	ReqOpen         RequestKind = "open"
	ReqClose        RequestKind = "close"
	ReqPartialClose RequestKind = "partial_close"
	ReqCloseAll     RequestKind = "close_all"
	ReqTick         RequestKind = "tick"
	ReqReset        RequestKind = "reset"
	ReqSnapshot     RequestKind = "snapshot"
)

// Request is the payload of every command sent to the engine's inbox.
type Request struct {
	Kind RequestKind

	// Open
	Symbol   string
	Side     types.PositionSide
	Type     types.OrderType
	Quantity decimal.Decimal
	Price    decimal.Decimal
	TP       *types.TPSL
	SL       *types.TPSL

	// Close / PartialClose
	PositionID string

	// Tick
	MarkPrices map[string]decimal.Decimal
}

// Response is the reply for every command.
type Response struct {
	Order     *types.VirtualOrder
	Position  *types.VirtualPosition
	Positions []*types.VirtualPosition
	Account   types.AccountState
	Events    []Event
	Err       error
}

// Engine owns all VTS mutable state. It is reached only through Submit,
// which enqueues onto a single-goroutine command loop — no field is
// ever touched from outside that goroutine once Run starts.
type Engine struct {
	logger   *zap.Logger
	feeRate  decimal.Decimal
	leverage decimal.Decimal

	account      types.AccountState
	orders       map[string]*types.VirtualOrder
	positions    map[string]*types.VirtualPosition
	pendingOpen  []*types.VirtualOrder // limit orders awaiting fill, oldest first
	transactions []types.VirtualTransaction
	marks        map[string]decimal.Decimal

	inbox  chan *fabric.Command[Request, Response]
	events *EventBus
}

// NewEngine constructs an idle engine seeded with initialBalance.
func NewEngine(logger *zap.Logger, initialBalance, leverage, feeRate decimal.Decimal) *Engine {
	e := &Engine{
		logger:   logger.Named("vts"),
		feeRate:  feeRate,
		leverage: leverage,
		account: types.AccountState{
			InitialBalance: initialBalance,
		},
		orders:    make(map[string]*types.VirtualOrder),
		positions: make(map[string]*types.VirtualPosition),
		marks:     make(map[string]decimal.Decimal),
		inbox:     make(chan *fabric.Command[Request, Response], 256),
		events:    NewEventBus(logger),
	}
	e.recomputeAccount()
	return e
}

// Events returns the engine's event broadcast, for subscribers that
// want the raw per-tick event stream (order fills, closes,
// liquidations, UpdateFinished).
func (e *Engine) Events() *EventBus {
	return e.events
}

// Run drains the command inbox on the calling goroutine until ctx is
// canceled. At most one Run may be active on an Engine at a time.
func (e *Engine) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-e.inbox:
			cmd.Reply <- e.dispatch(cmd.Payload)
		}
	}
}

// Submit sends req to the engine and blocks for its response.
func (e *Engine) Submit(ctx context.Context, req Request) (Response, error) {
	return fabric.Send[Request, Response](ctx, e.inbox, req)
}

func (e *Engine) dispatch(req Request) Response {
	switch req.Kind {
	case ReqOpen:
		return e.handleOpen(req)
	case ReqClose:
		return e.handleClose(req, decimal.Zero, true)
	case ReqPartialClose:
		return e.handleClosePartial(req)
	case ReqCloseAll:
		return e.handleCloseAll(req)
	case ReqTick:
		return e.handleTick(req)
	case ReqReset:
		return e.handleReset()
	case ReqSnapshot:
		return e.handleSnapshot()
	default:
		return Response{Err: apperrors.NewVTSError(
			apperrors.CodeVTSInvalidQuantity,
			fmt.Sprintf("unknown request kind %q", req.Kind),
			fmt.Sprintf("未知请求类型 %q", req.Kind),
		)}
	}
}

func (e *Engine) handleSnapshot() Response {
	positions := make([]*types.VirtualPosition, 0, len(e.positions))
	for _, p := range e.positions {
		positions = append(positions, p)
	}
	return Response{Account: e.account, Positions: positions}
}

func (e *Engine) handleReset() Response {
	e.orders = make(map[string]*types.VirtualOrder)
	e.positions = make(map[string]*types.VirtualPosition)
	e.pendingOpen = nil
	e.transactions = nil
	e.marks = make(map[string]decimal.Decimal)
	e.account = types.AccountState{InitialBalance: e.account.InitialBalance}
	e.recomputeAccount()
	return Response{Account: e.account}
}

// fee computes |qty * price * feeRate|, per the mandated fee model.
func (e *Engine) fee(qty, price decimal.Decimal) decimal.Decimal {
	return qty.Mul(price).Mul(e.feeRate).Abs()
}

// recomputeAccount sums UnrealizedPnL across every open position into
// the account before deriving balance/equity/margin ratio/available
// balance, since AccountState.Recompute has no positions of its own to
// aggregate. Every mutation that changes a position's quantity, margin,
// or mark price must call this instead of account.Recompute directly.
func (e *Engine) recomputeAccount() {
	unrealized := decimal.Zero
	for _, pos := range e.positions {
		unrealized = unrealized.Add(pos.UnrealizedPnL)
	}
	e.account.UnrealizedPnL = unrealized
	e.account.Recompute()
}

func newID() string {
	return uuid.NewString()
}
