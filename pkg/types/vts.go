package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// PositionSide is long or short.
type PositionSide string

const (
	PositionSideLong  PositionSide = "long"
	PositionSideShort PositionSide = "short"
)

// Sign returns +1 for long, -1 for short, used for PnL direction.
func (s PositionSide) Sign() decimal.Decimal {
	if s == PositionSideShort {
		return decimal.NewFromInt(-1)
	}
	return decimal.NewFromInt(1)
}

// OrderType is the matching behavior requested for a VirtualOrder.
type OrderType string

const (
	OrderTypeMarket     OrderType = "market"
	OrderTypeLimit      OrderType = "limit"
	OrderTypeStopMarket OrderType = "stop_market"
	OrderTypeStopLimit  OrderType = "stop_limit"
)

// OrderStatus is the lifecycle status of a VirtualOrder.
type OrderStatus string

const (
	OrderStatusPending  OrderStatus = "pending"
	OrderStatusFilled   OrderStatus = "filled"
	OrderStatusCanceled OrderStatus = "canceled"
	OrderStatusRejected OrderStatus = "rejected"
)

// TPSLPriceType distinguishes a fixed price target from a percentage
// offset from the position's open price.
type TPSLPriceType string

const (
	TPSLPrice   TPSLPriceType = "price"
	TPSLPercent TPSLPriceType = "percent"
)

// TPSL is an optional take-profit or stop-loss target.
type TPSL struct {
	Value decimal.Decimal `json:"value"`
	Type  TPSLPriceType   `json:"type"`
}

// ResolvePrice converts a TPSL target into an absolute price given the
// position's open price and side.
func (t *TPSL) ResolvePrice(openPrice decimal.Decimal, side PositionSide, isTakeProfit bool) decimal.Decimal {
	if t == nil {
		return decimal.Zero
	}
	if t.Type == TPSLPrice {
		return t.Value
	}

	// Percent: TP moves favorably, SL moves adversely, relative to side.
	sign := side.Sign()
	if !isTakeProfit {
		sign = sign.Neg()
	}
	offset := openPrice.Mul(t.Value).Div(decimal.NewFromInt(100))
	return openPrice.Add(sign.Mul(offset))
}

// VirtualOrder is a simulated order submitted to the VTS.
type VirtualOrder struct {
	ID         string          `json:"id"`
	Symbol     string          `json:"symbol"`
	Side       PositionSide    `json:"side"`
	Type       OrderType       `json:"type"`
	Quantity   decimal.Decimal `json:"quantity"`
	OpenPrice  decimal.Decimal `json:"openPrice"`
	TP         *TPSL           `json:"tp,omitempty"`
	SL         *TPSL           `json:"sl,omitempty"`
	Status     OrderStatus     `json:"status"`
	Margin     decimal.Decimal `json:"margin"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// VirtualPosition is an open (or fully closed) simulated position.
type VirtualPosition struct {
	ID            string          `json:"id"`
	Side          PositionSide    `json:"side"`
	Symbol        string          `json:"symbol"`
	Quantity      decimal.Decimal `json:"quantity"`
	OpenPrice     decimal.Decimal `json:"openPrice"`
	CurrentPrice  decimal.Decimal `json:"currentPrice"`
	Margin        decimal.Decimal `json:"margin"`
	UnrealizedPnL decimal.Decimal `json:"unrealizedPnl"`
	TP            *TPSL           `json:"tp,omitempty"`
	SL            *TPSL           `json:"sl,omitempty"`
	OpenedAt      time.Time       `json:"openedAt"`
}

// RecomputeUnrealized recalculates UnrealizedPnL at the position's
// CurrentPrice: side * (price - open) * qty.
func (p *VirtualPosition) RecomputeUnrealized() {
	p.UnrealizedPnL = p.Side.Sign().Mul(p.CurrentPrice.Sub(p.OpenPrice)).Mul(p.Quantity)
}

// TransactionType classifies a VirtualTransaction.
type TransactionType string

const (
	TransactionOpen         TransactionType = "open"
	TransactionCloseFull    TransactionType = "close_full"
	TransactionClosePartial TransactionType = "close_partial"
	TransactionLiquidation  TransactionType = "liquidation"
	TransactionTpHit        TransactionType = "tp_hit"
	TransactionSlHit        TransactionType = "sl_hit"
)

// VirtualTransaction is an append-only record of a fill/close event.
type VirtualTransaction struct {
	ID          string          `json:"id"`
	OrderID     string          `json:"orderId"`
	PositionID  string          `json:"positionId,omitempty"`
	Symbol      string          `json:"symbol"`
	Side        PositionSide    `json:"side"`
	Type        TransactionType `json:"type"`
	Quantity    decimal.Decimal `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	RealizedPnL decimal.Decimal `json:"realizedPnl,omitempty"`
	Fee         decimal.Decimal `json:"fee"`
	AtTime      time.Time       `json:"atTime"`
}

// AccountState is the VTS account's derived aggregate state. The
// derived invariants are restored before every UpdateFinished emission.
type AccountState struct {
	InitialBalance    decimal.Decimal `json:"initialBalance"`
	RealizedPnL       decimal.Decimal `json:"realizedPnl"`
	UnrealizedPnL     decimal.Decimal `json:"unrealizedPnl"`
	UsedMargin        decimal.Decimal `json:"usedMargin"`
	FrozenMargin      decimal.Decimal `json:"frozenMargin"`
	Balance           decimal.Decimal `json:"balance"`
	Equity            decimal.Decimal `json:"equity"`
	AvailableBalance  decimal.Decimal `json:"availableBalance"`
	MarginRatio       decimal.Decimal `json:"marginRatio"`
}

// Recompute restores the derived invariants in the mandated order:
// balance, equity, margin ratio, available balance.
func (a *AccountState) Recompute() {
	a.Balance = a.InitialBalance.Add(a.RealizedPnL)
	a.Equity = a.Balance.Add(a.UnrealizedPnL)
	if a.Equity.IsZero() {
		a.MarginRatio = decimal.Zero
	} else {
		a.MarginRatio = a.UsedMargin.Div(a.Equity)
	}
	a.AvailableBalance = a.Equity.Sub(a.UsedMargin).Sub(a.FrozenMargin)
}

// CycleOutcome is the terminal outcome of a node's work in one cycle.
type CycleOutcome struct {
	OK   bool   `json:"ok"`
	Code string `json:"code,omitempty"`
}

// CompletedCycle is a single node's report for a single cycle.
type CompletedCycle struct {
	NodeID      NodeId       `json:"nodeId"`
	CycleID     CycleId      `json:"cycleId"`
	StartedAt   time.Time    `json:"startedAt"`
	CompletedAt time.Time    `json:"completedAt"`
	Outcome     CycleOutcome `json:"outcome"`
}
