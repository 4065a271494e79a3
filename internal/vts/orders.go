package vts

import (
	"time"

	"github.com/atlas-desktop/backtest-workflow-engine/internal/apperrors"
	"github.com/atlas-desktop/backtest-workflow-engine/pkg/types"
	"github.com/shopspring/decimal"
)

// handleOpen validates and records a new order. Market orders fill
// immediately at the requested price; limit orders queue in
// pendingOpen until Tick crosses their price.
func (e *Engine) handleOpen(req Request) Response {
	if !req.Quantity.IsPositive() {
		err := apperrors.NewVTSError(apperrors.CodeVTSInvalidQuantity,
			"order quantity must be positive",
			"订单数量必须为正数",
		)
		return Response{Err: err}
	}

	margin := req.Price.Mul(req.Quantity).Div(e.leverage)
	if margin.GreaterThan(e.account.AvailableBalance) {
		err := apperrors.NewVTSError(apperrors.CodeVTSInsufficientMargin,
			"insufficient available balance for requested margin",
			"可用余额不足以支付所需保证金",
		)
		return Response{Err: err}
	}

	order := &types.VirtualOrder{
		ID:        newID(),
		Symbol:    req.Symbol,
		Side:      req.Side,
		Type:      req.Type,
		Quantity:  req.Quantity,
		OpenPrice: req.Price,
		TP:        req.TP,
		SL:        req.SL,
		Status:    types.OrderStatusPending,
		Margin:    margin,
		CreatedAt: time.Now(),
	}
	e.orders[order.ID] = order
	e.account.FrozenMargin = e.account.FrozenMargin.Add(margin)
	e.recomputeAccount()

	if req.Type == types.OrderTypeMarket {
		e.fillOrder(order, req.Price)
	} else {
		e.pendingOpen = append(e.pendingOpen, order)
	}

	return Response{Order: order, Account: e.account}
}

// fillOrder converts a pending order into an open position at
// fillPrice, moving its margin from frozen to used and charging the
// open fee to realized PnL.
func (e *Engine) fillOrder(order *types.VirtualOrder, fillPrice decimal.Decimal) {
	e.account.FrozenMargin = e.account.FrozenMargin.Sub(order.Margin)
	fee := e.fee(order.Quantity, fillPrice)
	e.account.RealizedPnL = e.account.RealizedPnL.Sub(fee)
	e.account.UsedMargin = e.account.UsedMargin.Add(order.Margin)

	order.Status = types.OrderStatusFilled
	order.OpenPrice = fillPrice

	pos := &types.VirtualPosition{
		ID:           newID(),
		Side:         order.Side,
		Symbol:       order.Symbol,
		Quantity:     order.Quantity,
		OpenPrice:    fillPrice,
		CurrentPrice: fillPrice,
		Margin:       order.Margin,
		TP:           order.TP,
		SL:           order.SL,
		OpenedAt:     time.Now(),
	}
	pos.RecomputeUnrealized()
	e.positions[pos.ID] = pos

	tx := types.VirtualTransaction{
		ID:         newID(),
		OrderID:    order.ID,
		PositionID: pos.ID,
		Symbol:     order.Symbol,
		Side:       order.Side,
		Type:       types.TransactionOpen,
		Quantity:   order.Quantity,
		Price:      fillPrice,
		Fee:        fee,
		AtTime:     time.Now(),
	}
	e.transactions = append(e.transactions, tx)
	e.recomputeAccount()

	e.events.publish(Event{Kind: EventOrderFilled, Order: order, Position: pos, Transaction: &tx, Account: e.account})
}

// handleClose fully closes a position at its current mark price
// (or closePrice if provided and non-zero).
func (e *Engine) handleClose(req Request, closePrice decimal.Decimal, full bool) Response {
	pos, ok := e.positions[req.PositionID]
	if !ok {
		err := apperrors.NewVTSError(apperrors.CodeVTSUnknownPosition,
			"position not found",
			"找不到持仓",
		)
		return Response{Err: err}
	}
	price := closePrice
	if price.IsZero() {
		price = pos.CurrentPrice
	}
	tx := e.closePosition(pos, pos.Quantity, price, types.TransactionCloseFull)
	return Response{Position: pos, Account: e.account, Events: []Event{{
		Kind: EventPositionClosed, Position: pos, Transaction: &tx, Account: e.account,
	}}}
}

func (e *Engine) handleClosePartial(req Request) Response {
	pos, ok := e.positions[req.PositionID]
	if !ok {
		return Response{Err: apperrors.NewVTSError(apperrors.CodeVTSUnknownPosition,
			"position not found", "找不到持仓")}
	}
	if !req.Quantity.IsPositive() || req.Quantity.GreaterThan(pos.Quantity) {
		return Response{Err: apperrors.NewVTSError(apperrors.CodeVTSInvalidQuantity,
			"partial close quantity must be in (0, position quantity]",
			"部分平仓数量必须在(0, 持仓数量]范围内")}
	}
	price := pos.CurrentPrice
	tx := e.closePosition(pos, req.Quantity, price, types.TransactionClosePartial)
	return Response{Position: pos, Account: e.account, Events: []Event{{
		Kind: EventPositionClosed, Position: pos, Transaction: &tx, Account: e.account,
	}}}
}

func (e *Engine) handleCloseAll(req Request) Response {
	var events []Event
	for _, pos := range e.positions {
		if req.Symbol != "" && pos.Symbol != req.Symbol {
			continue
		}
		tx := e.closePosition(pos, pos.Quantity, pos.CurrentPrice, types.TransactionCloseFull)
		events = append(events, Event{Kind: EventPositionClosed, Position: pos, Transaction: &tx, Account: e.account})
	}
	return Response{Account: e.account, Events: events}
}

// closePosition realizes PnL for qty (full or partial) at price,
// releasing a proportional share of margin and charging the close fee.
func (e *Engine) closePosition(pos *types.VirtualPosition, qty, price decimal.Decimal, txType types.TransactionType) types.VirtualTransaction {
	pnl := pos.Side.Sign().Mul(price.Sub(pos.OpenPrice)).Mul(qty)
	fee := e.fee(qty, price)
	releasedMargin := pos.Margin.Mul(qty).Div(pos.Quantity)

	e.account.RealizedPnL = e.account.RealizedPnL.Add(pnl).Sub(fee)
	e.account.UsedMargin = e.account.UsedMargin.Sub(releasedMargin)

	pos.Quantity = pos.Quantity.Sub(qty)
	pos.Margin = pos.Margin.Sub(releasedMargin)

	tx := types.VirtualTransaction{
		ID:          newID(),
		PositionID:  pos.ID,
		Symbol:      pos.Symbol,
		Side:        pos.Side,
		Type:        txType,
		Quantity:    qty,
		Price:       price,
		RealizedPnL: pnl,
		Fee:         fee,
		AtTime:      time.Now(),
	}
	e.transactions = append(e.transactions, tx)

	if pos.Quantity.IsZero() {
		delete(e.positions, pos.ID)
	} else {
		pos.RecomputeUnrealized()
	}
	e.recomputeAccount()
	return tx
}
