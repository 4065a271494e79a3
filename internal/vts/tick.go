package vts

import (
	"github.com/atlas-desktop/backtest-workflow-engine/pkg/types"
	"github.com/shopspring/decimal"
)

// handleTick drives the mandated four-step matching algorithm: limit
// fills, position mark/PnL recompute, TP/SL checks, liquidation FIFO,
// then one final aggregate recompute — emitting events in that order
// and exactly one UpdateFinished at the end.
func (e *Engine) handleTick(req Request) Response {
	for symbol, price := range req.MarkPrices {
		e.marks[symbol] = price
	}

	var events []Event

	events = append(events, e.matchLimitFills()...)
	events = append(events, e.markPositions()...)
	e.recomputeAccount()
	events = append(events, e.checkTPSL()...)
	events = append(events, e.checkLiquidation()...)

	e.recomputeAccount()
	final := Event{Kind: EventUpdateFinished, Account: e.account}
	events = append(events, final)

	for _, ev := range events {
		e.events.publish(ev)
	}

	return Response{Account: e.account, Events: events}
}

// step 1: limit fills. A buy-side limit fills once the mark price falls
// to or below its limit; a sell-side limit fills once the mark price
// rises to or above it. Fills at the limit price, never the tick price
// (the limit-order matching semantics of the testable properties).
func (e *Engine) matchLimitFills() []Event {
	var events []Event
	var remaining []*types.VirtualOrder

	for _, order := range e.pendingOpen {
		price, ok := e.marks[order.Symbol]
		if !ok {
			remaining = append(remaining, order)
			continue
		}

		crossed := false
		if order.Side == types.PositionSideLong {
			crossed = price.LessThanOrEqual(order.OpenPrice)
		} else {
			crossed = price.GreaterThanOrEqual(order.OpenPrice)
		}

		if !crossed {
			remaining = append(remaining, order)
			continue
		}

		fillPrice := order.OpenPrice
		e.fillOrder(order, fillPrice)
	}

	e.pendingOpen = remaining
	return events
}

// step 2: recompute unrealized PnL on every open position against its
// symbol's latest mark.
func (e *Engine) markPositions() []Event {
	var events []Event
	for _, pos := range e.positions {
		price, ok := e.marks[pos.Symbol]
		if !ok {
			continue
		}
		pos.CurrentPrice = price
		pos.RecomputeUnrealized()
		events = append(events, Event{Kind: EventPositionUpdated, Position: pos, Account: e.account})
	}
	return events
}

// step 3: close any position whose TP or SL target has been crossed.
func (e *Engine) checkTPSL() []Event {
	var events []Event
	for _, pos := range e.positions {
		if pos.TP != nil {
			tp := pos.TP.ResolvePrice(pos.OpenPrice, pos.Side, true)
			if crossedFavorably(pos.Side, pos.CurrentPrice, tp) {
				tx := e.closePosition(pos, pos.Quantity, tp, types.TransactionTpHit)
				events = append(events, Event{Kind: EventTPHit, Position: pos, Transaction: &tx, Account: e.account})
				continue
			}
		}
		if pos.SL != nil {
			sl := pos.SL.ResolvePrice(pos.OpenPrice, pos.Side, false)
			if crossedAdversely(pos.Side, pos.CurrentPrice, sl) {
				tx := e.closePosition(pos, pos.Quantity, sl, types.TransactionSlHit)
				events = append(events, Event{Kind: EventSLHit, Position: pos, Transaction: &tx, Account: e.account})
			}
		}
	}
	return events
}

func crossedFavorably(side types.PositionSide, current, target decimal.Decimal) bool {
	if side == types.PositionSideLong {
		return current.GreaterThanOrEqual(target)
	}
	return current.LessThanOrEqual(target)
}

func crossedAdversely(side types.PositionSide, current, target decimal.Decimal) bool {
	if side == types.PositionSideLong {
		return current.LessThanOrEqual(target)
	}
	return current.GreaterThanOrEqual(target)
}

// step 4: liquidate positions, oldest first, while equity cannot cover
// used margin (margin ratio would exceed 100%).
func (e *Engine) checkLiquidation() []Event {
	var events []Event
	if e.account.Equity.GreaterThanOrEqual(e.account.UsedMargin) {
		return events
	}

	ordered := e.positionsByAge()
	for _, pos := range ordered {
		if e.account.Equity.GreaterThanOrEqual(e.account.UsedMargin) {
			break
		}
		tx := e.closePosition(pos, pos.Quantity, pos.CurrentPrice, types.TransactionLiquidation)
		events = append(events, Event{Kind: EventLiquidated, Position: pos, Transaction: &tx, Account: e.account})
	}
	return events
}

func (e *Engine) positionsByAge() []*types.VirtualPosition {
	out := make([]*types.VirtualPosition, 0, len(e.positions))
	for _, pos := range e.positions {
		out = append(out, pos)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].OpenedAt.Before(out[j-1].OpenedAt); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
