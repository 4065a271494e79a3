package vts

import (
	"testing"

	"github.com/atlas-desktop/backtest-workflow-engine/pkg/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine(zap.NewNop(),
		decimal.NewFromInt(10000),
		decimal.NewFromInt(10),
		decimal.NewFromFloat(0.001),
	)
}

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestHandleOpenMarketOrderFillsImmediately(t *testing.T) {
	e := newTestEngine(t)
	resp := e.dispatch(Request{
		Kind: ReqOpen, Symbol: "BTC/USDT", Side: types.PositionSideLong,
		Type: types.OrderTypeMarket, Quantity: d("1"), Price: d("100"),
	})
	if resp.Err != nil {
		t.Fatalf("unexpected error: %v", resp.Err)
	}
	if resp.Order.Status != types.OrderStatusFilled {
		t.Fatalf("order status = %s, want filled", resp.Order.Status)
	}
	if len(e.positions) != 1 {
		t.Fatalf("expected 1 open position, got %d", len(e.positions))
	}
}

func TestHandleOpenRejectsInsufficientMargin(t *testing.T) {
	e := newTestEngine(t)
	resp := e.dispatch(Request{
		Kind: ReqOpen, Symbol: "BTC/USDT", Side: types.PositionSideLong,
		Type: types.OrderTypeMarket, Quantity: d("1000000"), Price: d("100"),
	})
	if resp.Err == nil {
		t.Fatal("expected insufficient margin error")
	}
}

// S7: a limit order fills at its limit price, not the crossing tick price.
func TestLimitOrderFillsAtLimitPriceNotMarkPrice(t *testing.T) {
	e := newTestEngine(t)
	open := e.dispatch(Request{
		Kind: ReqOpen, Symbol: "BTC/USDT", Side: types.PositionSideLong,
		Type: types.OrderTypeLimit, Quantity: d("1"), Price: d("100"),
	})
	if open.Err != nil {
		t.Fatalf("unexpected error opening limit order: %v", open.Err)
	}
	if open.Order.Status != types.OrderStatusPending {
		t.Fatalf("limit order should start pending, got %s", open.Order.Status)
	}

	// Mark price crosses well below the limit; fill must still occur at 100.
	tick := e.dispatch(Request{Kind: ReqTick, MarkPrices: map[string]decimal.Decimal{"BTC/USDT": d("90")}})
	if tick.Err != nil {
		t.Fatalf("unexpected tick error: %v", tick.Err)
	}

	var filled *types.VirtualPosition
	for _, p := range e.positions {
		filled = p
	}
	if filled == nil {
		t.Fatal("expected the limit order to fill into an open position")
	}
	if !filled.OpenPrice.Equal(d("100")) {
		t.Fatalf("fill price = %s, want 100 (the limit price, not the 90 mark price)", filled.OpenPrice)
	}
}

// S2 with a market entry: a buy fills at once, then a take-profit
// target closes it.
func TestPositionClosesOnTakeProfit(t *testing.T) {
	e := newTestEngine(t)
	open := e.dispatch(Request{
		Kind: ReqOpen, Symbol: "BTC/USDT", Side: types.PositionSideLong,
		Type: types.OrderTypeMarket, Quantity: d("1"), Price: d("100"),
		TP: &types.TPSL{Type: types.TPSLPrice, Value: d("110")},
	})
	if open.Err != nil {
		t.Fatalf("unexpected error: %v", open.Err)
	}

	tick := e.dispatch(Request{Kind: ReqTick, MarkPrices: map[string]decimal.Decimal{"BTC/USDT": d("111")}})
	if tick.Err != nil {
		t.Fatalf("unexpected tick error: %v", tick.Err)
	}
	if len(e.positions) != 0 {
		t.Fatalf("expected position to close on TP hit, %d remain open", len(e.positions))
	}
	if !e.account.RealizedPnL.IsPositive() {
		t.Fatalf("expected positive realized pnl after TP hit, got %s", e.account.RealizedPnL)
	}
}

// S3: a large adverse move liquidates the position once equity cannot
// cover used margin.
func TestPositionLiquidatesOnAdverseMove(t *testing.T) {
	e := newTestEngine(t)
	open := e.dispatch(Request{
		Kind: ReqOpen, Symbol: "BTC/USDT", Side: types.PositionSideLong,
		Type: types.OrderTypeMarket, Quantity: d("1000"), Price: d("100"),
	})
	if open.Err != nil {
		t.Fatalf("unexpected error: %v", open.Err)
	}

	tick := e.dispatch(Request{Kind: ReqTick, MarkPrices: map[string]decimal.Decimal{"BTC/USDT": d("50")}})
	if tick.Err != nil {
		t.Fatalf("unexpected tick error: %v", tick.Err)
	}

	found := false
	for _, ev := range tick.Events {
		if ev.Kind == EventLiquidated {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a liquidation event on a catastrophic adverse move")
	}
	if len(e.positions) != 0 {
		t.Fatalf("expected the liquidated position to be removed, %d remain", len(e.positions))
	}
}

func TestResetRestoresInitialBalance(t *testing.T) {
	e := newTestEngine(t)
	e.dispatch(Request{
		Kind: ReqOpen, Symbol: "BTC/USDT", Side: types.PositionSideLong,
		Type: types.OrderTypeMarket, Quantity: d("1"), Price: d("100"),
	})
	resp := e.dispatch(Request{Kind: ReqReset})
	if resp.Err != nil {
		t.Fatalf("unexpected error: %v", resp.Err)
	}
	if !resp.Account.Balance.Equal(decimal.NewFromInt(10000)) {
		t.Fatalf("balance after reset = %s, want 10000", resp.Account.Balance)
	}
	if len(e.positions) != 0 {
		t.Fatalf("expected no positions after reset, got %d", len(e.positions))
	}
}
