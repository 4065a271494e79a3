package workflow

import (
	"context"

	"github.com/atlas-desktop/backtest-workflow-engine/internal/fabric"
	"github.com/atlas-desktop/backtest-workflow-engine/internal/node/catalog"
	"github.com/atlas-desktop/backtest-workflow-engine/internal/vts"
	"github.com/atlas-desktop/backtest-workflow-engine/pkg/types"
	"github.com/shopspring/decimal"
)

// requestKind discriminates a command router request. GetKlineData,
// GetSymbolInfo, GetCustomVariable, and UpdateCustomVariable are
// serialized FIFO on the router goroutine started by commandLoop, per
// §4.F's single-threaded actor requirement.
type requestKind string

const (
	reqGetKlineData        requestKind = "get_kline_data"
	reqGetSymbolInfo       requestKind = "get_symbol_info"
	reqGetCustomVariable   requestKind = "get_custom_variable"
	reqUpdateCustomVariable requestKind = "update_custom_variable"
	reqSysVariable         requestKind = "sys_variable"
)

type request struct {
	kind      requestKind
	symbol    string
	playIndex types.PlayIndex
	name      string
	value     decimal.Decimal
}

type response struct {
	tick  fabric.KlineTick
	fresh bool
	info  catalog.SymbolInfo
	value decimal.Decimal
	found bool
	err   error
}

// commandLoop is the single goroutine that owns variable store reads,
// kline source reads, and sys-variable derivation. Running all three
// concerns through one channel gives the spec's FIFO ordering without
// a shared lock.
func (r *Runtime) commandLoop(ctx context.Context) {
	defer r.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-r.commands:
			cmd.Reply <- r.dispatchRequest(cmd.Payload)
		}
	}
}

func (r *Runtime) dispatchRequest(req request) response {
	switch req.kind {
	case reqGetKlineData:
		tick, fresh, err := r.klines.At(req.symbol, req.playIndex)
		return response{tick: tick, fresh: fresh, err: err}

	case reqGetSymbolInfo:
		info, err := r.klines.SymbolInfo(req.symbol)
		return response{info: info, err: err}

	case reqGetCustomVariable:
		v, found, err := r.variables.get(req.name)
		return response{value: v, found: found, err: err}

	case reqUpdateCustomVariable:
		err := r.variables.set(req.name, req.value)
		return response{err: err}

	case reqSysVariable:
		v, err := r.resolveSysVariable(context.Background(), req.name)
		return response{value: v, err: err}

	default:
		return response{}
	}
}

// resolveSysVariable computes a derived system variable snapshot. Only
// the two named in §4.E are implemented; both read a fresh snapshot
// from the VTS's own single-actor inbox.
func (r *Runtime) resolveSysVariable(ctx context.Context, name string) (decimal.Decimal, error) {
	switch name {
	case "OpenPositionCount", "Equity":
		resp, err := r.vtsEngine.Submit(ctx, vts.Request{Kind: vts.ReqSnapshot})
		if err != nil {
			return decimal.Zero, err
		}
		if name == "OpenPositionCount" {
			return decimal.NewFromInt(int64(len(resp.Positions))), nil
		}
		return resp.Account.Equity, nil
	default:
		return decimal.Zero, nil
	}
}

// GetKlineData implements catalog.StrategyServices.
func (r *Runtime) GetKlineData(ctx context.Context, symbol string, playIndex types.PlayIndex) (fabric.KlineTick, bool, error) {
	resp, err := fabric.Send(ctx, r.commands, request{kind: reqGetKlineData, symbol: symbol, playIndex: playIndex})
	if err != nil {
		return fabric.KlineTick{}, false, err
	}
	return resp.tick, resp.fresh, resp.err
}

// GetSymbolInfo implements catalog.StrategyServices.
func (r *Runtime) GetSymbolInfo(ctx context.Context, symbol string) (catalog.SymbolInfo, error) {
	resp, err := fabric.Send(ctx, r.commands, request{kind: reqGetSymbolInfo, symbol: symbol})
	if err != nil {
		return catalog.SymbolInfo{}, err
	}
	return resp.info, resp.err
}

// GetCustomVariable implements catalog.StrategyServices.
func (r *Runtime) GetCustomVariable(ctx context.Context, name string) (decimal.Decimal, bool, error) {
	resp, err := fabric.Send(ctx, r.commands, request{kind: reqGetCustomVariable, name: name})
	if err != nil {
		return decimal.Zero, false, err
	}
	return resp.value, resp.found, resp.err
}

// UpdateCustomVariable implements catalog.StrategyServices.
func (r *Runtime) UpdateCustomVariable(ctx context.Context, name string, value decimal.Decimal) error {
	resp, err := fabric.Send(ctx, r.commands, request{kind: reqUpdateCustomVariable, name: name, value: value})
	if err != nil {
		return err
	}
	return resp.err
}

// SysVariable implements catalog.StrategyServices.
func (r *Runtime) SysVariable(ctx context.Context, name string) (decimal.Decimal, error) {
	resp, err := fabric.Send(ctx, r.commands, request{kind: reqSysVariable, name: name})
	if err != nil {
		return decimal.Zero, err
	}
	return resp.value, resp.err
}

// SubmitVTS implements catalog.StrategyServices by forwarding directly
// to the VTS engine's own single-actor inbox (component G), which is
// independent of this runtime's command router.
func (r *Runtime) SubmitVTS(ctx context.Context, req vts.Request) (vts.Response, error) {
	return r.vtsEngine.Submit(ctx, req)
}
