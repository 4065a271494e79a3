// Package indicator defines the boundary to the external indicator
// computation library: a pure function over aligned time series, out
// of scope for this module per its external-collaborator status, with
// a stub implementation for tests.
package indicator

import (
	"context"
	"fmt"
	"time"
)

// Config is an opaque, indicator-specific parameter blob (e.g. period,
// source field) dispatched by Name.
type Config struct {
	Name   string
	Params map[string]any
}

// Library computes one or more named output series from aligned input
// series. A nil value at an index means "not yet warmed up".
type Library interface {
	Compute(ctx context.Context, cfg Config, datetimes []time.Time, inputs map[string][]float64) (map[string][]*float64, error)
}

// Stub is a minimal Library used by tests and as the default wiring
// when no real indicator library is configured. It supports a simple
// moving average ("sma") over a configured "source" input and "period"
// param, sufficient to exercise IndicatorNode's rolling-window
// behavior without depending on the real library.
type Stub struct{}

// Compute implements Library for the "sma" indicator only; any other
// name returns an error, since Stub exists purely to exercise the
// calling contract.
func (Stub) Compute(ctx context.Context, cfg Config, datetimes []time.Time, inputs map[string][]float64) (map[string][]*float64, error) {
	if cfg.Name != "sma" {
		return nil, fmt.Errorf("indicator stub: unsupported indicator %q", cfg.Name)
	}
	source, _ := cfg.Params["source"].(string)
	if source == "" {
		source = "close"
	}
	period, _ := cfg.Params["period"].(int)
	if period <= 0 {
		period = 1
	}
	series, ok := inputs[source]
	if !ok {
		return nil, fmt.Errorf("indicator stub: missing input series %q", source)
	}

	out := make([]*float64, len(series))
	for i := range series {
		if i+1 < period {
			continue
		}
		sum := 0.0
		for j := i - period + 1; j <= i; j++ {
			sum += series[j]
		}
		avg := sum / float64(period)
		out[i] = &avg
	}
	return map[string][]*float64{"sma": out}, nil
}
