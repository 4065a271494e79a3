package indicator

import (
	"context"
	"testing"
	"time"
)

func TestStubComputesSimpleMovingAverage(t *testing.T) {
	now := time.Now()
	datetimes := []time.Time{now, now.Add(time.Minute), now.Add(2 * time.Minute)}
	inputs := map[string][]float64{"close": {1, 2, 3}}

	out, err := Stub{}.Compute(context.Background(), Config{
		Name:   "sma",
		Params: map[string]any{"source": "close", "period": 2},
	}, datetimes, inputs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sma := out["sma"]
	if sma[0] != nil {
		t.Fatalf("expected index 0 to be unwarmed (nil), got %v", sma[0])
	}
	if sma[1] == nil || *sma[1] != 1.5 {
		t.Fatalf("sma[1] = %v, want 1.5", sma[1])
	}
	if sma[2] == nil || *sma[2] != 2.5 {
		t.Fatalf("sma[2] = %v, want 2.5", sma[2])
	}
}

func TestStubRejectsUnknownIndicator(t *testing.T) {
	_, err := Stub{}.Compute(context.Background(), Config{Name: "ema"}, nil, nil)
	if err == nil {
		t.Fatal("expected an error for an unsupported indicator name")
	}
}

func TestStubRejectsMissingSource(t *testing.T) {
	_, err := Stub{}.Compute(context.Background(), Config{
		Name:   "sma",
		Params: map[string]any{"source": "open", "period": 1},
	}, nil, map[string][]float64{"close": {1}})
	if err == nil {
		t.Fatal("expected an error for a missing input series")
	}
}
