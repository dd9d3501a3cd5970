// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/signal-engine/internal/taxonomy"
	"github.com/pdiddy/signal-engine/pkg/types"
)

func aggsWith(tax *taxonomy.Taxonomy, overrides map[types.Category]types.AggregatedSignal) []types.AggregatedSignal {
	aggs := Aggregate(tax, nil, now)
	for i, a := range aggs {
		if o, ok := overrides[a.Category]; ok {
			o.Category = a.Category
			aggs[i] = o
		}
	}
	return aggs
}

func TestPressureEmptyIsNeutral(t *testing.T) {
	tax := taxonomy.Default()
	lp := LoopPressure(tax, Aggregate(tax, nil, now))
	assert.Equal(t, 0.5, lp.Value)
	assert.Equal(t, types.PressureStable, lp.Trend)

	assert.Equal(t, 0.5, Pressure(tax, nil))
	assert.Equal(t, types.PressureStable, Trend(nil))
}

func TestPressurePolarity(t *testing.T) {
	tax := taxonomy.Default()
	strong := types.AggregatedSignal{NetDirection: 0.9, Confidence: 0.84, SignalCount: 3}

	// weights: 0.92 for the active category, 0.5 for the other twelve.
	want := (0.828/(0.92+6) + 1) / 2

	up := Pressure(tax, aggsWith(tax, map[types.Category]types.AggregatedSignal{"automation_substitution": strong}))
	assert.InDelta(t, want, up, 1e-9)
	assert.Greater(t, up, 0.5)

	down := Pressure(tax, aggsWith(tax, map[types.Category]types.AggregatedSignal{"structural_adaptation": strong}))
	assert.InDelta(t, 1-want, down, 1e-9)
	assert.Less(t, down, 0.5)
}

func TestPressureSaturates(t *testing.T) {
	tax := taxonomy.Default()
	overrides := map[types.Category]types.AggregatedSignal{}
	for _, e := range tax.Entries() {
		net := 1.0
		if !e.Accelerating {
			net = -1
		}
		overrides[e.Category] = types.AggregatedSignal{NetDirection: net, Confidence: 1}
	}
	assert.InDelta(t, 1.0, Pressure(tax, aggsWith(tax, overrides)), 1e-9)

	for c, a := range overrides {
		a.NetDirection = -a.NetDirection
		overrides[c] = a
	}
	assert.InDelta(t, 0.0, Pressure(tax, aggsWith(tax, overrides)), 1e-9)
}

func TestPressureFromSignalsStaysInRange(t *testing.T) {
	tax := taxonomy.Default()
	var signals []types.Signal
	for i, c := range tax.Categories() {
		dir := types.DirectionIncreasing
		if i%2 == 0 {
			dir = types.DirectionDecreasing
		}
		signals = append(signals, sig(c, dir, types.StrengthStrong, float64(i)))
	}
	p := Pressure(tax, Aggregate(tax, signals, now))
	assert.GreaterOrEqual(t, p, 0.0)
	assert.LessOrEqual(t, p, 1.0)
}

func TestTrendHysteresis(t *testing.T) {
	mk := func(trends ...types.Trend) []types.AggregatedSignal {
		out := make([]types.AggregatedSignal, len(trends))
		for i, tr := range trends {
			out[i] = types.AggregatedSignal{Trend: tr}
		}
		return out
	}
	s, w, h := types.TrendStrengthening, types.TrendWeakening, types.TrendHolding

	tests := []struct {
		name string
		aggs []types.AggregatedSignal
		want types.PressureTrend
	}{
		{"margin of one is stable", mk(s, s, w), types.PressureStable},
		{"margin of two increases", mk(s, s, s, w), types.PressureIncreasing},
		{"two weakening decreases", mk(w, w, h), types.PressureDecreasing},
		{"single strengthening is stable", mk(s, h, h), types.PressureStable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Trend(tt.aggs))
		})
	}
}

// --- Nodes ---

func TestNodeSignalsAndIntensity(t *testing.T) {
	tax := taxonomy.Default()
	aggs := aggsWith(tax, map[types.Category]types.AggregatedSignal{
		"automation_substitution": {NetDirection: 0.5, Confidence: 0.8, AffectedNodes: []string{"ai", "labor"}},
		"structural_adaptation":   {NetDirection: -0.5, Confidence: 0.4, AffectedNodes: []string{"labor", "fiscal"}},
	})

	labor := NodeSignals(aggs, "labor")
	// automation, policy_paralysis and structural_adaptation touch labor.
	assert.Len(t, labor, 3)

	// (0.4 + 0 - 0.2) / 3 × 0.2
	assert.InDelta(t, 0.2/3*0.2, NodeIntensity(aggs, "labor"), 1e-9)
	assert.Zero(t, NodeIntensity(aggs, "nonexistent"))
	assert.Empty(t, NodeSignals(aggs, "nonexistent"))
}
