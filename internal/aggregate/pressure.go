// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package aggregate

import (
	"github.com/pdiddy/signal-engine/internal/taxonomy"
	"github.com/pdiddy/signal-engine/pkg/types"
)

// NeutralPressure is reported when there is nothing to weigh.
const NeutralPressure = 0.5

// trendMargin is how many more strengthening than weakening categories
// (or vice versa) are needed before the pressure trend moves.
const trendMargin = 1

// Pressure synthesizes the loop pressure in [0, 1] from per-category
// aggregates. Each category is weighted by 0.5 + confidence/2; increasing
// accelerating categories push pressure up, increasing stabilizing ones
// push it down. The weighted mean in [-1, 1] is mapped onto [0, 1] with
// 0.5 as neutral.
func Pressure(tax *taxonomy.Taxonomy, aggs []types.AggregatedSignal) float64 {
	var sum, totalWeight float64
	for _, a := range aggs {
		w := a.Confidence*0.5 + 0.5
		contribution := a.NetDirection * w
		if !tax.IsAccelerating(a.Category) {
			contribution = -contribution
		}
		sum += contribution
		totalWeight += w
	}
	if totalWeight == 0 {
		return NeutralPressure
	}
	return clamp((sum/totalWeight+1)/2, 0, 1)
}

// Trend reports increasing when strengthening categories outnumber
// weakening ones by more than one, decreasing for the reverse, and stable
// otherwise.
func Trend(aggs []types.AggregatedSignal) types.PressureTrend {
	var strengthening, weakening int
	for _, a := range aggs {
		switch a.Trend {
		case types.TrendStrengthening:
			strengthening++
		case types.TrendWeakening:
			weakening++
		}
	}

	switch {
	case strengthening > weakening+trendMargin:
		return types.PressureIncreasing
	case weakening > strengthening+trendMargin:
		return types.PressureDecreasing
	default:
		return types.PressureStable
	}
}

// LoopPressure combines Pressure and Trend.
func LoopPressure(tax *taxonomy.Taxonomy, aggs []types.AggregatedSignal) types.LoopPressure {
	return types.LoopPressure{
		Value: Pressure(tax, aggs),
		Trend: Trend(aggs),
	}
}

// NodeSignals returns the aggregates whose affected nodes include node.
func NodeSignals(aggs []types.AggregatedSignal, node string) []types.AggregatedSignal {
	var out []types.AggregatedSignal
	for _, a := range aggs {
		for _, n := range a.AffectedNodes {
			if n == node {
				out = append(out, a)
				break
			}
		}
	}
	return out
}

// NodeIntensity is the mean confidence-weighted direction of the
// aggregates affecting node, scaled to at most ±0.2. It is zero when no
// category touches node.
func NodeIntensity(aggs []types.AggregatedSignal, node string) float64 {
	matched := NodeSignals(aggs, node)
	if len(matched) == 0 {
		return 0
	}
	var sum float64
	for _, a := range matched {
		sum += a.NetDirection * a.Confidence
	}
	return sum / float64(len(matched)) * 0.2
}
