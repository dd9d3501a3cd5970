// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package aggregate reduces a signal set into per-category directional
// scores, trailing-window heatmap cells and a single loop pressure value.
// Every function is pure: the current time is always a parameter.
package aggregate

import (
	"math"
	"time"

	"github.com/pdiddy/signal-engine/internal/taxonomy"
	"github.com/pdiddy/signal-engine/pkg/types"
)

const (
	msPerDay = int64(24 * time.Hour / time.Millisecond)

	// decayHorizonDays is the age at which a signal keeps half its weight.
	decayHorizonDays = 7.0
	decayFloor       = 0.2

	// recentDays splits signals into recent and older for trend detection.
	recentDays = 3

	strengtheningRatio = 1.2
	weakeningRatio     = 0.8

	// volumeSaturation is the signal count at which volume confidence
	// stops growing.
	volumeSaturation = 5.0
)

// Decay returns the time-decay factor for a signal created at ts (epoch
// ms) as seen at now. It falls linearly to 0.5 at seven days and never
// drops below 0.2. Signals dated in the future are treated as new.
func Decay(ts int64, now time.Time) float64 {
	ageDays := float64(now.UnixMilli()-ts) / float64(msPerDay)
	if ageDays < 0 {
		ageDays = 0
	}
	return math.Max(decayFloor, 1-(ageDays/decayHorizonDays)*0.5)
}

// Contribution is a signal's decayed, signed value:
// direction × strength multiplier × weight × decay.
func Contribution(s types.Signal, now time.Time) float64 {
	return s.Direction.Value() * s.Strength.Multiplier() * s.Weight * Decay(s.Timestamp, now)
}

// Aggregate returns one AggregatedSignal per taxonomy category, in
// taxonomy order. Signals whose category is not in tax are ignored.
func Aggregate(tax *taxonomy.Taxonomy, signals []types.Signal, now time.Time) []types.AggregatedSignal {
	byCat := groupByCategory(tax, signals)

	out := make([]types.AggregatedSignal, 0, tax.Len())
	for _, entry := range tax.Entries() {
		agg := types.AggregatedSignal{
			Category:      entry.Category,
			Label:         entry.Label,
			Description:   entry.Description,
			Trend:         types.TrendHolding,
			AffectedNodes: entry.AffectedNodes,
		}

		group := byCat[entry.Category]
		if len(group) > 0 {
			agg.SignalCount = len(group)
			agg.NetDirection = netDirection(group, now)
			agg.Confidence = confidence(group)
			agg.Trend = trend(group, now)
		}
		out = append(out, agg)
	}
	return out
}

func groupByCategory(tax *taxonomy.Taxonomy, signals []types.Signal) map[types.Category][]types.Signal {
	byCat := make(map[types.Category][]types.Signal, tax.Len())
	for _, s := range signals {
		if !tax.Contains(s.Category) {
			continue
		}
		byCat[s.Category] = append(byCat[s.Category], s)
	}
	return byCat
}

func netDirection(group []types.Signal, now time.Time) float64 {
	return clamp(meanContribution(group, now), -1, 1)
}

// confidence blends directional consistency (share of the plurality
// direction) with volume.
func confidence(group []types.Signal) float64 {
	n := float64(len(group))
	consistency := float64(pluralityCount(group)) / n
	volume := math.Min(1, n/volumeSaturation)
	return clamp(0.6*consistency+0.4*volume, 0, 1)
}

// trend compares the mean contribution of signals newer than three days
// with that of older ones. An empty side averages to zero.
func trend(group []types.Signal, now time.Time) types.Trend {
	cutoff := now.UnixMilli() - recentDays*msPerDay

	var recent, older []types.Signal
	for _, s := range group {
		if s.Timestamp > cutoff {
			recent = append(recent, s)
		} else {
			older = append(older, s)
		}
	}

	recentAvg := math.Abs(meanContribution(recent, now))
	olderAvg := math.Abs(meanContribution(older, now))

	switch {
	case recentAvg > olderAvg*strengtheningRatio:
		return types.TrendStrengthening
	case recentAvg < olderAvg*weakeningRatio:
		return types.TrendWeakening
	default:
		return types.TrendHolding
	}
}

func meanContribution(group []types.Signal, now time.Time) float64 {
	if len(group) == 0 {
		return 0
	}
	var sum float64
	for _, s := range group {
		sum += Contribution(s, now)
	}
	return sum / float64(len(group))
}

// pluralityCount returns how many signals share the most common direction.
func pluralityCount(group []types.Signal) int {
	counts := make(map[types.Direction]int, 3)
	best := 0
	for _, s := range group {
		counts[s.Direction]++
		if counts[s.Direction] > best {
			best = counts[s.Direction]
		}
	}
	return best
}

// DominantDirection returns the most common direction in signals. Ties go
// to the direction seen first; an empty slice yields stable.
func DominantDirection(signals []types.Signal) types.Direction {
	counts := make(map[types.Direction]int, 3)
	var order []types.Direction
	for _, s := range signals {
		if counts[s.Direction] == 0 {
			order = append(order, s.Direction)
		}
		counts[s.Direction]++
	}

	dominant := types.DirectionStable
	best := 0
	for _, d := range order {
		if counts[d] > best {
			dominant, best = d, counts[d]
		}
	}
	return dominant
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(lo, math.Min(hi, v))
}
