// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package aggregate

import (
	"math"
	"time"

	"github.com/pdiddy/signal-engine/internal/taxonomy"
	"github.com/pdiddy/signal-engine/pkg/types"
)

// Window is a trailing time span used for heatmap aggregation.
type Window struct {
	Name string
	Days int
}

// Windows are the fixed heatmap windows, shortest first.
var Windows = []Window{
	{Name: "7d", Days: 7},
	{Name: "30d", Days: 30},
	{Name: "90d", Days: 90},
}

const (
	// emptyWindowConfidence is reported for a window with no signals.
	emptyWindowConfidence = 0.1

	// windowConfidenceFloor applies once a window has any signal.
	windowConfidenceFloor = 0.2

	windowVolumeSaturation = 3.0
)

// Windowed returns, per taxonomy category, independent reductions over
// the 7, 30 and 90 day windows ending at now. Unlike Aggregate no time
// decay is applied; the window itself bounds recency.
func Windowed(tax *taxonomy.Taxonomy, signals []types.Signal, now time.Time) []types.TimeWindowedSignal {
	byCat := groupByCategory(tax, signals)

	out := make([]types.TimeWindowedSignal, 0, tax.Len())
	for _, entry := range tax.Entries() {
		group := byCat[entry.Category]
		out = append(out, types.TimeWindowedSignal{
			Category: entry.Category,
			Label:    entry.Label,
			Days7:    WindowStats(group, now, Windows[0]),
			Days30:   WindowStats(group, now, Windows[1]),
			Days90:   WindowStats(group, now, Windows[2]),
		})
	}
	return out
}

// WindowStats reduces the signals with timestamp >= now - w to a
// direction, confidence and count.
func WindowStats(signals []types.Signal, now time.Time, w Window) types.WindowStats {
	cutoff := now.UnixMilli() - int64(w.Days)*msPerDay

	var inWindow []types.Signal
	for _, s := range signals {
		if s.Timestamp >= cutoff {
			inWindow = append(inWindow, s)
		}
	}
	if len(inWindow) == 0 {
		return types.WindowStats{Direction: 0, Confidence: emptyWindowConfidence, SignalCount: 0}
	}

	var sum float64
	for _, s := range inWindow {
		sum += s.Direction.Value() * s.Strength.Multiplier() * s.Weight
	}
	n := float64(len(inWindow))

	volume := math.Min(1, n/windowVolumeSaturation)
	dominant := float64(pluralityCount(inWindow)) / n
	conf := math.Max(windowConfidenceFloor, 0.4*volume+0.6*dominant)

	return types.WindowStats{
		Direction:   clamp(sum/n, -1, 1),
		Confidence:  clamp(conf, 0, 1),
		SignalCount: len(inWindow),
	}
}
