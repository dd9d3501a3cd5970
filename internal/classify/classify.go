// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package classify maps free text onto a taxonomy category, a strength and
// a direction using keyword and lexical-marker matching. It holds no state
// and never retains the text it is given.
package classify

import (
	"strings"

	"github.com/pdiddy/signal-engine/internal/taxonomy"
	"github.com/pdiddy/signal-engine/pkg/types"
)

// Classification is the result of matching text against the taxonomy.
type Classification struct {
	Category types.Category
	Strength types.Strength

	// Matches is the number of distinct category keywords found.
	Matches int
}

// Classify returns the category whose keywords occur most often in text.
// Matching is case-insensitive substring matching. On a tied count the
// category that comes first in the taxonomy wins. ok is false when no
// keyword of any category occurs.
func Classify(tax *taxonomy.Taxonomy, text string) (c Classification, ok bool) {
	if strings.TrimSpace(text) == "" {
		return Classification{}, false
	}

	counts := tax.CountMatches(strings.ToLower(text))
	best := -1
	for i, n := range counts {
		if n == 0 {
			continue
		}
		if best < 0 || n > counts[best] {
			best = i
		}
	}
	if best < 0 {
		return Classification{}, false
	}

	return Classification{
		Category: tax.At(best),
		Strength: types.StrengthForMatches(counts[best]),
		Matches:  counts[best],
	}, true
}

// Direction markers. Stems are matched as substrings, so "accelerat"
// covers accelerate, accelerating and acceleration.
var (
	increasingMarkers = []string{"rise", "increase", "grow", "surge", "spike", "jump", "expand", "accelerat", "boom", "soar"}
	decreasingMarkers = []string{"fall", "decline", "drop", "shrink", "contract", "slow", "cut", "reduce", "crash", "plunge"}
)

// InferDirection reports increasing when only increasing markers occur in
// text, decreasing when only decreasing markers occur, and stable when
// both or neither do.
//
// This is lexical, not semantic: "cuts rise" reads as stable and
// "shortfall" counts as a fall. That precision ceiling is accepted.
func InferDirection(text string) types.Direction {
	lowered := strings.ToLower(text)
	up := containsAny(lowered, increasingMarkers)
	down := containsAny(lowered, decreasingMarkers)

	switch {
	case up && !down:
		return types.DirectionIncreasing
	case down && !up:
		return types.DirectionDecreasing
	default:
		return types.DirectionStable
	}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
