// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Category names one member of the closed signal taxonomy
// (e.g. "automation_substitution"). The set of valid values is owned by
// internal/taxonomy.
type Category string

// Direction is the lexical direction inferred for a signal.
type Direction string

const (
	DirectionIncreasing Direction = "increasing"
	DirectionDecreasing Direction = "decreasing"
	DirectionStable     Direction = "stable"
)

// Valid reports whether d is one of the three known directions.
func (d Direction) Valid() bool {
	switch d {
	case DirectionIncreasing, DirectionDecreasing, DirectionStable:
		return true
	}
	return false
}

// Value maps the direction onto +1, -1 or 0.
func (d Direction) Value() float64 {
	switch d {
	case DirectionIncreasing:
		return 1
	case DirectionDecreasing:
		return -1
	default:
		return 0
	}
}

// Strength is the ordinal classification strength of a signal.
type Strength string

const (
	StrengthWeak     Strength = "weak"
	StrengthModerate Strength = "moderate"
	StrengthStrong   Strength = "strong"
)

// Valid reports whether s is one of the three known strengths.
func (s Strength) Valid() bool {
	switch s {
	case StrengthWeak, StrengthModerate, StrengthStrong:
		return true
	}
	return false
}

// Multiplier is the aggregation multiplier for the strength:
// strong 1.0, moderate 0.6, weak 0.3.
func (s Strength) Multiplier() float64 {
	switch s {
	case StrengthStrong:
		return 1.0
	case StrengthModerate:
		return 0.6
	default:
		return 0.3
	}
}

// Weight is the per-signal weight assigned at classification time:
// strong 0.9, moderate 0.6, weak 0.3.
func (s Strength) Weight() float64 {
	switch s {
	case StrengthStrong:
		return 0.9
	case StrengthModerate:
		return 0.6
	default:
		return 0.3
	}
}

// StrengthForMatches converts a keyword hit count into a strength.
// Three or more hits are strong, two are moderate, anything else weak.
func StrengthForMatches(n int) Strength {
	switch {
	case n >= 3:
		return StrengthStrong
	case n >= 2:
		return StrengthModerate
	default:
		return StrengthWeak
	}
}

// Signal is one classified, directional, time-stamped observation. It is
// immutable once created and carries no source text.
type Signal struct {
	// ID is unique within a store; merges deduplicate on it.
	ID string `json:"id" yaml:"id"`

	Category  Category  `json:"category" yaml:"category"`
	Direction Direction `json:"direction" yaml:"direction"`
	Strength  Strength  `json:"strength" yaml:"strength"`

	// Timestamp is the creation time in epoch milliseconds.
	Timestamp int64 `json:"timestamp" yaml:"timestamp"`

	// AffectedNodes is always the taxonomy lookup for Category.
	AffectedNodes []string `json:"affectedNodes" yaml:"affected_nodes"`

	// Weight lies in [0.1, 1.0] and is derived from Strength.
	Weight float64 `json:"weight" yaml:"weight"`
}

// PartialSignal is the caller-supplied part of a signal; the store
// assigns the id and timestamp.
type PartialSignal struct {
	Category  Category  `json:"category" yaml:"category"`
	Direction Direction `json:"direction" yaml:"direction"`
	Strength  Strength  `json:"strength" yaml:"strength"`
}

// Trend describes whether a category's recent signals are stronger or
// weaker than its older ones.
type Trend string

const (
	TrendStrengthening Trend = "strengthening"
	TrendWeakening     Trend = "weakening"
	TrendHolding       Trend = "holding"
)

// PressureTrend is the direction of the synthesized loop pressure.
type PressureTrend string

const (
	PressureIncreasing PressureTrend = "increasing"
	PressureDecreasing PressureTrend = "decreasing"
	PressureStable     PressureTrend = "stable"
)

// AggregatedSignal is the per-category reduction of the live signal set.
// It is recomputed on every read and never stored.
type AggregatedSignal struct {
	Category    Category `json:"category"`
	Label       string   `json:"label"`
	Description string   `json:"description"`

	// NetDirection lies in [-1, 1].
	NetDirection float64 `json:"netDirection"`

	// Confidence lies in [0, 1].
	Confidence float64 `json:"confidence"`

	SignalCount   int      `json:"signalCount"`
	Trend         Trend    `json:"trend"`
	AffectedNodes []string `json:"affectedNodes"`
}

// WindowStats is the reduction of one category over one trailing window.
type WindowStats struct {
	Direction   float64 `json:"direction"`
	Confidence  float64 `json:"confidence"`
	SignalCount int     `json:"signalCount"`
}

// TimeWindowedSignal holds the 7, 30 and 90 day reductions of a category.
type TimeWindowedSignal struct {
	Category Category    `json:"category"`
	Label    string      `json:"label"`
	Days7    WindowStats `json:"7d"`
	Days30   WindowStats `json:"30d"`
	Days90   WindowStats `json:"90d"`
}

// LoopPressure is the synthesized stress score and its trend.
type LoopPressure struct {
	Value float64       `json:"loopPressure"`
	Trend PressureTrend `json:"loopPressureTrend"`
}
