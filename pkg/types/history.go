// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// PressurePoint is one recorded loop pressure reading. It is written
// after every successful refresh and carries counts only.
type PressurePoint struct {
	RecordedAt     time.Time     `json:"recordedAt" yaml:"recorded_at"`
	Pressure       float64       `json:"pressure" yaml:"pressure"`
	Trend          PressureTrend `json:"trend" yaml:"trend"`
	SignalCount    int           `json:"signalCount" yaml:"signal_count"`
	FeedsResponded int           `json:"feedsResponded" yaml:"feeds_responded"`
	FeedsFailed    int           `json:"feedsFailed" yaml:"feeds_failed"`
}
