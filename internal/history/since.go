// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"fmt"
	"strings"
	"time"
)

// ParseSince reads the lower bound of a history query. raw is a Go
// duration ("24h", meaning that long before now) or an RFC 3339 time.
// Empty means the beginning of time.
func ParseSince(raw string, now time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if d, err := time.ParseDuration(raw); err == nil {
		if d < 0 {
			return time.Time{}, fmt.Errorf("since duration must not be negative: %s", raw)
		}
		return now.Add(-d), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("since must be a duration like 24h or an RFC 3339 time, got %q", raw)
	}
	return t, nil
}
