// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs one fetch cycle: collect headlines, classify
// them, and build new signals.
//
// Headline text lives only inside Run. The returned FetchResult carries
// signals and counts, never text.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/pdiddy/signal-engine/internal/aggregate"
	"github.com/pdiddy/signal-engine/internal/classify"
	"github.com/pdiddy/signal-engine/internal/feed"
	"github.com/pdiddy/signal-engine/internal/taxonomy"
	"github.com/pdiddy/signal-engine/pkg/types"
)

// DefaultMaxPerCategory is the number of new signals admitted per
// category in one pass.
const DefaultMaxPerCategory = 3

// PrivacyNotice is attached to every FetchResult.
const PrivacyNotice = "Headline text is classified in memory and discarded. " +
	"Only category, direction, strength and timestamp are kept."

// Collector supplies one batch of feed items.
type Collector interface {
	Collect(ctx context.Context) (feed.Result, error)
}

// CategorySummary describes the signals one category gained in a pass.
type CategorySummary struct {
	Count             int             `json:"count"`
	AvgWeight         float64         `json:"avgWeight"`
	DominantDirection types.Direction `json:"dominantDirection"`
}

// FeedStats reports source health for a pass.
type FeedStats struct {
	TotalFeeds      int            `json:"totalFeeds"`
	FeedsResponded  int            `json:"feedsResponded"`
	FeedsFailed     int            `json:"feedsFailed"`
	SourceBreakdown map[string]int `json:"sourceBreakdown"`
}

// Dropped counts items that produced no signal.
type Dropped struct {
	// Unclassified items matched no category keyword.
	Unclassified int `json:"unclassified"`

	// CategoryCap items were classified but their category was full.
	CategoryCap int `json:"categoryCap"`
}

// FetchResult is the JSON-serializable outcome of one pass. When Success
// is false, Error explains why and Signals and Aggregated are empty.
// Timestamp is epoch milliseconds, like Signal.Timestamp.
type FetchResult struct {
	Success           bool                               `json:"success"`
	Timestamp         int64                              `json:"timestamp"`
	TotalItemsScanned int                                `json:"totalItemsScanned"`
	SignalsDetected   int                                `json:"signalsDetected"`
	CategoriesFound   int                                `json:"categoriesFound"`
	Signals           []types.Signal                     `json:"signals"`
	Aggregated        map[types.Category]CategorySummary `json:"aggregated"`
	FeedStats         FeedStats                          `json:"feedStats"`
	Dropped           Dropped                            `json:"dropped"`
	Privacy           string                             `json:"privacy"`
	Error             string                             `json:"error,omitempty"`
}

// Options tunes a pass. The zero value uses the defaults.
type Options struct {
	// NewID generates signal ids; defaults to "sig_" + a random UUID.
	NewID func() string

	// Clock supplies the signal timestamp; defaults to the real clock.
	Clock clockwork.Clock

	// MaxPerCategory defaults to DefaultMaxPerCategory.
	MaxPerCategory int
}

// Run performs one fetch cycle. It never panics and never returns an
// error; failures are reported as Success false.
func Run(ctx context.Context, c Collector, tax *taxonomy.Taxonomy, opts Options) (res FetchResult) {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.NewID == nil {
		opts.NewID = func() string { return "sig_" + uuid.NewString() }
	}
	if opts.MaxPerCategory <= 0 {
		opts.MaxPerCategory = DefaultMaxPerCategory
	}
	now := opts.Clock.Now()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("fetch pipeline panicked", "panic", r)
			res = Failure(now, fmt.Errorf("fetch pipeline: %v", r))
		}
	}()

	batch, err := c.Collect(ctx)
	if err != nil {
		return Failure(now, err)
	}
	if err := ctx.Err(); err != nil {
		return Failure(now, fmt.Errorf("fetch cancelled: %w", err))
	}

	res = FetchResult{
		Success:           true,
		Timestamp:         now.UnixMilli(),
		TotalItemsScanned: len(batch.Items),
		Signals:           []types.Signal{},
		Aggregated:        map[types.Category]CategorySummary{},
		FeedStats: FeedStats{
			TotalFeeds:      batch.TotalFeeds,
			FeedsResponded:  batch.FeedsResponded,
			FeedsFailed:     batch.FeedsFailed,
			SourceBreakdown: batch.SourceBreakdown,
		},
		Privacy: PrivacyNotice,
	}
	if res.FeedStats.SourceBreakdown == nil {
		res.FeedStats.SourceBreakdown = map[string]int{}
	}

	admitted := make(map[types.Category]int)
	for _, item := range batch.Items {
		text := item.Text()
		cls, ok := classify.Classify(tax, text)
		if !ok {
			res.Dropped.Unclassified++
			continue
		}
		if admitted[cls.Category] >= opts.MaxPerCategory {
			res.Dropped.CategoryCap++
			continue
		}
		admitted[cls.Category]++

		res.Signals = append(res.Signals, types.Signal{
			ID:            opts.NewID(),
			Category:      cls.Category,
			Direction:     classify.InferDirection(text),
			Strength:      cls.Strength,
			Timestamp:     now.UnixMilli(),
			AffectedNodes: tax.AffectedNodes(cls.Category),
			Weight:        cls.Strength.Weight(),
		})
	}
	batch.Items = nil

	res.SignalsDetected = len(res.Signals)
	res.Aggregated = Summarize(res.Signals)
	res.CategoriesFound = len(res.Aggregated)

	slog.Info("fetch pass complete",
		"items", res.TotalItemsScanned, "signals", res.SignalsDetected,
		"categories", res.CategoriesFound, "unclassified", res.Dropped.Unclassified,
		"capped", res.Dropped.CategoryCap)
	return res
}

// Summarize groups signals by category into count, mean weight and the
// plurality direction.
func Summarize(signals []types.Signal) map[types.Category]CategorySummary {
	groups := make(map[types.Category][]types.Signal)
	for _, s := range signals {
		groups[s.Category] = append(groups[s.Category], s)
	}

	out := make(map[types.Category]CategorySummary, len(groups))
	for cat, group := range groups {
		var total float64
		for _, s := range group {
			total += s.Weight
		}
		out[cat] = CategorySummary{
			Count:             len(group),
			AvgWeight:         total / float64(len(group)),
			DominantDirection: aggregate.DominantDirection(group),
		}
	}
	return out
}

// Failure is the result of a pass that produced nothing, stamped at now.
func Failure(now time.Time, err error) FetchResult {
	slog.Error("fetch pass failed", "error", err)
	return FetchResult{
		Success:    false,
		Timestamp:  now.UnixMilli(),
		Signals:    []types.Signal{},
		Aggregated: map[types.Category]CategorySummary{},
		FeedStats:  FeedStats{SourceBreakdown: map[string]int{}},
		Privacy:    PrivacyNotice,
		Error:      err.Error(),
	}
}
