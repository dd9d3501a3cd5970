// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package engine owns the live signal store and serves the aggregate,
// window and pressure views computed from it.
//
// All reads are recomputed from a store snapshot. Writes go through
// AddSignal, AddLiveSignals and Refresh; a failed refresh leaves the
// store as it was.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/pdiddy/signal-engine/internal/aggregate"
	"github.com/pdiddy/signal-engine/internal/feed"
	"github.com/pdiddy/signal-engine/internal/metrics"
	"github.com/pdiddy/signal-engine/internal/pipeline"
	"github.com/pdiddy/signal-engine/internal/store"
	"github.com/pdiddy/signal-engine/internal/taxonomy"
	"github.com/pdiddy/signal-engine/pkg/types"
)

// HistoryRecorder persists a pressure reading after each successful
// refresh.
type HistoryRecorder interface {
	Record(ctx context.Context, p types.PressurePoint) error
}

// State is the full read model.
type State struct {
	Signals             []types.Signal             `json:"signals"`
	AggregatedSignals   []types.AggregatedSignal   `json:"aggregatedSignals"`
	TimeWindowedSignals []types.TimeWindowedSignal `json:"timeWindowedSignals"`
	LoopPressure        float64                    `json:"loopPressure"`
	LoopPressureTrend   types.PressureTrend        `json:"loopPressureTrend"`
	LastUpdated         *time.Time                 `json:"lastUpdated,omitempty"`
	LastFetch           *FetchStatus               `json:"lastFetch,omitempty"`
}

// FetchStatus summarizes the most recent refresh attempt.
type FetchStatus struct {
	Success         bool   `json:"success"`
	Timestamp       int64  `json:"timestamp"`
	SignalsDetected int    `json:"signalsDetected"`
	SignalsAdded    int    `json:"signalsAdded"`
	FeedsResponded  int    `json:"feedsResponded"`
	FeedsFailed     int    `json:"feedsFailed"`
	Error           string `json:"error,omitempty"`
}

// RefreshResult is the outcome of Refresh.
type RefreshResult struct {
	Fetch pipeline.FetchResult

	// Added is the number of fetched signals that were new to the store.
	Added int
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock for reads, refresh timestamps and Run.
func WithClock(c clockwork.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithHistory records a pressure reading after every successful refresh.
func WithHistory(h HistoryRecorder) Option {
	return func(e *Engine) { e.history = h }
}

// WithMetrics reports fetch and state metrics to m.
func WithMetrics(m *metrics.Recorder) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithMaxPerCategory sets the per-category admission cap for a fetch pass.
func WithMaxPerCategory(n int) Option {
	return func(e *Engine) { e.maxPerCategory = n }
}

// Engine is safe for concurrent use.
type Engine struct {
	tax            *taxonomy.Taxonomy
	store          store.Store
	collector      pipeline.Collector
	clock          clockwork.Clock
	history        HistoryRecorder
	metrics        *metrics.Recorder
	maxPerCategory int

	refreshes singleflight.Group

	// life bounds shared refresh passes; Close cancels it.
	life context.Context
	stop context.CancelFunc

	mu          sync.RWMutex
	lastUpdated time.Time
	lastFetch   *FetchStatus
	subs        map[int]chan struct{}
	nextSub     int
}

// New returns an engine over st. collector may be nil, in which case
// Refresh always fails with ErrNoCollector.
func New(tax *taxonomy.Taxonomy, st store.Store, collector pipeline.Collector, opts ...Option) *Engine {
	e := &Engine{
		tax:       tax,
		store:     st,
		collector: collector,
		clock:     clockwork.NewRealClock(),
		subs:      make(map[int]chan struct{}),
	}
	e.life, e.stop = context.WithCancel(context.Background())
	if e.collector == nil {
		e.collector = noCollector{}
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.metrics != nil {
		e.metrics.ObserveState(e.Pressure(e.clock.Now()).Value, st.Len())
	}
	return e
}

// Close cancels any in-flight refresh pass. Later refreshes fail at once.
func (e *Engine) Close() {
	e.stop()
}

// Taxonomy returns the active taxonomy.
func (e *Engine) Taxonomy() *taxonomy.Taxonomy { return e.tax }

// Now returns the engine clock's current time.
func (e *Engine) Now() time.Time { return e.clock.Now() }

// State computes the full read model at now.
func (e *Engine) State(now time.Time) State {
	signals := e.store.Snapshot()
	aggs := aggregate.Aggregate(e.tax, signals, now)
	lp := aggregate.LoopPressure(e.tax, aggs)

	st := State{
		Signals:             signals,
		AggregatedSignals:   aggs,
		TimeWindowedSignals: aggregate.Windowed(e.tax, signals, now),
		LoopPressure:        lp.Value,
		LoopPressureTrend:   lp.Trend,
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	if !e.lastUpdated.IsZero() {
		t := e.lastUpdated
		st.LastUpdated = &t
	}
	if e.lastFetch != nil {
		f := *e.lastFetch
		st.LastFetch = &f
	}
	return st
}

// Aggregates returns the per-category aggregates at now.
func (e *Engine) Aggregates(now time.Time) []types.AggregatedSignal {
	return aggregate.Aggregate(e.tax, e.store.Snapshot(), now)
}

// Windows returns the 7, 30 and 90 day views at now.
func (e *Engine) Windows(now time.Time) []types.TimeWindowedSignal {
	return aggregate.Windowed(e.tax, e.store.Snapshot(), now)
}

// Pressure returns the loop pressure and trend at now.
func (e *Engine) Pressure(now time.Time) types.LoopPressure {
	return aggregate.LoopPressure(e.tax, e.Aggregates(now))
}

// Signals returns the stored signals, newest first.
func (e *Engine) Signals() []types.Signal {
	return e.store.Snapshot()
}

// NodeSignals returns the current aggregates whose categories affect node.
func (e *Engine) NodeSignals(node string) []types.AggregatedSignal {
	return aggregate.NodeSignals(e.Aggregates(e.clock.Now()), node)
}

// NodeIntensity returns the signed intensity for node, at most ±0.2.
func (e *Engine) NodeIntensity(node string) float64 {
	return aggregate.NodeIntensity(e.Aggregates(e.clock.Now()), node)
}

// AddSignal appends one signal built from p.
func (e *Engine) AddSignal(p types.PartialSignal) (types.Signal, error) {
	sig, err := e.store.Append(p)
	if err != nil {
		return types.Signal{}, err
	}
	e.changed()
	return sig, nil
}

// AddLiveSignals merges already-classified signals, skipping ids the
// store has seen. It returns how many were added.
func (e *Engine) AddLiveSignals(signals []types.Signal) (int, error) {
	added, err := e.store.Merge(signals)
	if err != nil {
		return 0, err
	}
	if added > 0 {
		e.changed()
	}
	return added, nil
}

// Refresh runs one fetch pass and merges its signals. Concurrent callers
// share a single in-flight pass. The pass keeps ctx's values but not its
// cancellation: it runs until it finishes or the engine is closed. A
// caller whose ctx ends stops waiting and gets a failed result, while the
// pass carries on for everyone else.
func (e *Engine) Refresh(ctx context.Context) RefreshResult {
	ch := e.refreshes.DoChan("refresh", func() (any, error) {
		passCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		defer cancel()
		stopAfter := context.AfterFunc(e.life, cancel)
		defer stopAfter()
		return e.refresh(passCtx), nil
	})

	select {
	case r := <-ch:
		return r.Val.(RefreshResult)
	case <-ctx.Done():
		return RefreshResult{Fetch: pipeline.Failure(e.clock.Now(), fmt.Errorf("fetch cancelled: %w", ctx.Err()))}
	}
}

func (e *Engine) refresh(ctx context.Context) RefreshResult {
	opts := pipeline.Options{Clock: e.clock, MaxPerCategory: e.maxPerCategory}
	if g, ok := e.store.(interface{ NewID() string }); ok {
		opts.NewID = g.NewID
	}

	res := pipeline.Run(ctx, e.collector, e.tax, opts)
	if !res.Success {
		e.recordFetch(res, 0)
		return RefreshResult{Fetch: res}
	}

	added, err := e.store.Merge(res.Signals)
	if err != nil {
		stats := res.FeedStats
		res = pipeline.Failure(time.UnixMilli(res.Timestamp), fmt.Errorf("merging fetched signals: %w", err))
		res.FeedStats = stats
		e.recordFetch(res, 0)
		return RefreshResult{Fetch: res}
	}

	e.recordFetch(res, added)
	e.changed()

	if e.history != nil {
		lp := e.Pressure(e.clock.Now())
		point := types.PressurePoint{
			RecordedAt:     time.UnixMilli(res.Timestamp).UTC(),
			Pressure:       lp.Value,
			Trend:          lp.Trend,
			SignalCount:    e.store.Len(),
			FeedsResponded: res.FeedStats.FeedsResponded,
			FeedsFailed:    res.FeedStats.FeedsFailed,
		}
		if err := e.history.Record(ctx, point); err != nil {
			slog.Warn("recording pressure history", "error", err)
		}
	}

	slog.Info("refresh complete", "detected", res.SignalsDetected, "added", added, "stored", e.store.Len())
	return RefreshResult{Fetch: res, Added: added}
}

func (e *Engine) recordFetch(res pipeline.FetchResult, added int) {
	status := &FetchStatus{
		Success:         res.Success,
		Timestamp:       res.Timestamp,
		SignalsDetected: res.SignalsDetected,
		SignalsAdded:    added,
		FeedsResponded:  res.FeedStats.FeedsResponded,
		FeedsFailed:     res.FeedStats.FeedsFailed,
		Error:           res.Error,
	}
	e.mu.Lock()
	e.lastFetch = status
	e.mu.Unlock()

	e.metrics.ObserveFetch(metrics.FetchOutcome{
		Success:      res.Success,
		FeedsFailed:  res.FeedStats.FeedsFailed,
		Signals:      res.Signals,
		Unclassified: res.Dropped.Unclassified,
		CategoryCap:  res.Dropped.CategoryCap,
		Duplicates:   len(res.Signals) - added,
	})
}

// Run refreshes immediately and then every interval until ctx ends. With
// a non-positive interval it refreshes once and returns.
func (e *Engine) Run(ctx context.Context, interval time.Duration) {
	e.Refresh(ctx)
	if interval <= 0 {
		return
	}

	ticker := e.clock.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			e.Refresh(ctx)
		}
	}
}

// Subscription delivers a notification after every change to the store.
// Notifications coalesce: a slow reader sees at most one pending.
type Subscription struct {
	ID int
	C  <-chan struct{}
}

// Subscribe registers for change notifications.
func (e *Engine) Subscribe() Subscription {
	ch := make(chan struct{}, 1)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextSub++
	e.subs[e.nextSub] = ch
	return Subscription{ID: e.nextSub, C: ch}
}

// Unsubscribe stops notifications for id and closes its channel.
func (e *Engine) Unsubscribe(id int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if ch, ok := e.subs[id]; ok {
		delete(e.subs, id)
		close(ch)
	}
}

// changed stamps lastUpdated, refreshes gauges and notifies subscribers.
func (e *Engine) changed() {
	now := e.clock.Now()

	e.mu.Lock()
	e.lastUpdated = now
	for _, ch := range e.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	e.mu.Unlock()

	if e.metrics != nil {
		e.metrics.ObserveState(e.Pressure(now).Value, e.store.Len())
	}
}

// ErrNoCollector is reported by Refresh on an engine built without a
// collector.
var ErrNoCollector = errors.New("no feed collector configured")

type noCollector struct{}

func (noCollector) Collect(context.Context) (feed.Result, error) {
	return feed.Result{}, ErrNoCollector
}
