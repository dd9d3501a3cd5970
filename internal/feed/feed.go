// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package feed fetches headline items from RSS and Atom sources.
//
// Every source is fetched independently. A network error, a non-2xx
// status or a malformed document marks that one source as failed; the
// batch always completes.
package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/pdiddy/signal-engine/internal/httputil"
	"github.com/pdiddy/signal-engine/pkg/types"
)

// ErrNoSources is returned by Collect when no sources are configured.
var ErrNoSources = errors.New("no feed sources configured")

// SourceStatus is the outcome of fetching one source.
type SourceStatus struct {
	Label string `json:"label" yaml:"label"`
	URL   string `json:"url" yaml:"url"`
	Items int    `json:"items" yaml:"items"`
	Err   string `json:"error,omitempty" yaml:"error,omitempty"`
}

// OK reports whether the source responded with a parseable document.
func (s SourceStatus) OK() bool { return s.Err == "" }

// Result is the outcome of one collection pass.
type Result struct {
	TotalFeeds     int
	FeedsResponded int
	FeedsFailed    int
	Items          []Item

	// SourceBreakdown counts items per source label across all
	// responding sources.
	SourceBreakdown map[string]int

	// Sources holds per-source outcomes in configuration order.
	Sources []SourceStatus
}

// Collector fetches a configured list of sources.
type Collector struct {
	client  *http.Client
	cfg     types.FeedConfig
	limiter *rate.Limiter
}

// NewCollector returns a collector for cfg. A nil client uses
// http.DefaultClient.
func NewCollector(cfg types.FeedConfig, client *http.Client) *Collector {
	if client == nil {
		client = http.DefaultClient
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	return &Collector{
		client:  client,
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Sources returns the configured sources with labels filled in.
func (c *Collector) Sources() []types.Source {
	out := make([]types.Source, len(c.cfg.Sources))
	for i, s := range c.cfg.Sources {
		if s.Label == "" {
			s.Label = LabelFor(s.URL)
		}
		out[i] = s
	}
	return out
}

// Collect fetches every source, at most cfg.Concurrency at a time, and
// returns the flattened items in source order. The only error it
// returns is ErrNoSources; per-source failures are counted in the result.
func (c *Collector) Collect(ctx context.Context) (Result, error) {
	sources := c.Sources()
	if len(sources) == 0 {
		return Result{}, ErrNoSources
	}

	statuses := make([]SourceStatus, len(sources))
	items := make([][]Item, len(sources))

	var g errgroup.Group
	if c.cfg.Concurrency > 0 {
		g.SetLimit(c.cfg.Concurrency)
	}
	for i, src := range sources {
		g.Go(func() error {
			got, err := c.fetch(ctx, src)
			statuses[i] = SourceStatus{Label: src.Label, URL: src.URL, Items: len(got)}
			if err != nil {
				statuses[i].Err = err.Error()
				slog.Warn("feed source failed", "source", src.Label, "url", src.URL, "error", err)
				return nil
			}
			items[i] = got
			return nil
		})
	}
	g.Wait()

	res := Result{
		TotalFeeds:      len(sources),
		SourceBreakdown: make(map[string]int),
		Sources:         statuses,
	}
	for i, st := range statuses {
		if !st.OK() {
			res.FeedsFailed++
			continue
		}
		res.FeedsResponded++
		res.SourceBreakdown[st.Label] += st.Items
		res.Items = append(res.Items, items[i]...)
	}

	slog.Info("feeds collected",
		"total", res.TotalFeeds, "responded", res.FeedsResponded,
		"failed", res.FeedsFailed, "items", len(res.Items))
	return res, nil
}

func (c *Collector) fetch(ctx context.Context, src types.Source) ([]Item, error) {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	ua := c.cfg.UserAgent
	if ua == "" {
		ua = types.DefaultUserAgent
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8")

	start := time.Now()
	resp, err := httputil.DoWithRetry(ctx, c.client, req, c.cfg.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("requesting %s: %w", src.Label, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s returned HTTP %d", src.Label, resp.StatusCode)
	}

	items, err := Parse(resp.Body, src.Label, c.cfg.MaxItemsPerSource)
	if err != nil {
		return nil, err
	}
	slog.Debug("feed fetched", "source", src.Label, "items", len(items), "elapsed", time.Since(start))
	return items, nil
}
