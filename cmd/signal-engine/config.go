// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/viper"

	"github.com/pdiddy/signal-engine/internal/feed"
	"github.com/pdiddy/signal-engine/internal/taxonomy"
	"github.com/pdiddy/signal-engine/pkg/types"
)

// setDefaults registers every scalar setting so that SIGNAL_ENGINE_*
// variables are visible to Unmarshal even without a config file.
func setDefaults(d types.Config) {
	viper.SetDefault("feed.timeout", d.Feed.Timeout)
	viper.SetDefault("feed.user_agent", d.Feed.UserAgent)
	viper.SetDefault("feed.max_retries", d.Feed.MaxRetries)
	viper.SetDefault("feed.max_items_per_source", d.Feed.MaxItemsPerSource)
	viper.SetDefault("feed.max_per_category", d.Feed.MaxPerCategory)
	viper.SetDefault("feed.concurrency", d.Feed.Concurrency)
	viper.SetDefault("feed.requests_per_second", d.Feed.RequestsPerSecond)

	viper.SetDefault("engine.refresh_interval", d.Engine.RefreshInterval)
	viper.SetDefault("engine.store_capacity", d.Engine.StoreCapacity)
	viper.SetDefault("engine.taxonomy_path", d.Engine.TaxonomyPath)
	viper.SetDefault("engine.seed_path", d.Engine.SeedPath)

	viper.SetDefault("server.bind_address", d.Server.BindAddress)
	viper.SetDefault("server.cors_origins", d.Server.CORSOrigins)

	viper.SetDefault("history.enabled", d.History.Enabled)
	viper.SetDefault("history.path", d.History.Path)

	viper.SetDefault("log.level", d.Log.Level)
	viper.SetDefault("log.format", d.Log.Format)
}

// loadConfig decodes viper's merged settings over the defaults and
// validates the result.
func loadConfig() (types.Config, error) {
	c := types.DefaultConfig()
	if err := viper.Unmarshal(&c); err != nil {
		return types.Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return types.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return c, nil
}

func loadTaxonomy() (*taxonomy.Taxonomy, error) {
	return taxonomy.Load(cfg.Engine.TaxonomyPath)
}

// newCollector builds the feed collector. Per-source deadlines come from
// cfg.Feed.Timeout, so the client itself carries none.
func newCollector() *feed.Collector {
	return feed.NewCollector(cfg.Feed, &http.Client{})
}
