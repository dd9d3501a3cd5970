// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"net/url"
	"time"
)

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout bounds a single source request, including retries.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the identifying User-Agent header sent to feeds.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MaxRetries is the retry budget for 429/503 responses (default 2).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// Source is one external headline feed.
type Source struct {
	// Label groups sources in the per-source breakdown (e.g. "BBC").
	// Derived from the URL host when empty.
	Label string `json:"label" yaml:"label" mapstructure:"label"`
	URL   string `json:"url" yaml:"url" mapstructure:"url"`
}

// FeedConfig holds settings for the feed collector and fetch pipeline.
type FeedConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	Sources []Source `json:"sources" yaml:"sources" mapstructure:"sources"`

	// MaxItemsPerSource caps the items parsed from one source (default 10).
	MaxItemsPerSource int `json:"max_items_per_source" yaml:"max_items_per_source" mapstructure:"max_items_per_source"`

	// MaxPerCategory caps the signals admitted per category in one
	// classification pass (default 3).
	MaxPerCategory int `json:"max_per_category" yaml:"max_per_category" mapstructure:"max_per_category"`

	// Concurrency is the number of sources fetched in parallel (default 4).
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`

	// RequestsPerSecond throttles requests across all sources (default 2).
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// EngineConfig holds settings for the signal engine.
type EngineConfig struct {
	// RefreshInterval is the period of the background fetch; 0 disables it.
	RefreshInterval time.Duration `json:"refresh_interval" yaml:"refresh_interval" mapstructure:"refresh_interval"`

	// StoreCapacity bounds the number of retained signals; 0 is unbounded.
	StoreCapacity int `json:"store_capacity" yaml:"store_capacity" mapstructure:"store_capacity"`

	// TaxonomyPath overrides the embedded taxonomy (YAML or TOML).
	TaxonomyPath string `json:"taxonomy_path" yaml:"taxonomy_path" mapstructure:"taxonomy_path"`

	// SeedPath names a YAML or JSON file of signals loaded at start-up.
	SeedPath string `json:"seed_path" yaml:"seed_path" mapstructure:"seed_path"`
}

// ServerConfig holds settings for the HTTP API.
type ServerConfig struct {
	BindAddress string   `json:"bind_address" yaml:"bind_address" mapstructure:"bind_address"`
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins" mapstructure:"cors_origins"`
}

// HistoryConfig holds settings for the pressure history database.
type HistoryConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Path    string `json:"path" yaml:"path" mapstructure:"path"`
}

// LogConfig selects the structured logger level and format.
type LogConfig struct {
	Level  string `json:"level" yaml:"level" mapstructure:"level"`
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// Config groups all component configurations.
type Config struct {
	Feed    FeedConfig    `json:"feed" yaml:"feed" mapstructure:"feed"`
	Engine  EngineConfig  `json:"engine" yaml:"engine" mapstructure:"engine"`
	Server  ServerConfig  `json:"server" yaml:"server" mapstructure:"server"`
	History HistoryConfig `json:"history" yaml:"history" mapstructure:"history"`
	Log     LogConfig     `json:"log" yaml:"log" mapstructure:"log"`
}

// DefaultUserAgent identifies the collector to upstream feeds.
const DefaultUserAgent = "Mozilla/5.0 (compatible; SignalEngine/1.0)"

// DefaultSources is the built-in list of public business, economy,
// politics and society feeds.
var DefaultSources = []Source{
	{Label: "BBC", URL: "https://feeds.bbci.co.uk/news/business/rss.xml"},
	{Label: "NYT", URL: "https://rss.nytimes.com/services/xml/rss/nyt/Business.xml"},
	{Label: "Al Jazeera", URL: "https://www.aljazeera.com/xml/rss/all.xml"},
	{Label: "CNBC", URL: "https://www.cnbc.com/id/100003114/device/rss/rss.html"},
	{Label: "NPR", URL: "https://feeds.npr.org/1006/rss.xml"},
	{Label: "BBC", URL: "https://feeds.bbci.co.uk/news/technology/rss.xml"},
	{Label: "NYT", URL: "https://rss.nytimes.com/services/xml/rss/nyt/Technology.xml"},
	{Label: "NYT", URL: "https://rss.nytimes.com/services/xml/rss/nyt/Economy.xml"},
	{Label: "BBC", URL: "https://feeds.bbci.co.uk/news/education/rss.xml"},
	{Label: "NYT", URL: "https://rss.nytimes.com/services/xml/rss/nyt/JobMarket.xml"},
	{Label: "BBC", URL: "https://feeds.bbci.co.uk/news/health/rss.xml"},
	{Label: "NYT", URL: "https://rss.nytimes.com/services/xml/rss/nyt/Health.xml"},
	{Label: "BBC", URL: "https://feeds.bbci.co.uk/news/world/rss.xml"},
	{Label: "NYT", URL: "https://rss.nytimes.com/services/xml/rss/nyt/World.xml"},
	{Label: "BBC", URL: "https://feeds.bbci.co.uk/news/politics/rss.xml"},
	{Label: "NPR", URL: "https://feeds.npr.org/1014/rss.xml"},
	{Label: "NYT", URL: "https://rss.nytimes.com/services/xml/rss/nyt/Science.xml"},
	{Label: "BBC", URL: "https://feeds.bbci.co.uk/news/science_and_environment/rss.xml"},
	{Label: "Guardian", URL: "https://www.theguardian.com/business/economics/rss"},
	{Label: "Guardian", URL: "https://www.theguardian.com/technology/rss"},
}

// DefaultConfig returns the configuration used when no file or
// environment override is present.
func DefaultConfig() Config {
	sources := make([]Source, len(DefaultSources))
	copy(sources, DefaultSources)
	return Config{
		Feed: FeedConfig{
			HTTPConfig: HTTPConfig{
				Timeout:    15 * time.Second,
				UserAgent:  DefaultUserAgent,
				MaxRetries: 2,
			},
			Sources:           sources,
			MaxItemsPerSource: 10,
			MaxPerCategory:    3,
			Concurrency:       4,
			RequestsPerSecond: 2,
		},
		Engine: EngineConfig{
			RefreshInterval: 30 * time.Minute,
			StoreCapacity:   10000,
		},
		Server: ServerConfig{
			BindAddress: "127.0.0.1:8080",
			CORSOrigins: []string{"http://localhost:3000"},
		},
		History: HistoryConfig{
			Enabled: false,
			Path:    "data/history.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Feed.Timeout <= 0 {
		return fmt.Errorf("feed.timeout must be positive, got %v", c.Feed.Timeout)
	}
	if c.Feed.MaxItemsPerSource <= 0 {
		return fmt.Errorf("feed.max_items_per_source must be positive, got %d", c.Feed.MaxItemsPerSource)
	}
	if c.Feed.MaxPerCategory <= 0 {
		return fmt.Errorf("feed.max_per_category must be positive, got %d", c.Feed.MaxPerCategory)
	}
	if c.Feed.RequestsPerSecond < 0 {
		return fmt.Errorf("feed.requests_per_second must not be negative, got %v", c.Feed.RequestsPerSecond)
	}
	for i, s := range c.Feed.Sources {
		u, err := url.Parse(s.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("feed.sources[%d]: invalid URL %q", i, s.URL)
		}
	}
	if c.Engine.RefreshInterval < 0 {
		return fmt.Errorf("engine.refresh_interval must not be negative, got %v", c.Engine.RefreshInterval)
	}
	if c.Engine.StoreCapacity < 0 {
		return fmt.Errorf("engine.store_capacity must not be negative, got %d", c.Engine.StoreCapacity)
	}
	if c.History.Enabled && c.History.Path == "" {
		return fmt.Errorf("history.path is required when history is enabled")
	}
	return nil
}
