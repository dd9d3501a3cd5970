// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/signal-engine/internal/engine"
	"github.com/pdiddy/signal-engine/internal/history"
	"github.com/pdiddy/signal-engine/internal/metrics"
	"github.com/pdiddy/signal-engine/internal/server"
	"github.com/pdiddy/signal-engine/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API and refresh feeds periodically",
	Long: `Serve starts the HTTP API, fetches feeds immediately and then every
refresh interval, and optionally records loop pressure history in SQLite.
Stop it with Ctrl-C; in-flight requests get five seconds to finish.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default 127.0.0.1:8080)")
	serveCmd.Flags().Duration("refresh-interval", 0, "time between feed refreshes (default 30m)")
	serveCmd.Flags().String("seed", "", "signal file (.yaml or .json) loaded at start-up")
	serveCmd.Flags().Bool("history", false, "record loop pressure history in SQLite")
	serveCmd.Flags().Bool("no-fetch", false, "serve without fetching feeds")

	_ = viper.BindPFlag("server.bind_address", serveCmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("engine.refresh_interval", serveCmd.Flags().Lookup("refresh-interval"))
	_ = viper.BindPFlag("engine.seed_path", serveCmd.Flags().Lookup("seed"))
	_ = viper.BindPFlag("history.enabled", serveCmd.Flags().Lookup("history"))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	tax, err := loadTaxonomy()
	if err != nil {
		return err
	}

	st := store.NewMemoryStore(tax, store.WithCapacity(cfg.Engine.StoreCapacity))
	if cfg.Engine.SeedPath != "" {
		seed, err := store.ReadFile(cfg.Engine.SeedPath)
		if err != nil {
			return err
		}
		added, err := st.Merge(seed)
		if err != nil {
			return fmt.Errorf("loading seed %s: %w", cfg.Engine.SeedPath, err)
		}
		slog.Info("loaded seed signals", "path", cfg.Engine.SeedPath, "added", added)
	}

	m := metrics.New()
	engOpts := []engine.Option{engine.WithMetrics(m), engine.WithMaxPerCategory(cfg.Feed.MaxPerCategory)}
	srvOpts := []server.Option{server.WithMetrics(m), server.WithVersion(version)}

	if cfg.History.Enabled {
		h, err := history.NewStore(cfg.History.Path)
		if err != nil {
			return err
		}
		defer h.Close()
		engOpts = append(engOpts, engine.WithHistory(h))
		srvOpts = append(srvOpts, server.WithHistory(h))
		slog.Info("recording pressure history", "path", h.Path())
	}

	eng := engine.New(tax, st, newCollector(), engOpts...)
	defer eng.Close()
	srv := server.New(cfg.Server, eng, srvOpts...)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })

	if noFetch, _ := cmd.Flags().GetBool("no-fetch"); !noFetch {
		g.Go(func() error {
			slog.Info("refreshing feeds", "sources", len(cfg.Feed.Sources), "interval", cfg.Engine.RefreshInterval)
			eng.Run(gctx, cfg.Engine.RefreshInterval)
			return nil
		})
	}

	return g.Wait()
}
