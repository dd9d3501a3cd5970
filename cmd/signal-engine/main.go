// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the signal-engine CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/signal-engine/internal/logging"
	"github.com/pdiddy/signal-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// envReplacer maps config keys onto SIGNAL_ENGINE_* variable names.
var envReplacer = strings.NewReplacer(".", "_")

// cfg is the resolved configuration, populated before any subcommand runs.
var cfg types.Config

// rootCmd is the base command for the signal-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "signal-engine",
	Short: "Classify public headlines into systemic-stress signals",
	Long: `signal-engine reads public news feeds, maps headlines onto a fixed
taxonomy of systemic-stress categories, and aggregates the resulting
signals into per-category trends, trailing windows, and a single loop
pressure score.

Headlines are classified in memory and discarded; only the category,
direction, strength, and timestamp of each signal are kept.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := loadConfig()
		if err != nil {
			return err
		}
		cfg = loaded
		logging.Init(os.Stderr, cfg.Log.Level, cfg.Log.Format)
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./signal-engine.yaml or ~/.config/signal-engine/signal-engine.yaml)")
	rootCmd.PersistentFlags().String("taxonomy", "", "taxonomy file in YAML or TOML (default: built-in)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "log format: text or json")

	_ = viper.BindPFlag("engine.taxonomy_path", rootCmd.PersistentFlags().Lookup("taxonomy"))
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

func initConfig() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "Ignoring .env:", err)
	}

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("signal-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "signal-engine"))
		}
	}

	viper.SetEnvPrefix("SIGNAL_ENGINE")
	viper.SetEnvKeyReplacer(envReplacer)
	viper.AutomaticEnv()
	setDefaults(types.DefaultConfig())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
