// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/signal-engine/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print or export recorded loop pressure readings",
	Long: `History reads the loop pressure readings that serve --history records
after each successful refresh. Readings are printed as YAML or JSON, or
written to --out. Use --prune to delete readings older than a duration.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().String("since", "", "only readings newer than a duration (24h) or RFC 3339 time")
	historyCmd.Flags().String("format", history.FormatYAML, "output format: yaml or json")
	historyCmd.Flags().String("out", "", "write to this file instead of stdout")
	historyCmd.Flags().Duration("prune", 0, "delete readings older than this duration, then exit")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	h, err := history.NewStore(cfg.History.Path)
	if err != nil {
		return err
	}
	defer h.Close()

	ctx := cmd.Context()
	now := time.Now()

	if prune, _ := cmd.Flags().GetDuration("prune"); prune > 0 {
		n, err := h.Prune(ctx, now.Add(-prune))
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Pruned %d reading(s) older than %s\n", n, prune)
		return nil
	}

	sinceFlag, _ := cmd.Flags().GetString("since")
	since, err := history.ParseSince(sinceFlag, now)
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")
	out, _ := cmd.Flags().GetString("out")

	if out != "" {
		switch format {
		case history.FormatYAML:
			err = h.ExportYAML(ctx, since, out)
		case history.FormatJSON:
			err = h.ExportJSON(ctx, since, out)
		default:
			return fmt.Errorf("unsupported format %q: use yaml or json", format)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Exported to %s\n", out)
		return nil
	}

	points, err := h.Recent(ctx, since)
	if err != nil {
		return err
	}
	return history.Encode(os.Stdout, points, format)
}
