// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/signal-engine/internal/aggregate"
	"github.com/pdiddy/signal-engine/internal/store"
	"github.com/pdiddy/signal-engine/internal/taxonomy"
	"github.com/pdiddy/signal-engine/pkg/types"
)

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Aggregate a signal file into trends, windows, and loop pressure",
	Long: `Aggregate reads a YAML or JSON file with a top-level "signals" list and
prints the per-category aggregates, the 7/30/90 day windows, and the loop
pressure, evaluated at --now (default: the current time).`,
	RunE: runAggregate,
}

func init() {
	aggregateCmd.Flags().String("signals", "", "signal file (.yaml or .json)")
	aggregateCmd.Flags().String("now", "", "evaluation time in RFC 3339 (default: now)")
	aggregateCmd.Flags().Bool("json", false, "output as JSON")
	_ = aggregateCmd.MarkFlagRequired("signals")

	rootCmd.AddCommand(aggregateCmd)
}

type aggregateReport struct {
	AggregatedSignals   []types.AggregatedSignal   `json:"aggregatedSignals"`
	TimeWindowedSignals []types.TimeWindowedSignal `json:"timeWindowedSignals"`
	types.LoopPressure
}

func runAggregate(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("signals")
	nowFlag, _ := cmd.Flags().GetString("now")

	now := time.Now()
	if nowFlag != "" {
		t, err := time.Parse(time.RFC3339, nowFlag)
		if err != nil {
			return fmt.Errorf("--now: %w", err)
		}
		now = t
	}

	tax, err := loadTaxonomy()
	if err != nil {
		return err
	}
	signals, err := store.ReadFile(path)
	if err != nil {
		return err
	}

	// Merging validates every signal and re-derives weight and nodes.
	st := store.NewMemoryStore(tax)
	if _, err := st.Merge(signals); err != nil {
		return err
	}

	report := buildReport(tax, st.Snapshot(), now)

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	printReport(os.Stdout, report)
	return nil
}

func buildReport(tax *taxonomy.Taxonomy, signals []types.Signal, now time.Time) aggregateReport {
	aggs := aggregate.Aggregate(tax, signals, now)
	return aggregateReport{
		AggregatedSignals:   aggs,
		TimeWindowedSignals: aggregate.Windowed(tax, signals, now),
		LoopPressure:        aggregate.LoopPressure(tax, aggs),
	}
}

func printReport(w io.Writer, r aggregateReport) {
	fmt.Fprintf(w, "%-28s  %6s  %6s  %10s  %5s  %s\n", "Category", "Net", "Conf", "Trend", "Count", "Nodes")
	for _, a := range r.AggregatedSignals {
		fmt.Fprintf(w, "%-28s  %+6.2f  %6.2f  %10s  %5d  %v\n",
			a.Category, a.NetDirection, a.Confidence, a.Trend, a.SignalCount, a.AffectedNodes)
	}

	fmt.Fprintf(w, "\n%-28s  %14s  %14s  %14s\n", "Window", "7d", "30d", "90d")
	for _, ws := range r.TimeWindowedSignals {
		fmt.Fprintf(w, "%-28s  %s  %s  %s\n", ws.Category, windowCell(ws.Days7), windowCell(ws.Days30), windowCell(ws.Days90))
	}

	fmt.Fprintf(w, "\nLoop pressure: %.3f (%s)\n", r.Value, r.Trend)
}

func windowCell(s types.WindowStats) string {
	return fmt.Sprintf("%+5.2f/%4.2f n=%-2d", s.Direction, s.Confidence, s.SignalCount)
}
