// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/pdiddy/signal-engine/internal/pipeline"
	"github.com/pdiddy/signal-engine/pkg/types"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Run one fetch and classification pass over the configured feeds",
	Long: `Fetch retrieves every configured feed, classifies each headline against
the taxonomy, and prints the signals detected. Failing feeds are skipped and
counted; the pass fails only when it cannot run at all.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().Bool("json", false, "print the full fetch result as JSON")
	fetchCmd.Flags().StringSlice("source", nil, "feed URL to fetch instead of the configured list (repeatable)")

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	tax, err := loadTaxonomy()
	if err != nil {
		return err
	}

	if urls, _ := cmd.Flags().GetStringSlice("source"); len(urls) > 0 {
		cfg.Feed.Sources = cfg.Feed.Sources[:0]
		for _, u := range urls {
			cfg.Feed.Sources = append(cfg.Feed.Sources, types.Source{URL: u})
		}
	}

	res := pipeline.Run(cmd.Context(), newCollector(), tax, pipeline.Options{
		MaxPerCategory: cfg.Feed.MaxPerCategory,
	})

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
	} else {
		printFetchSummary(os.Stdout, res)
	}

	if !res.Success {
		return fmt.Errorf("fetch failed: %s", res.Error)
	}
	return nil
}

func printFetchSummary(w io.Writer, res pipeline.FetchResult) {
	if !res.Success {
		fmt.Fprintf(w, "Fetch failed: %s\n", res.Error)
		return
	}

	fs := res.FeedStats
	fmt.Fprintf(w, "Feeds: %d attempted, %d responded, %d failed\n", fs.TotalFeeds, fs.FeedsResponded, fs.FeedsFailed)
	fmt.Fprintf(w, "Items scanned: %d, signals detected: %d (%d unclassified, %d over category cap)\n",
		res.TotalItemsScanned, res.SignalsDetected, res.Dropped.Unclassified, res.Dropped.CategoryCap)

	if len(res.Aggregated) == 0 {
		fmt.Fprintln(w, "No signals detected.")
		return
	}

	categories := make([]types.Category, 0, len(res.Aggregated))
	for c := range res.Aggregated {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })

	fmt.Fprintf(w, "\n%-28s  %5s  %10s  %s\n", "Category", "Count", "Avg weight", "Direction")
	for _, c := range categories {
		s := res.Aggregated[c]
		fmt.Fprintf(w, "%-28s  %5d  %10.2f  %s\n", c, s.Count, s.AvgWeight, s.DominantDirection)
	}
	fmt.Fprintf(w, "\n%s\n", res.Privacy)
}
