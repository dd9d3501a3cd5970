// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var taxonomyCmd = &cobra.Command{
	Use:   "taxonomy",
	Short: "Print the active category taxonomy",
	RunE: func(cmd *cobra.Command, args []string) error {
		tax, err := loadTaxonomy()
		if err != nil {
			return err
		}

		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(tax.Entries())
		}

		fmt.Fprintf(os.Stdout, "%-28s  %-14s  %-12s  %-8s  %s\n", "Category", "Domain", "Effect", "Keywords", "Nodes")
		fmt.Fprintln(os.Stdout, strings.Repeat("-", 96))
		for _, e := range tax.Entries() {
			effect := "stabilizing"
			if e.Accelerating {
				effect = "accelerating"
			}
			fmt.Fprintf(os.Stdout, "%-28s  %-14s  %-12s  %-8d  %s\n",
				e.Category, e.Domain, effect, len(e.Keywords), strings.Join(e.AffectedNodes, ", "))
		}
		fmt.Fprintf(os.Stdout, "\n%d categories\n", tax.Len())
		return nil
	},
}

func init() {
	taxonomyCmd.Flags().Bool("json", false, "output as JSON")
	rootCmd.AddCommand(taxonomyCmd)
}
