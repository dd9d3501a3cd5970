// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/signal-engine/internal/classify"
	"github.com/pdiddy/signal-engine/internal/taxonomy"
)

var classifyCmd = &cobra.Command{
	Use:   "classify [text...]",
	Short: "Classify text against the taxonomy",
	Long: `Classify prints the category, strength, and direction for the given
text. With no arguments it reads standard input and classifies each
non-empty line.`,
	RunE: runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	tax, err := loadTaxonomy()
	if err != nil {
		return err
	}

	if len(args) > 0 {
		printClassification(os.Stdout, tax, strings.Join(args, " "))
		return nil
	}

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		printClassification(os.Stdout, tax, line)
	}
	return scanner.Err()
}

func printClassification(w io.Writer, tax *taxonomy.Taxonomy, text string) {
	c, ok := classify.Classify(tax, text)
	if !ok {
		fmt.Fprintln(w, "no match")
		return
	}
	fmt.Fprintf(w, "%s\t%s\t%s\t(%d keywords)\n", c.Category, c.Strength, classify.InferDirection(text), c.Matches)
}
