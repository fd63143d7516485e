// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-finder/internal/cache"
	"github.com/pdiddy/paper-finder/internal/history"
	"github.com/pdiddy/paper-finder/internal/pipeline"
)

var findCmd = &cobra.Command{
	Use:   "find [references...]",
	Short: "Find and download papers by DOI, arXiv ID, ISBN, URL, or citation",
	Long: `Find resolves each reference to a canonical identifier and searches the
tiered source set until one produces a validated PDF. Free-text citations go
through a bibliographic search; garbage references fail without one.

The PDF and a YAML metadata record are written to the output directory under
a name derived from the identifier.`,
	RunE: runFind,
}

func init() {
	findCmd.Flags().StringP("output", "o", "papers", "output directory for PDFs and metadata records")
	findCmd.Flags().Bool("verbose", false, "print per-source progress")

	rootCmd.AddCommand(findCmd)
}

func runFind(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more references (DOIs, arXiv IDs, ISBNs, URLs, or citations)")
	}

	outputDir, _ := cmd.Flags().GetString("output")
	verbose, _ := cmd.Flags().GetBool("verbose")

	cfg := finderConfig()

	cachePath := cfg.Cache.Path
	if cachePath == "" {
		cachePath = cache.DefaultPath()
	}
	smartCache := cache.Open(cachePath, os.Stderr)

	historyPath := cfg.History.Path
	if historyPath == "" {
		historyPath = history.DefaultPath()
	}
	hist, err := history.Open(historyPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: history disabled: %v\n", err)
		hist = nil
	}
	if hist != nil {
		defer hist.Close()
	}

	opts := pipeline.Options{
		Cache:   smartCache,
		History: hist,
		Output:  os.Stdout,
	}
	if !verbose {
		opts.Output = nil
	}

	finder := pipeline.New(cfg, opts)

	failed := 0
	for _, ref := range args {
		ctx, cancel := context.WithTimeout(cmd.Context(), acquireTimeout)
		res := finder.Acquire(ctx, ref, outputDir)
		cancel()

		if res.Success {
			if res.Filepath != "" {
				fmt.Printf("found:  %s -> %s (%s)\n", ref, res.Filepath, res.Source)
			} else {
				fmt.Printf("found:  %s -> open in browser: %s\n", ref, res.BrowserURL)
			}
			continue
		}

		failed++
		fmt.Printf("failed: %s (%s)\n", ref, res.Error)
		for name, outcome := range res.Attempts {
			fmt.Printf("  %-18s %s\n", name, outcome)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d reference(s) could not be acquired", failed)
	}
	return nil
}
