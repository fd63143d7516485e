// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-finder/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past acquisition attempts",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "number of entries to show")
	historyCmd.Flags().String("identity", "", "filter by normalized identifier")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	path := finderConfig().History.Path
	if path == "" {
		path = history.DefaultPath()
	}

	store, err := history.Open(path)
	if err != nil {
		return fmt.Errorf("opening history: %w", err)
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	identity, _ := cmd.Flags().GetString("identity")

	var entries []history.Entry
	if identity != "" {
		entries, err = store.FindByIdentity(identity)
	} else {
		entries, err = store.List(limit)
	}
	if err != nil {
		return fmt.Errorf("reading history: %w", err)
	}

	if len(entries) == 0 {
		fmt.Println("no history")
		return nil
	}

	for _, e := range entries {
		status := "failed"
		detail := e.Error
		if e.Success {
			status = "ok"
			detail = fmt.Sprintf("%s -> %s", e.Source, e.Filepath)
		}
		fmt.Printf("%s  %-6s  %-40s  %s\n",
			e.AcquiredAt.Local().Format("2006-01-02 15:04"), status, e.Reference, detail)
	}
	return nil
}
