// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-finder/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or reset the source-performance cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show which sources have worked per publisher and era",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := finderConfig().Cache.Path
		if path == "" {
			path = cache.DefaultPath()
		}
		c := cache.Open(path, os.Stderr)
		fmt.Print(c.Summary())
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the cache file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := finderConfig().Cache.Path
		if path == "" {
			path = cache.DefaultPath()
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing cache: %w", err)
		}
		fmt.Println("cache cleared")
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
