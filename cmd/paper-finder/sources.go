// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-finder/internal/source"
	"github.com/pdiddy/paper-finder/internal/validate"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the configured source adapters and their tiers",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := finderConfig()
		all := source.Registry(cfg.Sources, validate.New(cfg.Validate))

		for _, tier := range []string{"fast", "medium", "slow"} {
			fmt.Printf("%s:\n", tier)
			for _, s := range all {
				if s.Tier() == tier {
					fmt.Printf("  %s\n", s.Name())
				}
			}
		}

		fmt.Println("underground:")
		state := "disabled"
		if cfg.Underground.Enabled && cfg.Underground.APIID != "" && cfg.Underground.APIHash != "" {
			state = fmt.Sprintf("enabled, %d requests/hour", cfg.Underground.RequestsPerHour)
		}
		fmt.Printf("  underground (%s)\n", state)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}
