// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the paper-finder CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paper-finder/internal/secrets"
	"github.com/pdiddy/paper-finder/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns the secret value for key if it exists, or fallback otherwise.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the paper-finder CLI.
var rootCmd = &cobra.Command{
	Use:   "paper-finder",
	Short: "Locate and download scholarly papers and books",
	Long: `paper-finder resolves an arbitrary reference (DOI, arXiv ID, ISBN, URL,
or free-text citation) to a canonical identifier, then searches a tiered set
of sources in parallel until one produces a PDF that validates against the
requested identity. Successful source/publisher pairings are remembered and
tried first on later runs.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./paper-finder.yaml or ~/.config/paper-finder/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("paper-finder")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "paper-finder"))
		}
	}

	viper.SetEnvPrefix("PAPER_FINDER")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// finderConfig assembles the full configuration from viper and loaded
// secrets. Flags are bound by the individual commands.
func finderConfig() types.FinderConfig {
	var cfg types.FinderConfig

	cfg.Resolve.Timeout = viper.GetDuration("resolve.timeout")
	cfg.Resolve.CrossrefMailto = viper.GetString("resolve.crossref_mailto")

	cfg.Validate.MinSizeKB = viper.GetInt("validate.min_size_kb")
	cfg.Validate.MaxPages = viper.GetInt("validate.max_pages")

	cfg.Engine.Workers = viper.GetInt("engine.workers")
	cfg.Engine.TierTimeout = viper.GetDuration("engine.tier_timeout")

	cfg.Sources.Timeout = viper.GetDuration("sources.timeout")
	cfg.Sources.UserAgent = viper.GetString("sources.user_agent")
	cfg.Sources.UnpaywallEmail = secretDefault("unpaywall-email", viper.GetString("sources.unpaywall_email"))
	cfg.Sources.COREAPIKey = secretDefault("core-api-key", viper.GetString("sources.core_api_key"))
	cfg.Sources.SemanticScholarAPIKey = secretDefault("semantic-scholar-api-key", viper.GetString("sources.semantic_scholar_api_key"))
	cfg.Sources.SciHubDomains = viper.GetStringSlice("sources.scihub_domains")
	cfg.Sources.LibgenMirrors = viper.GetStringSlice("sources.libgen_mirrors")

	cfg.Underground.Enabled = viper.GetBool("underground.enabled")
	cfg.Underground.APIID = secretDefault("telegram-api-id", viper.GetString("underground.api_id"))
	cfg.Underground.APIHash = secretDefault("telegram-api-hash", viper.GetString("underground.api_hash"))
	cfg.Underground.RequestsPerHour = viper.GetInt("underground.requests_per_hour")
	cfg.Underground.ResponseWait = viper.GetDuration("underground.response_wait")

	cfg.Cache.Path = viper.GetString("cache.path")
	cfg.History.Path = viper.GetString("history.path")

	cfg.ApplyDefaults()
	return cfg
}

// acquireTimeout bounds one whole acquire call across all tiers.
const acquireTimeout = 10 * time.Minute

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
