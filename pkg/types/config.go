// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "paper-finder/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// ResolveConfig holds settings for identity resolution.
type ResolveConfig struct {
	HTTPConfig `yaml:",inline"`

	// CrossrefMailto is appended to CrossRef requests for the polite pool.
	CrossrefMailto string `json:"crossref_mailto,omitempty" yaml:"crossref_mailto,omitempty"`
}

// ValidateConfig holds settings for PDF validation.
type ValidateConfig struct {
	// MinSizeKB is the minimum acceptable PDF size (default 50).
	MinSizeKB int `json:"min_size_kb" yaml:"min_size_kb"`

	// MaxPages bounds how many pages are text-extracted for the identity
	// check (default 5).
	MaxPages int `json:"max_pages" yaml:"max_pages"`
}

// EngineConfig holds settings for the tiered parallel execution engine.
type EngineConfig struct {
	// Workers is the bounded pool width within one tier (default 3).
	Workers int `json:"workers" yaml:"workers"`

	// TierTimeout bounds one tier's total wall time (default 60s).
	TierTimeout time.Duration `json:"tier_timeout" yaml:"tier_timeout"`
}

// UndergroundConfig holds settings for the last-resort bot channel.
type UndergroundConfig struct {
	// Enabled gates the whole tier. Credentials are still required.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// APIID and APIHash are the bot-channel credentials. Both must be
	// present or the adapter reports not-configured without network I/O.
	APIID   string `json:"api_id,omitempty" yaml:"api_id,omitempty"`
	APIHash string `json:"api_hash,omitempty" yaml:"api_hash,omitempty"`

	// RequestsPerHour caps attempts through the sliding window (default 20).
	RequestsPerHour int `json:"requests_per_hour" yaml:"requests_per_hour"`

	// ResponseWait bounds how long one bot interaction may poll (default 30s).
	ResponseWait time.Duration `json:"response_wait" yaml:"response_wait"`
}

// SourcesConfig holds per-source settings and credentials.
type SourcesConfig struct {
	HTTPConfig `yaml:",inline"`

	// UnpaywallEmail enables the Unpaywall adapter.
	UnpaywallEmail string `json:"unpaywall_email,omitempty" yaml:"unpaywall_email,omitempty"`

	// COREAPIKey enables the CORE aggregator adapter.
	COREAPIKey string `json:"core_api_key,omitempty" yaml:"core_api_key,omitempty"`

	// SemanticScholarAPIKey raises Semantic Scholar rate limits; optional.
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty"`

	// SciHubDomains lists mirror hosts in rotation order.
	SciHubDomains []string `json:"scihub_domains,omitempty" yaml:"scihub_domains,omitempty"`

	// LibgenMirrors lists LibGen search hosts in rotation order.
	LibgenMirrors []string `json:"libgen_mirrors,omitempty" yaml:"libgen_mirrors,omitempty"`
}

// CacheConfig holds settings for the smart cache.
type CacheConfig struct {
	// Path is the JSON statistics file (default ~/.paper-finder-cache.json).
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// HistoryConfig holds settings for the acquisition history store.
type HistoryConfig struct {
	// Path is the SQLite database file (default ~/.paper-finder-history.db).
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// FinderConfig groups all component configurations. It is supplied once at
// orchestrator construction; nothing re-reads configuration mid-flight.
type FinderConfig struct {
	Resolve     ResolveConfig     `json:"resolve" yaml:"resolve"`
	Validate    ValidateConfig    `json:"validate" yaml:"validate"`
	Engine      EngineConfig      `json:"engine" yaml:"engine"`
	Sources     SourcesConfig     `json:"sources" yaml:"sources"`
	Underground UndergroundConfig `json:"underground" yaml:"underground"`
	Cache       CacheConfig       `json:"cache" yaml:"cache"`
	History     HistoryConfig     `json:"history" yaml:"history"`
}

// DefaultSciHubDomains is the mirror rotation used when none are configured.
var DefaultSciHubDomains = []string{
	"https://sci-hub.se",
	"https://sci-hub.st",
	"https://sci-hub.ru",
}

// DefaultLibgenMirrors is the LibGen host rotation used when none are configured.
var DefaultLibgenMirrors = []string{
	"http://libgen.is",
	"http://libgen.rs",
	"http://libgen.st",
}

// ApplyDefaults fills zero values with the documented defaults.
func (c *FinderConfig) ApplyDefaults() {
	if c.Resolve.Timeout == 0 {
		c.Resolve.Timeout = 15 * time.Second
	}
	if c.Resolve.UserAgent == "" {
		c.Resolve.UserAgent = "paper-finder/0.1"
	}
	if c.Validate.MinSizeKB == 0 {
		c.Validate.MinSizeKB = 50
	}
	if c.Validate.MaxPages == 0 {
		c.Validate.MaxPages = 5
	}
	if c.Engine.Workers == 0 {
		c.Engine.Workers = 3
	}
	if c.Engine.TierTimeout == 0 {
		c.Engine.TierTimeout = 60 * time.Second
	}
	if c.Sources.Timeout == 0 {
		c.Sources.Timeout = 30 * time.Second
	}
	if c.Sources.UserAgent == "" {
		c.Sources.UserAgent = c.Resolve.UserAgent
	}
	if len(c.Sources.SciHubDomains) == 0 {
		c.Sources.SciHubDomains = DefaultSciHubDomains
	}
	if len(c.Sources.LibgenMirrors) == 0 {
		c.Sources.LibgenMirrors = DefaultLibgenMirrors
	}
	if c.Underground.RequestsPerHour == 0 {
		c.Underground.RequestsPerHour = 20
	}
	if c.Underground.ResponseWait == 0 {
		c.Underground.ResponseWait = 30 * time.Second
	}
}
