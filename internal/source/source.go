// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package source implements the acquisition adapters. Every external system
// the finder can pull a PDF from is wrapped in a Source with a uniform
// contract: given a resolved identity, either produce a validated file in
// the destination directory or report a classified failure. Raw errors never
// escape an adapter.
package source

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/multierr"

	"github.com/pdiddy/paper-finder/internal/httputil"
	"github.com/pdiddy/paper-finder/internal/validate"
	"github.com/pdiddy/paper-finder/pkg/types"
)

// Source is one acquisition adapter. TryAcquire is synchronous and owns its
// network calls end to end; the execution engine provides concurrency by
// running several Sources in parallel workers.
type Source interface {
	// Name identifies the adapter in attempt maps and cache statistics.
	Name() string

	// Tier returns the scheduling tier: "fast", "medium" or "slow".
	Tier() string

	// Supports reports whether the adapter can act on this identity type.
	Supports(id types.Identity) bool

	// TryAcquire attempts to produce a validated PDF in destDir. The
	// returned result carries a FailureClass string on failure; the file,
	// when present, has a unique candidate name and is already validated.
	TryAcquire(ctx context.Context, id types.Identity, meta types.Metadata, destDir string) types.AcquisitionResult
}

// candidateFunc discovers download URLs for an identity. Implementations may
// call the network; pure pattern generators just build strings.
type candidateFunc func(ctx context.Context, id types.Identity, meta types.Metadata) ([]string, error)

// urlSource adapts the candidate-URL capability to the direct contract:
// download each candidate in order, validate, first valid file wins,
// rejected files are removed.
type urlSource struct {
	name       string
	tier       string
	trust      validate.TrustClass
	supports   func(types.Identity) bool
	configured func() string // non-empty return is the not-configured reason
	candidates candidateFunc
	dl         *Downloader
}

func (s *urlSource) Name() string { return s.name }
func (s *urlSource) Tier() string { return s.tier }

func (s *urlSource) Supports(id types.Identity) bool {
	if s.supports == nil {
		return id.Type == types.TypeDOI
	}
	return s.supports(id)
}

func (s *urlSource) TryAcquire(ctx context.Context, id types.Identity, meta types.Metadata, destDir string) types.AcquisitionResult {
	if s.configured != nil {
		if reason := s.configured(); reason != "" {
			return types.FailureResult(s.name, string(types.FailNotConfigured)+": "+reason, id, meta)
		}
	}

	urls, err := s.candidates(ctx, id, meta)
	if err != nil {
		return types.FailureResult(s.name, string(types.FailNoCandidates)+": "+err.Error(), id, meta)
	}
	if len(urls) == 0 {
		return types.ClassFailure(s.name, types.FailNoCandidates, id, meta)
	}

	var errs error
	downloaded := false
	for _, u := range urls {
		if ctx.Err() != nil {
			errs = multierr.Append(errs, ctx.Err())
			break
		}
		path, err := s.dl.Fetch(ctx, u, destDir)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", u, err))
			continue
		}
		downloaded = true
		if err := s.dl.Validator.Accept(path, id, meta, s.trust); err != nil {
			os.Remove(path)
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", u, err))
			continue
		}
		return types.SuccessResult(s.name, path, id, meta)
	}

	class := types.FailDownload
	if downloaded {
		class = types.FailValidation
	}
	msg := string(class)
	if errs != nil {
		msg += ": " + errs.Error()
	}
	return types.FailureResult(s.name, msg, id, meta)
}

// Registry builds the full adapter set from configuration. Tier membership
// and trust class are fixed per adapter; credentials only decide whether an
// adapter reports not-configured at attempt time, never whether it is
// scheduled.
func Registry(cfg types.SourcesConfig, v *validate.Validator) []Source {
	client := &http.Client{Timeout: cfg.Timeout}
	if client.Timeout == 0 {
		client.Timeout = 30 * time.Second
	}
	dl := &Downloader{
		Client:    client,
		Validator: v,
		UserAgent: cfg.UserAgent,
		Limiter:   httputil.NewHostLimiter(2, 2),
	}

	return []Source{
		NewDirectURL(dl),
		NewArxiv(dl),
		NewBiorxiv(dl),
		NewOpenAlex(dl, cfg.UserAgent),
		NewUnpaywall(dl, cfg.UnpaywallEmail),
		NewEuropePMC(dl),
		NewSemanticScholar(dl, cfg.SemanticScholarAPIKey),
		NewCORE(dl, cfg.COREAPIKey),
		NewCrossrefLinks(dl),
		NewOpenLibrary(dl),
		NewPublisherPatterns(dl),
		NewSciHub(dl, cfg.SciHubDomains),
		NewLibgen(dl, cfg.LibgenMirrors),
	}
}

// ForIdentity filters the registry down to adapters that can act on the
// identity, preserving order.
func ForIdentity(sources []Source, id types.Identity) []Source {
	var out []Source
	for _, s := range sources {
		if s.Supports(id) {
			out = append(out, s)
		}
	}
	return out
}
