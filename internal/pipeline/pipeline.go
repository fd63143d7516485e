// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline composes resolution, tiered acquisition, validation,
// caching and bookkeeping into the end-to-end acquire operation.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-finder/internal/cache"
	"github.com/pdiddy/paper-finder/internal/engine"
	"github.com/pdiddy/paper-finder/internal/history"
	"github.com/pdiddy/paper-finder/internal/resolve"
	"github.com/pdiddy/paper-finder/internal/source"
	"github.com/pdiddy/paper-finder/internal/underground"
	"github.com/pdiddy/paper-finder/internal/validate"
	"github.com/pdiddy/paper-finder/pkg/types"
)

// tierOrder fixes tier sequencing: cheap open sources first, the serialized
// bot channel strictly last.
var tierOrder = []string{"fast", "medium", "slow"}

// Options carries the injected collaborators. Zero values are usable: a nil
// cache disables reordering and statistics, a nil history store disables
// bookkeeping, a nil session leaves the underground tier not-configured.
type Options struct {
	Cache   *cache.SmartCache
	History *history.Store
	Session underground.Session
	Output  io.Writer

	// Sources overrides the default adapter registry when non-nil.
	Sources []source.Source
}

// Finder is the acquisition orchestrator.
type Finder struct {
	cfg      types.FinderConfig
	resolver *resolve.Resolver
	sources  []source.Source
	bot      *underground.Adapter
	engine   *engine.Engine
	cache    *cache.SmartCache
	history  *history.Store
	out      io.Writer
}

// New builds a Finder. Configuration defaults are applied here; nothing
// re-reads configuration after construction.
func New(cfg types.FinderConfig, opts Options) *Finder {
	cfg.ApplyDefaults()

	out := opts.Output
	if out == nil {
		out = io.Discard
	}

	v := validate.New(cfg.Validate)
	sources := opts.Sources
	if sources == nil {
		sources = source.Registry(cfg.Sources, v)
	}
	return &Finder{
		cfg:      cfg,
		resolver: resolve.New(&http.Client{Timeout: cfg.Resolve.Timeout}, cfg.Resolve),
		sources:  sources,
		bot:      underground.New(cfg.Underground, opts.Session, v),
		engine:   engine.New(cfg.Engine),
		cache:    opts.Cache,
		history:  opts.History,
		out:      out,
	}
}

// Acquire resolves reference and drives the tiered search until one source
// produces a validated PDF in outputDir, or every tier is exhausted. The
// returned result is terminal either way; errors before the search starts
// (unresolvable reference, unusable output directory) surface as failure
// results with an empty attempts map.
func (f *Finder) Acquire(ctx context.Context, reference, outputDir string) types.AcquisitionResult {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return types.FailureResult("", fmt.Sprintf("output directory unusable: %v", err), types.Identity{}, types.Metadata{})
	}

	fmt.Fprintf(f.out, "resolving: %s\n", reference)
	id, meta, err := f.resolver.Resolve(ctx, reference)
	if err != nil {
		res := types.FailureResult("", err.Error(), types.Identity{}, types.Metadata{})
		f.bookkeep(reference, res)
		return res
	}
	fmt.Fprintf(f.out, "identity: %s %s\n", id.Type, id.Normalized)

	return f.acquireResolved(ctx, reference, id, meta, outputDir)
}

// acquireResolved drives the tiered search for an already resolved identity.
func (f *Finder) acquireResolved(ctx context.Context, reference string, id types.Identity, meta types.Metadata, outputDir string) types.AcquisitionResult {
	tiers := f.buildTiers(id, meta, outputDir)
	winner, attempts := f.engine.Run(ctx, tiers)

	if winner == nil {
		sweepStale(outputDir)
		res := f.failureResult(id, meta, attempts)
		f.bookkeep(reference, res)
		return res
	}

	res := f.finalize(reference, id, meta, winner, attempts, outputDir)
	sweepStale(outputDir)
	return res
}

// sweepStale removes leftover candidate and temp files from the output
// directory. An attempt cancelled after its network read can still land a
// whole candidate file that nothing consumes; the winner is renamed to its
// final path before the sweep, so only orphans match.
func sweepStale(dir string) {
	for _, pattern := range []string{".candidate-*.pdf", ".download-*.tmp"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			continue
		}
		for _, m := range matches {
			os.Remove(m)
		}
	}
}

// buildTiers groups the eligible adapters into engine tiers, applies the
// smart cache's reordering within each tier, and appends the underground
// tier last.
func (f *Finder) buildTiers(id types.Identity, meta types.Metadata, outputDir string) []engine.Tier {
	eligible := source.ForIdentity(f.sources, id)

	byTier := make(map[string][]source.Source)
	for _, s := range eligible {
		byTier[s.Tier()] = append(byTier[s.Tier()], s)
	}

	var tiers []engine.Tier
	for _, name := range tierOrder {
		members := byTier[name]
		if len(members) == 0 {
			continue
		}

		ordered := members
		if f.cache != nil {
			names := make([]string, len(members))
			index := make(map[string]source.Source, len(members))
			for i, s := range members {
				names[i] = s.Name()
				index[s.Name()] = s
			}
			ordered = ordered[:0:0]
			for _, n := range f.cache.Reorder(names, meta.Publisher, meta.Year) {
				ordered = append(ordered, index[n])
			}
		}

		tier := engine.Tier{Name: name}
		for _, s := range ordered {
			tier.Methods = append(tier.Methods, engine.Method{
				Name: s.Name(),
				Run:  f.thunk(s, id, meta, outputDir),
			})
		}
		tiers = append(tiers, tier)
	}

	if f.bot.Supports(id) {
		tiers = append(tiers, engine.Tier{
			Name: "underground",
			Methods: []engine.Method{{
				Name: f.bot.Name(),
				Run:  f.thunk(f.bot, id, meta, outputDir),
			}},
		})
	}
	return tiers
}

func (f *Finder) thunk(s source.Source, id types.Identity, meta types.Metadata, outputDir string) engine.Thunk {
	return func(ctx context.Context) types.AcquisitionResult {
		fmt.Fprintf(f.out, "trying: %s\n", s.Name())
		return s.TryAcquire(ctx, id, meta, outputDir)
	}
}

// finalize promotes the winning candidate file to its deterministic final
// path, writes the metadata record, and feeds the cache and history.
func (f *Finder) finalize(reference string, id types.Identity, meta types.Metadata, winner *engine.Winner, attempts map[string]string, outputDir string) types.AcquisitionResult {
	res := winner.Result
	res.Attempts = attempts

	slug := resolve.Slug(id)
	if res.Filepath != "" {
		finalPath := filepath.Join(outputDir, slug+".pdf")
		if err := os.Rename(res.Filepath, finalPath); err != nil {
			os.Remove(res.Filepath)
			res = types.FailureResult(winner.Method, fmt.Sprintf("moving candidate into place: %v", err), id, meta)
			res.Attempts = attempts
			f.bookkeep(reference, res)
			return res
		}
		res.Filepath = finalPath

		record := types.Record{
			ID:         slug,
			Identity:   id,
			Metadata:   meta,
			PDFPath:    finalPath,
			Source:     winner.Method,
			AcquiredAt: time.Now().UTC(),
			Attempts:   attempts,
		}
		if err := writeRecord(record, filepath.Join(outputDir, slug+".yaml")); err != nil {
			fmt.Fprintf(f.out, "warning: could not write metadata record: %v\n", err)
		}
	}

	if f.cache != nil {
		f.cache.RecordAttempt(meta.Publisher, meta.Year, winner.Method, true)
	}
	f.bookkeep(reference, res)

	fmt.Fprintf(f.out, "acquired: %s (%s)\n", slug, winner.Method)
	return res
}

// failureResult builds the all-tiers-exhausted shape. The single Error field
// carries the most actionable message; the full per-source log stays in
// Attempts.
func (f *Finder) failureResult(id types.Identity, meta types.Metadata, attempts map[string]string) types.AcquisitionResult {
	if f.cache != nil {
		f.cache.RecordAttempt(meta.Publisher, meta.Year, "", false)
	}

	res := types.FailureResult("", mostActionable(attempts), id, meta)
	res.Attempts = attempts
	return res
}

// mostActionable picks the failure message the user can do something about:
// a locked session or exhausted rate budget beats generic download noise.
func mostActionable(attempts map[string]string) string {
	classes := []types.FailureClass{
		types.FailSessionLocked,
		types.FailRateLimited,
		types.FailValidation,
		types.FailDownload,
	}
	for _, class := range classes {
		for name, outcome := range attempts {
			if containsClass(outcome, class) {
				return fmt.Sprintf("%s: %s", name, string(class))
			}
		}
	}
	return "all sources exhausted"
}

func containsClass(outcome string, class types.FailureClass) bool {
	return strings.Contains(outcome, string(class))
}

func (f *Finder) bookkeep(reference string, res types.AcquisitionResult) {
	if f.history == nil {
		return
	}
	err := f.history.Record(history.Entry{
		ID:         uuid.NewString(),
		Reference:  reference,
		Identity:   res.Identity,
		Success:    res.Success,
		Source:     res.Source,
		Filepath:   res.Filepath,
		Error:      res.Error,
		Attempts:   res.Attempts,
		AcquiredAt: time.Now().UTC(),
	})
	if err != nil {
		fmt.Fprintf(f.out, "warning: could not record history: %v\n", err)
	}
}

func writeRecord(r types.Record, path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshaling record: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
