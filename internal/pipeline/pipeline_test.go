// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-finder/internal/cache"
	"github.com/pdiddy/paper-finder/internal/history"
	"github.com/pdiddy/paper-finder/internal/source"
	"github.com/pdiddy/paper-finder/pkg/types"
)

var validPDF = []byte("%PDF-1.4\n" + strings.Repeat("x", 2048))

// fakeSource is a canned adapter; succeed decides whether it writes a
// candidate file or reports a download failure.
type fakeSource struct {
	name    string
	tier    string
	succeed bool
	delay   time.Duration
	calls   int32
}

func (f *fakeSource) Name() string                    { return f.name }
func (f *fakeSource) Tier() string                    { return f.tier }
func (f *fakeSource) Supports(id types.Identity) bool { return true }

func (f *fakeSource) TryAcquire(ctx context.Context, id types.Identity, meta types.Metadata, destDir string) types.AcquisitionResult {
	atomic.AddInt32(&f.calls, 1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return types.FailureResult(f.name, "cancelled", id, meta)
		}
	}
	if !f.succeed {
		return types.FailureResult(f.name, string(types.FailDownload)+": HTTP 404", id, meta)
	}

	path := filepath.Join(destDir, ".candidate-"+f.name+".pdf")
	if err := os.WriteFile(path, validPDF, 0o644); err != nil {
		return types.FailureResult(f.name, err.Error(), id, meta)
	}
	return types.SuccessResult(f.name, path, id, meta)
}

func (f *fakeSource) callCount() int32 { return atomic.LoadInt32(&f.calls) }

// fakeBotSession satisfies underground.Session.
type fakeBotSession struct {
	calls int32
}

func (f *fakeBotSession) Exchange(ctx context.Context, query, destDir string) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	path := filepath.Join(destDir, ".candidate-bot.pdf")
	return path, os.WriteFile(path, validPDF, 0o644)
}

// offlineConfig keeps metadata lookups from leaving the process: the
// resolver's HTTP client times out immediately and metadata failures are
// non-fatal.
func offlineConfig() types.FinderConfig {
	cfg := types.FinderConfig{}
	cfg.Resolve.Timeout = time.Millisecond
	cfg.Validate.MinSizeKB = 1
	cfg.Engine.TierTimeout = 5 * time.Second
	return cfg
}

func TestAcquireFastTierSuccess(t *testing.T) {
	fast := &fakeSource{name: "fast-a", tier: "fast", succeed: true}
	f := New(offlineConfig(), Options{Sources: []source.Source{fast}})

	out := t.TempDir()
	res := f.Acquire(context.Background(), "10.1038/nature12373", out)
	require.True(t, res.Success, "unexpected failure: %s", res.Error)
	assert.Equal(t, "fast-a", res.Source)

	// Candidate promoted to the deterministic final path.
	finalPDF := filepath.Join(out, "10.1038-nature12373.pdf")
	assert.Equal(t, finalPDF, res.Filepath)
	assert.FileExists(t, finalPDF)

	// Metadata record written beside it.
	assert.FileExists(t, filepath.Join(out, "10.1038-nature12373.yaml"))

	assert.Equal(t, "success", res.Attempts["fast-a"])
}

func TestAcquireAdvancesThroughTiers(t *testing.T) {
	fast := &fakeSource{name: "fast-a", tier: "fast"}
	medium := &fakeSource{name: "medium-a", tier: "medium", succeed: true}
	slow := &fakeSource{name: "slow-a", tier: "slow", succeed: true}
	f := New(offlineConfig(), Options{Sources: []source.Source{fast, medium, slow}})

	res := f.Acquire(context.Background(), "10.1038/nature12373", t.TempDir())
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "medium-a", res.Source)

	// The failing fast tier ran; the slow tier never started.
	assert.Contains(t, res.Attempts["fast-a"], "failed")
	assert.EqualValues(t, 1, fast.callCount())
	assert.EqualValues(t, 0, slow.callCount())
}

func TestAcquireExhaustionListsEveryAttempt(t *testing.T) {
	fast := &fakeSource{name: "fast-a", tier: "fast"}
	slow := &fakeSource{name: "slow-a", tier: "slow"}
	f := New(offlineConfig(), Options{Sources: []source.Source{fast, slow}})

	res := f.Acquire(context.Background(), "10.1038/nature12373", t.TempDir())
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, string(types.FailDownload))
	assert.Len(t, res.Attempts, 3) // both fakes plus the unconfigured underground tier
	assert.Contains(t, res.Attempts["underground"], string(types.FailNotConfigured))
}

func TestUndergroundRunsOnlyAfterExhaustion(t *testing.T) {
	cfg := offlineConfig()
	cfg.Underground = types.UndergroundConfig{
		Enabled: true,
		APIID:   "1",
		APIHash: "h",
	}

	sess := &fakeBotSession{}
	fast := &fakeSource{name: "fast-a", tier: "fast", succeed: true}
	f := New(cfg, Options{Sources: []source.Source{fast}, Session: sess})

	// A fast-tier success must never reach the bot.
	res := f.Acquire(context.Background(), "10.1038/nature12373", t.TempDir())
	require.True(t, res.Success, res.Error)
	assert.EqualValues(t, 0, atomic.LoadInt32(&sess.calls))

	// With the fast tier failing, the bot is the last resort and wins.
	failing := &fakeSource{name: "fast-b", tier: "fast"}
	f = New(cfg, Options{Sources: []source.Source{failing}, Session: sess})
	res = f.Acquire(context.Background(), "10.1016/j.cell.2020.01.001", t.TempDir())
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "underground", res.Source)
	assert.EqualValues(t, 1, atomic.LoadInt32(&sess.calls))
	assert.Contains(t, res.Attempts["fast-b"], "failed")
}

func TestRateLimitSurfacesAsActionableError(t *testing.T) {
	cfg := offlineConfig()
	cfg.Underground = types.UndergroundConfig{
		Enabled:         true,
		APIID:           "1",
		APIHash:         "h",
		RequestsPerHour: 1,
	}

	sess := &fakeBotSession{}
	failing := &fakeSource{name: "fast-a", tier: "fast"}
	f := New(cfg, Options{Sources: []source.Source{failing}, Session: sess})

	out := t.TempDir()
	res := f.Acquire(context.Background(), "10.1000/first", out)
	require.True(t, res.Success, res.Error)

	res = f.Acquire(context.Background(), "10.1000/second", out)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, string(types.FailRateLimited))
}

func TestAcquireDirectURLReference(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write(validPDF)
	}))
	defer srv.Close()

	// Default registry: a URL-typed identity must reach a real adapter
	// instead of skipping every tier.
	f := New(offlineConfig(), Options{})

	out := t.TempDir()
	res := f.Acquire(context.Background(), srv.URL+"/paper.pdf", out)
	require.True(t, res.Success, "unexpected failure: %s", res.Error)
	assert.Equal(t, "direct-url", res.Source)
	assert.Equal(t, "success", res.Attempts["direct-url"])
	assert.FileExists(t, filepath.Join(out, "paper.pdf"))
}

func TestAcquireURLFailureListsAttempt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := New(offlineConfig(), Options{})

	res := f.Acquire(context.Background(), srv.URL+"/gone", t.TempDir())
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Attempts, "a failed URL acquisition must still report what was tried")
	assert.Contains(t, res.Attempts["direct-url"], string(types.FailDownload))
}

func TestStaleCandidatesSweptAfterSuccess(t *testing.T) {
	fast := &fakeSource{name: "fast-a", tier: "fast", succeed: true}
	f := New(offlineConfig(), Options{Sources: []source.Source{fast}})

	// A sibling cancelled after its network read leaves a whole candidate
	// file that nothing consumes.
	out := t.TempDir()
	stale := filepath.Join(out, ".candidate-abandoned.pdf")
	partial := filepath.Join(out, ".download-42.tmp")
	require.NoError(t, os.WriteFile(stale, validPDF, 0o644))
	require.NoError(t, os.WriteFile(partial, []byte("partial body"), 0o644))

	res := f.Acquire(context.Background(), "10.1038/nature12373", out)
	require.True(t, res.Success, res.Error)
	assert.FileExists(t, res.Filepath)
	assert.NoFileExists(t, stale)
	assert.NoFileExists(t, partial)
}

func TestStaleCandidatesSweptOnExhaustion(t *testing.T) {
	failing := &fakeSource{name: "fast-a", tier: "fast"}
	f := New(offlineConfig(), Options{Sources: []source.Source{failing}})

	out := t.TempDir()
	stale := filepath.Join(out, ".candidate-abandoned.pdf")
	require.NoError(t, os.WriteFile(stale, validPDF, 0o644))

	res := f.Acquire(context.Background(), "10.1038/nature12373", out)
	assert.False(t, res.Success)
	assert.NoFileExists(t, stale)
}

func TestUnresolvableReferenceFails(t *testing.T) {
	f := New(offlineConfig(), Options{Sources: []source.Source{}})

	res := f.Acquire(context.Background(), "12345", t.TempDir())
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "unresolved identity")
}

func TestAcquireFeedsCacheAndHistory(t *testing.T) {
	dir := t.TempDir()
	c := cache.Open(filepath.Join(dir, "cache.json"), io.Discard)
	h, err := history.Open(filepath.Join(dir, "history.db"))
	require.NoError(t, err)
	defer h.Close()

	fast := &fakeSource{name: "fast-a", tier: "fast", succeed: true}
	f := New(offlineConfig(), Options{Sources: []source.Source{fast}, Cache: c, History: h})

	res := f.Acquire(context.Background(), "10.1038/nature12373", t.TempDir())
	require.True(t, res.Success, res.Error)

	entries, err := h.List(10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Success)
	assert.Equal(t, "fast-a", entries[0].Source)
	assert.Equal(t, "10.1038/nature12373", entries[0].Identity.Normalized)

	assert.Contains(t, c.Summary(), "1")
}

func TestCacheReordersWinningMethodToFront(t *testing.T) {
	dir := t.TempDir()
	c := cache.Open(filepath.Join(dir, "cache.json"), io.Discard)

	// Teach the cache that fast-b wins for this publisher.
	for i := 0; i < 3; i++ {
		c.RecordAttempt("Nature Portfolio", 2021, "fast-b", true)
	}

	ranFirst := make(chan string, 2)
	a := &recordingSource{name: "fast-a", tier: "fast", ran: ranFirst}
	b := &recordingSource{name: "fast-b", tier: "fast", ran: ranFirst}

	cfg := offlineConfig()
	cfg.Engine.Workers = 1 // serialize so submission order is observable
	f := New(cfg, Options{Sources: []source.Source{a, b}, Cache: c})

	f.acquireResolved(context.Background(), "ref",
		types.Identity{Type: types.TypeDOI, Normalized: "10.1038/x"},
		types.Metadata{Publisher: "Nature Portfolio", Year: 2021},
		t.TempDir())

	assert.Equal(t, "fast-b", <-ranFirst, "cached best method must be submitted first")
}

// recordingSource reports its name on first run, then fails.
type recordingSource struct {
	name string
	tier string
	ran  chan string
}

func (r *recordingSource) Name() string                    { return r.name }
func (r *recordingSource) Tier() string                    { return r.tier }
func (r *recordingSource) Supports(id types.Identity) bool { return true }

func (r *recordingSource) TryAcquire(ctx context.Context, id types.Identity, meta types.Metadata, destDir string) types.AcquisitionResult {
	select {
	case r.ran <- r.name:
	default:
	}
	return types.FailureResult(r.name, "nope", id, meta)
}
