// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-finder/internal/validate"
	"github.com/pdiddy/paper-finder/pkg/types"
)

// smallPDF is a structurally valid body for tests running with MinSizeKB 1.
var smallPDF = "%PDF-1.4\n" + strings.Repeat("x", 2048)

func testDownloader(t *testing.T) *Downloader {
	t.Helper()
	return &Downloader{
		Client:    &http.Client{},
		Validator: validate.New(types.ValidateConfig{MinSizeKB: 1, MaxPages: 1}),
		UserAgent: "paper-finder-test/0",
	}
}

func doiIdentity(doi string) types.Identity {
	return types.Identity{Type: types.TypeDOI, Value: doi, Normalized: doi}
}

func TestURLSourceNotConfiguredShortCircuits(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	s := &urlSource{
		name:       "stub",
		tier:       "fast",
		configured: func() string { return "api key not set" },
		candidates: func(ctx context.Context, id types.Identity, meta types.Metadata) ([]string, error) {
			return []string{srv.URL}, nil
		},
		dl: testDownloader(t),
	}

	res := s.TryAcquire(context.Background(), doiIdentity("10.1000/x"), types.Metadata{}, t.TempDir())
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, string(types.FailNotConfigured))
	assert.Equal(t, 0, calls, "not-configured adapters must make zero network calls")
}

func TestURLSourceNoCandidates(t *testing.T) {
	s := &urlSource{
		name: "stub",
		tier: "fast",
		candidates: func(ctx context.Context, id types.Identity, meta types.Metadata) ([]string, error) {
			return nil, nil
		},
		dl: testDownloader(t),
	}

	res := s.TryAcquire(context.Background(), doiIdentity("10.1000/x"), types.Metadata{}, t.TempDir())
	assert.False(t, res.Success)
	assert.Equal(t, string(types.FailNoCandidates), res.Error)
}

func TestURLSourceFirstValidCandidateWins(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/bad":
			http.NotFound(w, r)
		case "/good":
			w.Write([]byte(smallPDF))
		}
	}))
	defer srv.Close()

	s := &urlSource{
		name:  "stub",
		tier:  "fast",
		trust: validate.TrustAddressable,
		candidates: func(ctx context.Context, id types.Identity, meta types.Metadata) ([]string, error) {
			return []string{srv.URL + "/bad", srv.URL + "/good"}, nil
		},
		dl: testDownloader(t),
	}

	dir := t.TempDir()
	res := s.TryAcquire(context.Background(), doiIdentity("10.1000/x"), types.Metadata{}, dir)
	require.True(t, res.Success, "unexpected failure: %s", res.Error)
	assert.Equal(t, "stub", res.Source)
	assert.FileExists(t, res.Filepath)
	assert.Contains(t, res.Filepath, dir)
}

func TestURLSourceRejectedCandidateIsRemoved(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>not a pdf</body></html>"))
	}))
	defer srv.Close()

	s := &urlSource{
		name:  "stub",
		tier:  "fast",
		trust: validate.TrustAddressable,
		candidates: func(ctx context.Context, id types.Identity, meta types.Metadata) ([]string, error) {
			return []string{srv.URL}, nil
		},
		dl: testDownloader(t),
	}

	dir := t.TempDir()
	res := s.TryAcquire(context.Background(), doiIdentity("10.1000/x"), types.Metadata{}, dir)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, string(types.FailValidation))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "rejected candidate file must be cleaned up")
}

func TestURLSourceDownloadFailureClass(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(http.NotFound))
	defer srv.Close()

	s := &urlSource{
		name: "stub",
		tier: "fast",
		candidates: func(ctx context.Context, id types.Identity, meta types.Metadata) ([]string, error) {
			return []string{srv.URL}, nil
		},
		dl: testDownloader(t),
	}

	res := s.TryAcquire(context.Background(), doiIdentity("10.1000/x"), types.Metadata{}, t.TempDir())
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, string(types.FailDownload))
}

func TestForIdentityFiltersByCapability(t *testing.T) {
	cfg := types.SourcesConfig{}
	cfg.UserAgent = "paper-finder-test/0"
	all := Registry(cfg, validate.New(types.ValidateConfig{MinSizeKB: 1}))

	isbn := types.Identity{Type: types.TypeISBN, Normalized: "9780262035613"}
	got := ForIdentity(all, isbn)

	var names []string
	for _, s := range got {
		names = append(names, s.Name())
	}
	assert.ElementsMatch(t, []string{"openlibrary", "libgen"}, names,
		"ISBN identities must select only ISBN-capable adapters")

	arxiv := types.Identity{Type: types.TypeArxiv, Normalized: "2301.04104"}
	got = ForIdentity(all, arxiv)
	require.Len(t, got, 1)
	assert.Equal(t, "arxiv", got[0].Name())
}

func TestRegistryTiers(t *testing.T) {
	cfg := types.SourcesConfig{}
	all := Registry(cfg, validate.New(types.ValidateConfig{MinSizeKB: 1}))

	tiers := map[string]bool{"fast": true, "medium": true, "slow": true}
	for _, s := range all {
		assert.True(t, tiers[s.Tier()], "%s has unknown tier %q", s.Name(), s.Tier())
	}
}
