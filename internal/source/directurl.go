// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"

	"go.uber.org/multierr"

	"github.com/pdiddy/paper-finder/internal/httputil"
	"github.com/pdiddy/paper-finder/internal/validate"
	"github.com/pdiddy/paper-finder/pkg/types"
)

// directPageProbe bounds how much landing-page HTML is scanned for PDF links.
const directPageProbe = 1 << 20

// directMaxCandidates caps how many scraped links are downloaded from one
// landing page.
const directMaxCandidates = 5

// Publisher landing pages advertise their PDF through Highwire citation meta
// tags, an alternate link, or a plain anchor. Attribute order varies, so the
// meta tag gets a pattern for each.
var (
	directMetaPattern    = regexp.MustCompile(`(?i)<meta[^>]+name\s*=\s*["'](?:bepress_)?citation_pdf_url["'][^>]+content\s*=\s*["']([^"']+)["']`)
	directMetaRevPattern = regexp.MustCompile(`(?i)<meta[^>]+content\s*=\s*["']([^"']+)["'][^>]+name\s*=\s*["'](?:bepress_)?citation_pdf_url["']`)
	directAltPattern     = regexp.MustCompile(`(?i)<link[^>]+type\s*=\s*["']application/pdf["'][^>]+href\s*=\s*["']([^"']+)["']`)
	directAnchorPattern  = regexp.MustCompile(`(?i)href\s*=\s*["']([^"']*\.pdf(?:\?[^"']*)?)["']`)
)

// DirectURL acquires from a user-supplied URL. A response that is already a
// PDF is saved as-is; an HTML landing page is scanned for the advertised PDF
// link. The URL itself carries no verifiable identifier, so candidates
// validate under repository trust.
type DirectURL struct {
	dl *Downloader
}

// NewDirectURL builds the direct-download adapter for URL identities.
func NewDirectURL(dl *Downloader) *DirectURL { return &DirectURL{dl: dl} }

func (d *DirectURL) Name() string { return "direct-url" }
func (d *DirectURL) Tier() string { return "fast" }

func (d *DirectURL) Supports(id types.Identity) bool {
	return id.Type == types.TypeURL
}

func (d *DirectURL) TryAcquire(ctx context.Context, id types.Identity, meta types.Metadata, destDir string) types.AcquisitionResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, id.Normalized, nil)
	if err != nil {
		return types.FailureResult(d.Name(), string(types.FailDownload)+": "+err.Error(), id, meta)
	}
	req.Header.Set("User-Agent", d.dl.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, d.dl.Client, req, 1)
	if err != nil {
		return types.FailureResult(d.Name(), string(types.FailDownload)+": "+err.Error(), id, meta)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.FailureResult(d.Name(), fmt.Sprintf("%s: HTTP %d from %s", types.FailDownload, resp.StatusCode, id.Normalized), id, meta)
	}

	ct := strings.ToLower(resp.Header.Get("Content-Type"))
	if strings.Contains(ct, "pdf") || strings.Contains(ct, "octet-stream") {
		path, err := d.saveBody(resp.Body, id, meta, destDir)
		if err != nil {
			return types.FailureResult(d.Name(), string(types.FailValidation)+": "+err.Error(), id, meta)
		}
		return types.SuccessResult(d.Name(), path, id, meta)
	}

	page, err := io.ReadAll(io.LimitReader(resp.Body, directPageProbe))
	if err != nil {
		return types.FailureResult(d.Name(), string(types.FailDownload)+": reading page: "+err.Error(), id, meta)
	}

	// Redirects may have landed elsewhere; relative links resolve against
	// the final URL.
	base := resp.Request.URL
	links := extractLandingLinks(string(page), base)
	if len(links) == 0 {
		return types.ClassFailure(d.Name(), types.FailNoCandidates, id, meta)
	}

	var errs error
	downloaded := false
	for _, u := range links {
		if ctx.Err() != nil {
			errs = multierr.Append(errs, ctx.Err())
			break
		}
		path, err := d.dl.Fetch(ctx, u, destDir)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", u, err))
			continue
		}
		downloaded = true
		if err := d.dl.Validator.Accept(path, id, meta, validate.TrustRepository); err != nil {
			os.Remove(path)
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", u, err))
			continue
		}
		return types.SuccessResult(d.Name(), path, id, meta)
	}

	class := types.FailDownload
	if downloaded {
		class = types.FailValidation
	}
	msg := string(class)
	if errs != nil {
		msg += ": " + errs.Error()
	}
	return types.FailureResult(d.Name(), msg, id, meta)
}

func (d *DirectURL) saveBody(body io.Reader, id types.Identity, meta types.Metadata, destDir string) (string, error) {
	path, err := writeCandidate(body, destDir)
	if err != nil {
		return "", err
	}
	if err := d.dl.Validator.Accept(path, id, meta, validate.TrustRepository); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

// extractLandingLinks pulls PDF URLs out of a landing page in preference
// order: citation meta tag, alternate link, then plain anchors. Relative
// references resolve against base.
func extractLandingLinks(page string, base *url.URL) []string {
	var urls []string
	seen := map[string]bool{}

	add := func(raw string) {
		raw = strings.TrimSpace(raw)
		if raw == "" || len(urls) >= directMaxCandidates {
			return
		}
		ref, err := url.Parse(raw)
		if err != nil {
			return
		}
		u := base.ResolveReference(ref).String()
		if !strings.HasPrefix(u, "http") {
			return
		}
		if !seen[u] {
			seen[u] = true
			urls = append(urls, u)
		}
	}

	for _, p := range []*regexp.Regexp{
		directMetaPattern,
		directMetaRevPattern,
		directAltPattern,
		directAnchorPattern,
	} {
		for _, m := range p.FindAllStringSubmatch(page, -1) {
			add(m[1])
		}
	}
	return urls
}
