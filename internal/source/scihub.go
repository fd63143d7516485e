// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"sync"

	"go.uber.org/multierr"

	"github.com/pdiddy/paper-finder/internal/httputil"
	"github.com/pdiddy/paper-finder/internal/validate"
	"github.com/pdiddy/paper-finder/pkg/types"
)

// sciHubPageProbe bounds how much of a mirror's HTML page is scanned for
// the embedded PDF link.
const sciHubPageProbe = 1 << 20

// Sci-Hub embeds the document in an iframe or embed tag; the src attribute
// carries the PDF location, sometimes protocol-relative.
var (
	sciHubEmbedPattern   = regexp.MustCompile(`(?i)<(?:iframe|embed)[^>]+src\s*=\s*["']([^"']+)["']`)
	sciHubOnclickPattern = regexp.MustCompile(`(?i)location\.href\s*=\s*'([^']+)'`)
)

// SciHub resolves DOIs through a rotation of mirror domains. The mirror
// lookup is keyed by the exact DOI, so validation is structural only. A
// mirror that answers is remembered and tried first on later calls.
type SciHub struct {
	dl      *Downloader
	domains []string

	mu      sync.Mutex
	working string
}

// NewSciHub builds the Sci-Hub adapter over the configured mirror rotation.
func NewSciHub(dl *Downloader, domains []string) *SciHub {
	if len(domains) == 0 {
		domains = types.DefaultSciHubDomains
	}
	return &SciHub{dl: dl, domains: domains}
}

func (s *SciHub) Name() string { return "scihub" }
func (s *SciHub) Tier() string { return "slow" }

func (s *SciHub) Supports(id types.Identity) bool {
	return id.Type == types.TypeDOI
}

func (s *SciHub) TryAcquire(ctx context.Context, id types.Identity, meta types.Metadata, destDir string) types.AcquisitionResult {
	var errs error
	for _, domain := range s.rotation() {
		if ctx.Err() != nil {
			errs = multierr.Append(errs, ctx.Err())
			break
		}
		path, err := s.tryMirror(ctx, domain, id, meta, destDir)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", domain, err))
			continue
		}
		s.remember(domain)
		return types.SuccessResult(s.Name(), path, id, meta)
	}

	msg := string(types.FailDownload)
	if errs != nil {
		msg += ": " + errs.Error()
	}
	return types.FailureResult(s.Name(), msg, id, meta)
}

// rotation returns the mirror list with the last working mirror fronted.
func (s *SciHub) rotation() []string {
	s.mu.Lock()
	working := s.working
	s.mu.Unlock()

	if working == "" {
		return s.domains
	}
	out := []string{working}
	for _, d := range s.domains {
		if d != working {
			out = append(out, d)
		}
	}
	return out
}

func (s *SciHub) remember(domain string) {
	s.mu.Lock()
	s.working = domain
	s.mu.Unlock()
}

// tryMirror fetches the mirror's landing page for the DOI. A direct PDF
// response is saved as-is; an HTML page is scanned for the embedded PDF
// link, which is then downloaded and validated.
func (s *SciHub) tryMirror(ctx context.Context, domain string, id types.Identity, meta types.Metadata, destDir string) (string, error) {
	pageURL := domain + "/" + id.Normalized

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", s.dl.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, s.dl.Client, req, 1)
	if err != nil {
		return "", fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	if strings.Contains(strings.ToLower(resp.Header.Get("Content-Type")), "pdf") {
		return s.savePDF(resp.Body, id, meta, destDir)
	}

	page, err := io.ReadAll(io.LimitReader(resp.Body, sciHubPageProbe))
	if err != nil {
		return "", fmt.Errorf("reading page: %w", err)
	}

	var errs error
	for _, pdfURL := range extractSciHubLinks(string(page), domain) {
		path, err := s.dl.Fetch(ctx, pdfURL, destDir)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if err := s.dl.Validator.Accept(path, id, meta, validate.TrustAddressable); err != nil {
			os.Remove(path)
			errs = multierr.Append(errs, err)
			continue
		}
		return path, nil
	}
	if errs != nil {
		return "", errs
	}
	return "", fmt.Errorf("no PDF link on page")
}

func (s *SciHub) savePDF(body io.Reader, id types.Identity, meta types.Metadata, destDir string) (string, error) {
	path, err := writeCandidate(body, destDir)
	if err != nil {
		return "", err
	}
	if err := s.dl.Validator.Accept(path, id, meta, validate.TrustAddressable); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

// extractSciHubLinks pulls PDF URLs out of a mirror page, resolving
// protocol-relative and domain-relative references.
func extractSciHubLinks(page, domain string) []string {
	var urls []string
	seen := map[string]bool{}

	add := func(u string) {
		u = strings.TrimSpace(u)
		if u == "" {
			return
		}
		switch {
		case strings.HasPrefix(u, "//"):
			u = "https:" + u
		case strings.HasPrefix(u, "/"):
			u = domain + u
		case !strings.HasPrefix(u, "http"):
			u = domain + "/" + u
		}
		if !seen[u] {
			seen[u] = true
			urls = append(urls, u)
		}
	}

	for _, m := range sciHubEmbedPattern.FindAllStringSubmatch(page, -1) {
		if strings.Contains(strings.ToLower(m[1]), "pdf") {
			add(m[1])
		}
	}
	for _, m := range sciHubOnclickPattern.FindAllStringSubmatch(page, -1) {
		if strings.Contains(strings.ToLower(m[1]), "pdf") {
			add(m[1])
		}
	}
	return urls
}
