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

const libgenPageProbe = 1 << 20

// LibGen download pages link the file through a get.php href.
var libgenGetPattern = regexp.MustCompile(`(?i)href\s*=\s*["']([^"']*get\.php[^"']*)["']`)

// Libgen searches Library Genesis mirrors. Papers go through the scimag
// database keyed by DOI; books through the main database keyed by ISBN.
// Either key addresses the exact document, so validation is structural only.
type Libgen struct {
	dl      *Downloader
	mirrors []string
}

// NewLibgen builds the LibGen adapter over the configured mirror rotation.
func NewLibgen(dl *Downloader, mirrors []string) *Libgen {
	if len(mirrors) == 0 {
		mirrors = types.DefaultLibgenMirrors
	}
	return &Libgen{dl: dl, mirrors: mirrors}
}

func (l *Libgen) Name() string { return "libgen" }
func (l *Libgen) Tier() string { return "slow" }

func (l *Libgen) Supports(id types.Identity) bool {
	return id.Type == types.TypeDOI || id.Type == types.TypeISBN
}

func (l *Libgen) TryAcquire(ctx context.Context, id types.Identity, meta types.Metadata, destDir string) types.AcquisitionResult {
	var errs error
	for _, mirror := range l.mirrors {
		if ctx.Err() != nil {
			errs = multierr.Append(errs, ctx.Err())
			break
		}
		path, err := l.tryMirror(ctx, mirror, id, meta, destDir)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", mirror, err))
			continue
		}
		return types.SuccessResult(l.Name(), path, id, meta)
	}

	msg := string(types.FailDownload)
	if errs != nil {
		msg += ": " + errs.Error()
	}
	return types.FailureResult(l.Name(), msg, id, meta)
}

func (l *Libgen) tryMirror(ctx context.Context, mirror string, id types.Identity, meta types.Metadata, destDir string) (string, error) {
	var searchURL string
	switch id.Type {
	case types.TypeDOI:
		searchURL = mirror + "/scimag/?q=" + url.QueryEscape(id.Normalized)
	case types.TypeISBN:
		searchURL = mirror + "/search.php?req=" + url.QueryEscape(id.Normalized) + "&column=identifier"
	default:
		return "", fmt.Errorf("unsupported identity type %s", id.Type)
	}

	page, err := l.fetchPage(ctx, searchURL)
	if err != nil {
		return "", err
	}

	links := extractLibgenLinks(page, mirror)
	if len(links) == 0 {
		return "", fmt.Errorf("no download links on page")
	}

	var errs error
	for _, dlURL := range links {
		path, err := l.dl.Fetch(ctx, dlURL, destDir)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if err := l.dl.Validator.Accept(path, id, meta, validate.TrustAddressable); err != nil {
			os.Remove(path)
			errs = multierr.Append(errs, err)
			continue
		}
		return path, nil
	}
	return "", errs
}

func (l *Libgen) fetchPage(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", l.dl.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, l.dl.Client, req, 1)
	if err != nil {
		return "", fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	page, err := io.ReadAll(io.LimitReader(resp.Body, libgenPageProbe))
	if err != nil {
		return "", fmt.Errorf("reading page: %w", err)
	}
	return string(page), nil
}

// extractLibgenLinks pulls get.php download hrefs out of a results page,
// resolving mirror-relative references.
func extractLibgenLinks(page, mirror string) []string {
	var urls []string
	seen := map[string]bool{}
	for _, m := range libgenGetPattern.FindAllStringSubmatch(page, -1) {
		u := strings.TrimSpace(m[1])
		if u == "" {
			continue
		}
		if !strings.HasPrefix(u, "http") {
			u = mirror + "/" + strings.TrimPrefix(u, "/")
		}
		if !seen[u] {
			seen[u] = true
			urls = append(urls, u)
		}
	}
	return urls
}
