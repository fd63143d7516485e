// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/pdiddy/paper-finder/internal/httputil"
	"github.com/pdiddy/paper-finder/internal/validate"
)

// Downloader fetches candidate URLs into uniquely named files. Adapters
// share one Downloader per registry; each file it writes lives in the
// caller's destination directory under a candidate name until the
// orchestrator promotes the winner.
type Downloader struct {
	Client    *http.Client
	Validator *validate.Validator
	UserAgent string

	// Limiter, when set, spaces requests per destination host.
	Limiter *httputil.HostLimiter
}

// Fetch downloads url into destDir and returns the file path. The write
// goes to the final candidate name only after the body copied completely;
// partial downloads are removed. A 200 status with any content type is
// accepted here; content checks belong to the validator.
func (d *Downloader) Fetch(ctx context.Context, url, destDir string) (string, error) {
	if d.Limiter != nil {
		if err := d.Limiter.Wait(ctx, url); err != nil {
			return "", err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", d.UserAgent)
	req.Header.Set("Accept", "application/pdf")

	resp, err := httputil.DoWithRetry(ctx, d.Client, req, 2)
	if err != nil {
		return "", fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}

	return writeCandidate(resp.Body, destDir)
}

// writeCandidate streams body into a uniquely named candidate file in
// destDir. The bytes land in a hidden temp file first and are renamed only
// after a complete copy, so a candidate path always refers to a whole file.
func writeCandidate(body io.Reader, destDir string) (string, error) {
	dest := filepath.Join(destDir, ".candidate-"+uuid.NewString()+".pdf")
	tmp, err := os.CreateTemp(destDir, ".download-*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, copyErr := io.Copy(tmp, body)
	closeErr := tmp.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("renaming temp file: %w", err)
	}
	return dest, nil
}

// getJSON fetches url and decodes the JSON body into v. Used by adapters
// whose candidate discovery is an API lookup.
func (d *Downloader) getJSON(ctx context.Context, url string, header http.Header, v any) error {
	if d.Limiter != nil {
		if err := d.Limiter.Wait(ctx, url); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", d.UserAgent)
	for k, vals := range header {
		for _, val := range vals {
			req.Header.Set(k, val)
		}
	}

	resp, err := httputil.DoWithRetry(ctx, d.Client, req, 2)
	if err != nil {
		return fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("parsing response from %s: %w", url, err)
	}
	return nil
}
