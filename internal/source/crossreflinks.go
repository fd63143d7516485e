// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"strings"

	"github.com/pdiddy/paper-finder/internal/validate"
	"github.com/pdiddy/paper-finder/pkg/types"
)

// crossrefLinksAPIBase is overridable for tests.
var crossrefLinksAPIBase = "https://api.crossref.org/works/"

type crossrefLinksResponse struct {
	Message struct {
		Link []struct {
			URL         string `json:"URL"`
			ContentType string `json:"content-type"`
		} `json:"link"`
	} `json:"message"`
}

// NewCrossrefLinks builds the adapter that follows full-text links deposited
// by publishers in the CrossRef work record. These point at the publisher's
// own site, so matches validate under the publisher trust class.
func NewCrossrefLinks(dl *Downloader) Source {
	return &urlSource{
		name:  "crossref-links",
		tier:  "medium",
		trust: validate.TrustPublisher,
		candidates: func(ctx context.Context, id types.Identity, meta types.Metadata) ([]string, error) {
			var resp crossrefLinksResponse
			if err := dl.getJSON(ctx, crossrefLinksAPIBase+id.Normalized, nil, &resp); err != nil {
				return nil, err
			}

			var urls []string
			for _, l := range resp.Message.Link {
				if l.URL == "" {
					continue
				}
				ct := strings.ToLower(l.ContentType)
				if strings.Contains(ct, "pdf") || strings.HasSuffix(strings.ToLower(l.URL), ".pdf") {
					urls = append(urls, l.URL)
				}
			}
			return urls, nil
		},
		dl: dl,
	}
}
