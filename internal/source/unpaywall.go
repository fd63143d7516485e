// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"net/url"

	"github.com/pdiddy/paper-finder/internal/validate"
	"github.com/pdiddy/paper-finder/pkg/types"
)

// unpaywallAPIBase is overridable for tests.
var unpaywallAPIBase = "https://api.unpaywall.org/v2/"

type unpaywallResponse struct {
	BestOALocation *unpaywallLocation  `json:"best_oa_location"`
	OALocations    []unpaywallLocation `json:"oa_locations"`
}

type unpaywallLocation struct {
	URLForPDF string `json:"url_for_pdf"`
}

// NewUnpaywall builds the Unpaywall adapter. The API requires a contact
// email; without one the adapter reports not-configured and makes no
// network calls.
func NewUnpaywall(dl *Downloader, email string) Source {
	return &urlSource{
		name:  "unpaywall",
		tier:  "fast",
		trust: validate.TrustRepository,
		configured: func() string {
			if email == "" {
				return "unpaywall email not set"
			}
			return ""
		},
		candidates: func(ctx context.Context, id types.Identity, meta types.Metadata) ([]string, error) {
			apiURL := unpaywallAPIBase + id.Normalized + "?email=" + url.QueryEscape(email)

			var resp unpaywallResponse
			if err := dl.getJSON(ctx, apiURL, nil, &resp); err != nil {
				return nil, err
			}

			var urls []string
			seen := map[string]bool{}
			add := func(u string) {
				if u != "" && !seen[u] {
					seen[u] = true
					urls = append(urls, u)
				}
			}
			if resp.BestOALocation != nil {
				add(resp.BestOALocation.URLForPDF)
			}
			for _, loc := range resp.OALocations {
				add(loc.URLForPDF)
			}
			return urls, nil
		},
		dl: dl,
	}
}
