// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"net/url"

	"github.com/pdiddy/paper-finder/internal/validate"
	"github.com/pdiddy/paper-finder/pkg/types"
)

// openAlexAPIBase is the OpenAlex works endpoint. Declared as a var so tests
// can substitute an httptest server.
var openAlexAPIBase = "https://api.openalex.org/works/"

type openAlexWork struct {
	BestOALocation *openAlexLocation  `json:"best_oa_location"`
	OALocations    []openAlexLocation `json:"oa_locations"`
}

type openAlexLocation struct {
	PDFURL     string `json:"pdf_url"`
	LandingURL string `json:"landing_page_url"`
}

// NewOpenAlex builds the OpenAlex adapter. mailto joins the polite pool and
// is optional.
func NewOpenAlex(dl *Downloader, mailto string) Source {
	return &urlSource{
		name:  "openalex",
		tier:  "fast",
		trust: validate.TrustRepository,
		candidates: func(ctx context.Context, id types.Identity, meta types.Metadata) ([]string, error) {
			apiURL := openAlexAPIBase + "https://doi.org/" + id.Normalized
			if mailto != "" {
				apiURL += "?mailto=" + url.QueryEscape(mailto)
			}

			var work openAlexWork
			if err := dl.getJSON(ctx, apiURL, nil, &work); err != nil {
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
			if work.BestOALocation != nil {
				add(work.BestOALocation.PDFURL)
			}
			for _, loc := range work.OALocations {
				add(loc.PDFURL)
			}
			return urls, nil
		},
		dl: dl,
	}
}
