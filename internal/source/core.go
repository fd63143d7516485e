// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"net/http"
	"net/url"

	"github.com/pdiddy/paper-finder/internal/validate"
	"github.com/pdiddy/paper-finder/pkg/types"
)

// coreAPIBase is overridable for tests.
var coreAPIBase = "https://api.core.ac.uk/v3/search/works"

type coreResponse struct {
	Results []coreWork `json:"results"`
}

type coreWork struct {
	DownloadURL string `json:"downloadUrl"`
	Links       []struct {
		Type string `json:"type"`
		URL  string `json:"url"`
	} `json:"links"`
}

// NewCORE builds the CORE aggregator adapter. The v3 API needs a registered
// key; without one the adapter reports not-configured with no network I/O.
func NewCORE(dl *Downloader, apiKey string) Source {
	return &urlSource{
		name:  "core",
		tier:  "medium",
		trust: validate.TrustRepository,
		configured: func() string {
			if apiKey == "" {
				return "CORE API key not set"
			}
			return ""
		},
		candidates: func(ctx context.Context, id types.Identity, meta types.Metadata) ([]string, error) {
			q := url.Values{}
			q.Set("q", `doi:"`+id.Normalized+`"`)
			q.Set("limit", "3")
			header := http.Header{"Authorization": []string{"Bearer " + apiKey}}

			var resp coreResponse
			if err := dl.getJSON(ctx, coreAPIBase+"?"+q.Encode(), header, &resp); err != nil {
				return nil, err
			}

			var urls []string
			for _, w := range resp.Results {
				if w.DownloadURL != "" {
					urls = append(urls, w.DownloadURL)
				}
				for _, l := range w.Links {
					if l.Type == "download" && l.URL != "" {
						urls = append(urls, l.URL)
					}
				}
			}
			return urls, nil
		},
		dl: dl,
	}
}
