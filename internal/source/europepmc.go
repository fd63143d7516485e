// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"net/url"

	"github.com/pdiddy/paper-finder/internal/validate"
	"github.com/pdiddy/paper-finder/pkg/types"
)

// Europe PMC endpoints, overridable for tests.
var (
	europePMCSearchBase  = "https://www.ebi.ac.uk/europepmc/webservices/rest/search"
	europePMCArticleBase = "https://europepmc.org/articles/"
)

type europePMCResponse struct {
	ResultList struct {
		Result []europePMCResult `json:"result"`
	} `json:"resultList"`
}

type europePMCResult struct {
	PMCID           string `json:"pmcid"`
	FullTextURLList struct {
		FullTextURL []struct {
			URL           string `json:"url"`
			DocumentStyle string `json:"documentStyle"`
		} `json:"fullTextUrl"`
	} `json:"fullTextUrlList"`
}

// NewEuropePMC builds the Europe PMC adapter. A DOI search that resolves to
// a PMC identifier yields a rendered-PDF URL; explicit full-text PDF links
// in the record are tried as well.
func NewEuropePMC(dl *Downloader) Source {
	return &urlSource{
		name:  "europepmc",
		tier:  "fast",
		trust: validate.TrustRepository,
		candidates: func(ctx context.Context, id types.Identity, meta types.Metadata) ([]string, error) {
			q := url.Values{}
			q.Set("query", `DOI:"`+id.Normalized+`"`)
			q.Set("resultType", "core")
			q.Set("format", "json")
			q.Set("pageSize", "3")

			var resp europePMCResponse
			if err := dl.getJSON(ctx, europePMCSearchBase+"?"+q.Encode(), nil, &resp); err != nil {
				return nil, err
			}

			var urls []string
			for _, r := range resp.ResultList.Result {
				if r.PMCID != "" {
					urls = append(urls, europePMCArticleBase+r.PMCID+"?pdf=render")
				}
				for _, ft := range r.FullTextURLList.FullTextURL {
					if ft.DocumentStyle == "pdf" && ft.URL != "" {
						urls = append(urls, ft.URL)
					}
				}
			}
			return urls, nil
		},
		dl: dl,
	}
}
