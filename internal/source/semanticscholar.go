// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"net/http"

	"github.com/pdiddy/paper-finder/internal/validate"
	"github.com/pdiddy/paper-finder/pkg/types"
)

// semanticScholarAPIBase is overridable for tests.
var semanticScholarAPIBase = "https://api.semanticscholar.org/graph/v1/paper/"

type semanticScholarPaper struct {
	OpenAccessPDF *struct {
		URL string `json:"url"`
	} `json:"openAccessPdf"`
}

// NewSemanticScholar builds the Semantic Scholar adapter. The API key is
// optional; it only raises rate limits.
func NewSemanticScholar(dl *Downloader, apiKey string) Source {
	return &urlSource{
		name:  "semanticscholar",
		tier:  "medium",
		trust: validate.TrustRepository,
		candidates: func(ctx context.Context, id types.Identity, meta types.Metadata) ([]string, error) {
			apiURL := semanticScholarAPIBase + "DOI:" + id.Normalized + "?fields=openAccessPdf"

			var header http.Header
			if apiKey != "" {
				header = http.Header{"X-Api-Key": []string{apiKey}}
			}

			var paper semanticScholarPaper
			if err := dl.getJSON(ctx, apiURL, header, &paper); err != nil {
				return nil, err
			}
			if paper.OpenAccessPDF == nil || paper.OpenAccessPDF.URL == "" {
				return nil, nil
			}
			return []string{paper.OpenAccessPDF.URL}, nil
		},
		dl: dl,
	}
}
