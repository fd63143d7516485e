// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"strings"

	"github.com/pdiddy/paper-finder/internal/validate"
	"github.com/pdiddy/paper-finder/pkg/types"
)

// NewPublisherPatterns builds the adapter that guesses publisher PDF URLs
// from the DOI prefix. Many publishers serve PDFs at predictable paths that
// are never advertised in API records; guessing them costs one request each
// and frequently beats the slower mirror tier.
func NewPublisherPatterns(dl *Downloader) Source {
	return &urlSource{
		name:  "publisher-patterns",
		tier:  "slow",
		trust: validate.TrustPublisher,
		candidates: func(ctx context.Context, id types.Identity, meta types.Metadata) ([]string, error) {
			return PublisherPatternURLs(id.Normalized), nil
		},
		dl: dl,
	}
}

// PublisherPatternURLs maps a DOI to candidate PDF URLs based on the
// registrant prefix. Unknown prefixes yield nil.
func PublisherPatternURLs(doi string) []string {
	prefix, suffix, ok := strings.Cut(doi, "/")
	if !ok {
		return nil
	}

	switch prefix {
	case "10.1038": // Nature Portfolio
		return []string{
			"https://www.nature.com/articles/" + suffix + ".pdf",
			"https://www.nature.com/articles/" + suffix,
		}
	case "10.1007", "10.1186": // Springer, BMC
		return []string{
			"https://link.springer.com/content/pdf/" + doi + ".pdf",
			"https://link.springer.com/article/" + doi + "/pdf",
		}
	case "10.1002": // Wiley
		return []string{
			"https://onlinelibrary.wiley.com/doi/pdf/" + doi,
			"https://onlinelibrary.wiley.com/doi/pdfdirect/" + doi,
			"https://onlinelibrary.wiley.com/doi/epdf/" + doi,
		}
	case "10.1021": // ACS
		return []string{
			"https://pubs.acs.org/doi/pdf/" + doi,
			"https://pubs.acs.org/doi/pdfplus/" + doi,
		}
	case "10.1080": // Taylor & Francis
		return []string{
			"https://www.tandfonline.com/doi/pdf/" + doi,
			"https://www.tandfonline.com/doi/epdf/" + doi,
		}
	case "10.1093": // Oxford University Press
		return []string{
			"https://academic.oup.com/article-pdf/doi/" + doi,
		}
	case "10.1126": // AAAS / Science
		return []string{
			"https://www.science.org/doi/pdf/" + doi,
		}
	case "10.1073": // PNAS
		return []string{
			"https://www.pnas.org/doi/pdf/" + doi,
		}
	}
	return nil
}
