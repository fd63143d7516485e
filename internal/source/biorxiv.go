// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"strings"

	"github.com/pdiddy/paper-finder/internal/validate"
	"github.com/pdiddy/paper-finder/pkg/types"
)

// Preprint content hosts, overridable for tests. Both servers share the
// 10.1101 DOI prefix so a paper is tried on each.
var (
	biorxivContentBase = "https://www.biorxiv.org/content/"
	medrxivContentBase = "https://www.medrxiv.org/content/"
)

const biorxivDOIPrefix = "10.1101/"

// NewBiorxiv builds the bioRxiv/medRxiv adapter. Cold Spring Harbor DOIs
// map directly to a .full.pdf content URL.
func NewBiorxiv(dl *Downloader) Source {
	return &urlSource{
		name:  "biorxiv",
		tier:  "fast",
		trust: validate.TrustPublisher,
		supports: func(id types.Identity) bool {
			return id.Type == types.TypeDOI && strings.HasPrefix(id.Normalized, biorxivDOIPrefix)
		},
		candidates: func(ctx context.Context, id types.Identity, meta types.Metadata) ([]string, error) {
			return []string{
				biorxivContentBase + id.Normalized + ".full.pdf",
				biorxivContentBase + id.Normalized + "v1.full.pdf",
				medrxivContentBase + id.Normalized + ".full.pdf",
				medrxivContentBase + id.Normalized + "v1.full.pdf",
			}, nil
		},
		dl: dl,
	}
}
