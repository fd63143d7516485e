// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"strings"

	"github.com/pdiddy/paper-finder/internal/validate"
	"github.com/pdiddy/paper-finder/pkg/types"
)

// arxivPDFBase is overridable for tests.
var arxivPDFBase = "https://arxiv.org/pdf/"

// NewArxiv builds the arXiv adapter. Candidate discovery is pure URL
// construction; arXiv serves PDFs at a stable path for both the new
// (2301.04104) and old (cond-mat/0301001) identifier forms.
func NewArxiv(dl *Downloader) Source {
	return &urlSource{
		name:  "arxiv",
		tier:  "fast",
		trust: validate.TrustPublisher,
		supports: func(id types.Identity) bool {
			return id.Type == types.TypeArxiv
		},
		candidates: func(ctx context.Context, id types.Identity, meta types.Metadata) ([]string, error) {
			v := strings.TrimPrefix(id.Normalized, "arxiv:")
			return []string{
				arxivPDFBase + v + ".pdf",
				arxivPDFBase + v,
			}, nil
		},
		dl: dl,
	}
}
