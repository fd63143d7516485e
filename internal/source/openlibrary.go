// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"

	"github.com/pdiddy/paper-finder/internal/validate"
	"github.com/pdiddy/paper-finder/pkg/types"
)

// Open Library / Internet Archive endpoints, overridable for tests.
var (
	openLibrarySourceBase = "https://openlibrary.org/api/books"
	archiveDownloadBase   = "https://archive.org/download/"
)

type openLibraryEdition struct {
	Details struct {
		OCAID string `json:"ocaid"`
	} `json:"details"`
}

// NewOpenLibrary builds the Open Library book adapter. An ISBN edition that
// carries an Internet Archive scan identifier maps to a downloadable PDF.
// The lookup is keyed by the exact ISBN, so a structural check suffices.
func NewOpenLibrary(dl *Downloader) Source {
	return &urlSource{
		name:  "openlibrary",
		tier:  "medium",
		trust: validate.TrustAddressable,
		supports: func(id types.Identity) bool {
			return id.Type == types.TypeISBN
		},
		candidates: func(ctx context.Context, id types.Identity, meta types.Metadata) ([]string, error) {
			apiURL := openLibrarySourceBase + "?bibkeys=ISBN:" + id.Normalized + "&format=json&jscmd=details"

			editions := map[string]openLibraryEdition{}
			if err := dl.getJSON(ctx, apiURL, nil, &editions); err != nil {
				return nil, err
			}

			var urls []string
			for _, e := range editions {
				if ia := e.Details.OCAID; ia != "" {
					urls = append(urls, archiveDownloadBase+ia+"/"+ia+".pdf")
				}
			}
			return urls, nil
		},
		dl: dl,
	}
}
