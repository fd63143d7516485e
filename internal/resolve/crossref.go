// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pdiddy/paper-finder/pkg/types"
)

// Base URLs for metadata services. Declared as vars so tests can substitute
// httptest servers.
var (
	crossrefAPIBase    = "https://api.crossref.org/works/"
	crossrefSearchBase = "https://api.crossref.org/works"
	arxivAPIBase       = "https://export.arxiv.org/api/query"
)

// CrossRef API JSON structures.
type crossrefResponse struct {
	Message crossrefWork `json:"message"`
}

type crossrefWork struct {
	DOI             string           `json:"DOI"`
	Title           []string         `json:"title"`
	ContainerTitle  []string         `json:"container-title"`
	Publisher       string           `json:"publisher"`
	Type            string           `json:"type"`
	Author          []crossrefAuthor `json:"author"`
	PublishedPrint  crossrefDate     `json:"published-print"`
	PublishedOnline crossrefDate     `json:"published-online"`
	Created         crossrefDate     `json:"created"`
	ISBN            []string         `json:"ISBN"`
}

type crossrefAuthor struct {
	Given  string `json:"given"`
	Family string `json:"family"`
}

type crossrefDate struct {
	DateParts [][]int `json:"date-parts"`
}

func (d crossrefDate) year() int {
	if len(d.DateParts) > 0 && len(d.DateParts[0]) > 0 {
		return d.DateParts[0][0]
	}
	return 0
}

func (w crossrefWork) metadata() types.Metadata {
	meta := types.Metadata{
		Publisher: w.Publisher,
		Type:      w.Type,
		Source:    "crossref",
	}
	if len(w.Title) > 0 {
		meta.Title = w.Title[0]
	}
	if len(w.ContainerTitle) > 0 {
		meta.Journal = w.ContainerTitle[0]
	}
	for _, a := range w.Author {
		name := strings.TrimSpace(a.Given + " " + a.Family)
		if name != "" {
			meta.Authors = append(meta.Authors, name)
		}
	}
	if y := w.PublishedPrint.year(); y != 0 {
		meta.Year = y
	} else if y := w.PublishedOnline.year(); y != 0 {
		meta.Year = y
	} else {
		meta.Year = w.Created.year()
	}
	if len(w.ISBN) > 0 {
		meta.ISBN = NormalizeISBN(w.ISBN[0])
	}
	return meta
}

// fetchCrossrefWork retrieves bibliographic metadata for a DOI.
func (r *Resolver) fetchCrossrefWork(ctx context.Context, doi string) (types.Metadata, error) {
	apiURL := crossrefAPIBase + doi
	if r.cfg.CrossrefMailto != "" {
		apiURL += "?mailto=" + url.QueryEscape(r.cfg.CrossrefMailto)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return types.Metadata{}, fmt.Errorf("creating CrossRef request: %w", err)
	}
	req.Header.Set("User-Agent", r.cfg.UserAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return types.Metadata{}, fmt.Errorf("CrossRef request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.Metadata{}, fmt.Errorf("CrossRef returned HTTP %d", resp.StatusCode)
	}

	var cr crossrefResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return types.Metadata{}, fmt.Errorf("parsing CrossRef response: %w", err)
	}

	return cr.Message.metadata(), nil
}

// crossrefSearchResponse holds bibliographic-search results.
type crossrefSearchResponse struct {
	Message struct {
		Items []crossrefWork `json:"items"`
	} `json:"message"`
}

// searchCitation asks CrossRef for the single best DOI match for a free-text
// citation. Returns empty on a search miss.
func (r *Resolver) searchCitation(ctx context.Context, citation string) (string, error) {
	if len(citation) > 500 {
		citation = citation[:500]
	}

	q := url.Values{}
	q.Set("query.bibliographic", citation)
	q.Set("rows", "1")
	if r.cfg.CrossrefMailto != "" {
		q.Set("mailto", r.cfg.CrossrefMailto)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, crossrefSearchBase+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("creating CrossRef search request: %w", err)
	}
	req.Header.Set("User-Agent", r.cfg.UserAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("CrossRef search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("CrossRef search returned HTTP %d", resp.StatusCode)
	}

	var sr crossrefSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return "", fmt.Errorf("parsing CrossRef search response: %w", err)
	}

	if len(sr.Message.Items) == 0 {
		return "", nil
	}
	return strings.ToLower(sr.Message.Items[0].DOI), nil
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	Title     string        `xml:"title"`
	Published string        `xml:"published"`
	Authors   []arxivAuthor `xml:"author"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

// fetchArxivMetadata retrieves title/authors/year from the arXiv API.
func (r *Resolver) fetchArxivMetadata(ctx context.Context, arxivID string) (types.Metadata, error) {
	apiURL := fmt.Sprintf("%s?id_list=%s", arxivAPIBase, arxivID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return types.Metadata{}, fmt.Errorf("creating arXiv request: %w", err)
	}
	req.Header.Set("User-Agent", r.cfg.UserAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return types.Metadata{}, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.Metadata{}, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return types.Metadata{}, fmt.Errorf("parsing arXiv response: %w", err)
	}

	if len(feed.Entries) == 0 {
		return types.Metadata{}, fmt.Errorf("no entries found for arXiv ID %s", arxivID)
	}

	entry := feed.Entries[0]
	meta := types.Metadata{
		Title:     strings.TrimSpace(entry.Title),
		Journal:   "arXiv",
		Publisher: "arXiv",
		Source:    "arxiv",
	}
	for _, a := range entry.Authors {
		meta.Authors = append(meta.Authors, strings.TrimSpace(a.Name))
	}
	if t, parseErr := time.Parse(time.RFC3339, entry.Published); parseErr == nil {
		meta.Year = t.Year()
	}
	return meta, nil
}
