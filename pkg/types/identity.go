// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the shared data model for the paper-finder pipeline:
// identities, bibliographic metadata, acquisition results, and configuration.
package types

// IdentifierType classifies a resolved reference.
type IdentifierType string

const (
	TypeDOI     IdentifierType = "doi"
	TypeISBN    IdentifierType = "isbn"
	TypeArxiv   IdentifierType = "arxiv"
	TypeURL     IdentifierType = "url"
	TypeTitle   IdentifierType = "title"
	TypeUnknown IdentifierType = "unknown"
)

// Identity is the canonical form of a reference. Value holds the identifier
// as extracted from the input; Normalized holds the canonical form used for
// lookups and validation (lowercase DOI without URL wrappers, digits-only
// ISBN-13, bare arXiv ID). Normalization is idempotent.
type Identity struct {
	Type       IdentifierType `json:"type" yaml:"type"`
	Value      string         `json:"value" yaml:"value"`
	Normalized string         `json:"normalized" yaml:"normalized"`
}

// IsZero reports whether no identifier was resolved.
func (id Identity) IsZero() bool {
	return id.Type == "" || id.Type == TypeUnknown
}

// Metadata is the best-effort bibliographic record attached to an acquisition
// attempt. Fields may be empty; the record is never mutated once an attempt
// is in flight.
type Metadata struct {
	Title     string   `json:"title,omitempty" yaml:"title,omitempty"`
	Authors   []string `json:"authors,omitempty" yaml:"authors,omitempty"`
	Year      int      `json:"year,omitempty" yaml:"year,omitempty"`
	Journal   string   `json:"journal,omitempty" yaml:"journal,omitempty"`
	Publisher string   `json:"publisher,omitempty" yaml:"publisher,omitempty"`
	Type      string   `json:"type,omitempty" yaml:"type,omitempty"`
	ISBN      string   `json:"isbn,omitempty" yaml:"isbn,omitempty"`

	// Source names the service that produced the record (e.g. "crossref",
	// "arxiv", "openlibrary"). Empty when no metadata fetch succeeded.
	Source string `json:"metadata_source,omitempty" yaml:"metadata_source,omitempty"`
}

// YearBucket groups the publication year into the ranges the smart cache
// keys on. An unknown year returns the empty string.
func (m Metadata) YearBucket() string {
	switch {
	case m.Year == 0:
		return ""
	case m.Year >= 2020:
		return "2020+"
	case m.Year >= 2010:
		return "2010-2019"
	case m.Year >= 2000:
		return "2000-2009"
	default:
		return "pre-2000"
	}
}
