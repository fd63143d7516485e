// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"testing"

	"github.com/pdiddy/paper-finder/pkg/types"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantType types.IdentifierType
		wantNorm string
	}{
		{"doi bare", "10.1038/nature12373", types.TypeDOI, "10.1038/nature12373"},
		{"doi uppercase", "10.1002/ANIE.202000000", types.TypeDOI, "10.1002/anie.202000000"},
		{"doi url", "https://doi.org/10.1038/nature12373", types.TypeDOI, "10.1038/nature12373"},
		{"doi prefixed", "doi:10.1038/nature12373", types.TypeDOI, "10.1038/nature12373"},
		{"doi trailing punctuation", "(10.1371/journal.pone.0134116).", types.TypeDOI, "10.1371/journal.pone.0134116"},
		{"doi concatenated url", "10.1021/ja01080a054https://pubs.acs.org/doi/10.1021/ja01080a054", types.TypeDOI, "10.1021/ja01080a054"},
		{"doi supplementary suffix", "10.1371/journal.pone.0134116.s001", types.TypeDOI, "10.1371/journal.pone.0134116"},
		{"arxiv doi reclassified", "10.48550/arXiv.2311.12345", types.TypeArxiv, "2311.12345"},
		{"isbn 13 hyphenated", "978-0226458083", types.TypeISBN, "9780226458083"},
		{"isbn 13 bare", "9780226458083", types.TypeISBN, "9780226458083"},
		{"isbn 10", "0262035618", types.TypeISBN, "9780262035613"},
		{"isbn prefixed", "ISBN: 978-0-262-03561-3", types.TypeISBN, "9780262035613"},
		{"arxiv bare", "2301.07041", types.TypeArxiv, "2301.07041"},
		{"arxiv prefixed", "arXiv:2301.07041", types.TypeArxiv, "2301.07041"},
		{"arxiv versioned", "2301.07041v2", types.TypeArxiv, "2301.07041v2"},
		{"arxiv abs url", "https://arxiv.org/abs/2311.12345", types.TypeArxiv, "2311.12345"},
		{"url plain", "https://example.com/paper.pdf", types.TypeURL, "https://example.com/paper.pdf"},
		{"title", "Molecular structure of nucleic acids Watson Crick 1953", types.TypeTitle, "Molecular structure of nucleic acids Watson Crick 1953"},
		{"garbage short", "ab", types.TypeUnknown, ""},
		{"garbage test pattern", "not-a-doi-at-all", types.TypeUnknown, ""},
		{"garbage numeric", "1234-56/78", types.TypeUnknown, ""},
		{"empty", "", types.TypeUnknown, ""},
		{"whitespace trimmed", "  2301.07041  ", types.TypeArxiv, "2301.07041"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.input)
			if got.Type != tt.wantType {
				t.Errorf("Classify(%q) type = %v, want %v", tt.input, got.Type, tt.wantType)
			}
			if got.Normalized != tt.wantNorm {
				t.Errorf("Classify(%q) norm = %q, want %q", tt.input, got.Normalized, tt.wantNorm)
			}
		})
	}
}

func TestNormalizationIdempotent(t *testing.T) {
	inputs := []string{
		"https://doi.org/10.1038/nature12373",
		"DOI: 10.1371/journal.pone.0134116,",
		"10.1002/ANIE.202000000",
	}
	for _, in := range inputs {
		once := ExtractDOI(in)
		twice := ExtractDOI(once)
		if once != twice {
			t.Errorf("ExtractDOI not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}

	isbns := []string{"0262035618", "978-0226458083", "9780262035613"}
	for _, in := range isbns {
		once := ExtractISBN(in)
		twice := ExtractISBN(once)
		if once != twice {
			t.Errorf("ExtractISBN not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}

func TestNormalizeISBNChecksum(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"isbn10 to isbn13", "0262035618", "9780262035613"},
		{"isbn10 with X check digit", "080442957X", "9780804429573"},
		{"isbn13 passthrough", "9780226458083", "9780226458083"},
		{"hyphenated isbn10", "0-262-03561-8", "9780262035613"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeISBN(tt.input); got != tt.want {
				t.Errorf("NormalizeISBN(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSlug(t *testing.T) {
	tests := []struct {
		name string
		id   types.Identity
		want string
	}{
		{"doi", types.Identity{Type: types.TypeDOI, Normalized: "10.1038/nature12373"}, "10.1038-nature12373"},
		{"isbn", types.Identity{Type: types.TypeISBN, Normalized: "9780226458083"}, "isbn-9780226458083"},
		{"arxiv", types.Identity{Type: types.TypeArxiv, Normalized: "2301.07041"}, "2301.07041"},
		{"arxiv old form", types.Identity{Type: types.TypeArxiv, Normalized: "cond-mat/0211002"}, "cond-mat-0211002"},
		{"title truncated", types.Identity{Type: types.TypeTitle, Normalized: "A Very Long Paper Title With Many More Words Than Eight"}, "a-very-long-paper-title-with-many-more"},
		{"url pdf basename", types.Identity{Type: types.TypeURL, Normalized: "https://example.com/papers/smith-2020.pdf"}, "smith-2020"},
		{"url landing page", types.Identity{Type: types.TypeURL, Normalized: "https://www.cell.com/some/landing/page"}, "page"},
		{"url bare host", types.Identity{Type: types.TypeURL, Normalized: "https://example.com/"}, "document"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slug(tt.id); got != tt.want {
				t.Errorf("Slug(%v) = %q, want %q", tt.id, got, tt.want)
			}
		})
	}
}

func TestIsLikelyGarbage(t *testing.T) {
	garbage := []string{"", "ab", "asdfasdf", "12345/678", "not-a-doi-at-all"}
	for _, in := range garbage {
		if !isLikelyGarbage(in) {
			t.Errorf("isLikelyGarbage(%q) = false, want true", in)
		}
	}
	legit := []string{
		"Molecular structure of nucleic acids",
		"Watson and Crick, Nature 1953",
	}
	for _, in := range legit {
		if isLikelyGarbage(in) {
			t.Errorf("isLikelyGarbage(%q) = true, want false", in)
		}
	}
}
