// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/pdiddy/paper-finder/pkg/types"
)

// openLibraryAPIBase is the Open Library books endpoint. Declared as a var so
// tests can substitute httptest servers.
var openLibraryAPIBase = "https://openlibrary.org/api/books"

var isbn13Pattern = regexp.MustCompile(`\b(97[89][\d\-\s]{10,14})\b`)
var isbn10Pattern = regexp.MustCompile(`\b([\d\-\s]{9,13}[\dXx])\b`)

// ExtractISBN finds an ISBN in text and returns it normalized to digits-only
// ISBN-13 form. ISBN-10 inputs are converted via the standard checksum;
// hyphens, spaces, and an "ISBN:" prefix are tolerated. Returns empty when no
// ISBN-shaped token is present.
func ExtractISBN(text string) string {
	text = regexp.MustCompile(`(?i)ISBN[:\s-]*`).ReplaceAllString(text, "")

	// Whole-string match first: "9780262035613" or "0-262-03561-8".
	clean := strings.ToUpper(strings.NewReplacer("-", "", " ", "").Replace(strings.TrimSpace(text)))
	if isISBNShaped(clean) {
		return NormalizeISBN(clean)
	}

	if m := isbn13Pattern.FindStringSubmatch(text); m != nil {
		isbn := regexp.MustCompile(`[\s\-]`).ReplaceAllString(m[1], "")
		if len(isbn) == 13 && digitsOnly(isbn) {
			return isbn
		}
	}

	if m := isbn10Pattern.FindStringSubmatch(text); m != nil {
		isbn := strings.ToUpper(regexp.MustCompile(`[\s\-]`).ReplaceAllString(m[1], ""))
		if len(isbn) == 10 && isISBNShaped(isbn) {
			return NormalizeISBN(isbn)
		}
	}

	return ""
}

func digitsOnly(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

func isISBNShaped(s string) bool {
	switch len(s) {
	case 13:
		return digitsOnly(s) && (strings.HasPrefix(s, "978") || strings.HasPrefix(s, "979"))
	case 10:
		body, check := s[:9], s[9]
		return digitsOnly(body) && (check == 'X' || (check >= '0' && check <= '9'))
	default:
		return false
	}
}

// NormalizeISBN converts a clean 10- or 13-character ISBN to digits-only
// ISBN-13. Conversion is deterministic: prefix "978", recompute the check
// digit with the alternating 1/3 weighting. ISBN-13 inputs pass through
// unchanged, so normalization is idempotent.
func NormalizeISBN(isbn string) string {
	isbn = strings.ToUpper(strings.NewReplacer("-", "", " ", "").Replace(isbn))
	if len(isbn) == 13 {
		return isbn
	}
	if len(isbn) != 10 {
		return ""
	}

	body := "978" + isbn[:9]
	sum := 0
	for i, d := range body {
		digit := int(d - '0')
		if i%2 == 0 {
			sum += digit
		} else {
			sum += digit * 3
		}
	}
	check := (10 - sum%10) % 10
	return fmt.Sprintf("%s%d", body, check)
}

// openLibraryBook captures the fields we need from an Open Library record.
type openLibraryBook struct {
	Title   string `json:"title"`
	Authors []struct {
		Name string `json:"name"`
	} `json:"authors"`
	Publishers []struct {
		Name string `json:"name"`
	} `json:"publishers"`
	PublishDate string `json:"publish_date"`
}

// fetchOpenLibrary queries Open Library for book metadata by ISBN-13.
func (r *Resolver) fetchOpenLibrary(ctx context.Context, isbn string) (types.Metadata, error) {
	apiURL := fmt.Sprintf("%s?bibkeys=ISBN:%s&format=json&jscmd=data", openLibraryAPIBase, isbn)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return types.Metadata{}, fmt.Errorf("creating Open Library request: %w", err)
	}
	req.Header.Set("User-Agent", r.cfg.UserAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return types.Metadata{}, fmt.Errorf("Open Library request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.Metadata{}, fmt.Errorf("Open Library returned HTTP %d", resp.StatusCode)
	}

	var payload map[string]openLibraryBook
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return types.Metadata{}, fmt.Errorf("parsing Open Library response: %w", err)
	}

	book, ok := payload["ISBN:"+isbn]
	if !ok {
		return types.Metadata{}, fmt.Errorf("no Open Library record for ISBN %s", isbn)
	}

	meta := types.Metadata{
		Title:  book.Title,
		Type:   "book",
		Source: "openlibrary",
	}
	for _, a := range book.Authors {
		meta.Authors = append(meta.Authors, a.Name)
	}
	if len(book.Publishers) > 0 {
		meta.Publisher = book.Publishers[0].Name
	}
	if y := extractYear(book.PublishDate); y != 0 {
		meta.Year = y
	}
	return meta, nil
}

var yearPattern = regexp.MustCompile(`\b(1[5-9]\d{2}|20\d{2})\b`)

func extractYear(s string) int {
	m := yearPattern.FindString(s)
	if m == "" {
		return 0
	}
	year := 0
	fmt.Sscanf(m, "%d", &year)
	return year
}
