// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package validate decides whether a downloaded file is an acceptable,
// correctly-matched PDF for the requested identity. Validation runs in two
// stages: a structural check on every file, and an identity check whose
// strictness depends on how much the source's query already guaranteed the
// identity ("identify first, then acquire").
package validate

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/pdiddy/paper-finder/pkg/types"
)

// TrustClass describes how strongly a source's lookup guarantees that the
// returned document matches the requested identity.
type TrustClass int

const (
	// TrustAddressable sources are queried directly by DOI/ISBN; the query
	// itself is the identity guarantee and only the structural check runs.
	// Text-extraction false negatives on scanned PDFs are common, so a
	// failed literal check never overrides this class.
	TrustAddressable TrustClass = iota

	// TrustPublisher covers publisher and preprint sources: accept on
	// title similarity >= 0.6 or an identifier literal in the text.
	TrustPublisher

	// TrustRepository covers repositories and aggregators, which host
	// variant versions and typesetting: accept on similarity >= 0.5 or an
	// identifier literal.
	TrustRepository
)

const (
	publisherSimilarityThreshold  = 0.6
	repositorySimilarityThreshold = 0.5

	// textWindow restricts the similarity comparison to the start of the
	// extracted text, biasing toward title-bearing regions.
	textWindow = 3000

	headerProbe = 1024
)

var pdfMagic = []byte("%PDF-")

// Validator checks candidate files against the requested identity.
type Validator struct {
	cfg types.ValidateConfig
}

// New builds a Validator with the given thresholds.
func New(cfg types.ValidateConfig) *Validator {
	v := &Validator{cfg: cfg}
	if v.cfg.MinSizeKB <= 0 {
		v.cfg.MinSizeKB = 50
	}
	if v.cfg.MaxPages <= 0 {
		v.cfg.MaxPages = 5
	}
	return v
}

// Structural verifies the file exists, meets the minimum size, starts with
// the PDF magic bytes, and is not an HTML error page with a .pdf name.
func (v *Validator) Structural(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("candidate file missing: %w", err)
	}
	if info.Size() < int64(v.cfg.MinSizeKB)*1024 {
		return fmt.Errorf("file too small: %d bytes < %d KB minimum", info.Size(), v.cfg.MinSizeKB)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening candidate: %w", err)
	}
	defer f.Close()

	header := make([]byte, headerProbe)
	n, err := f.Read(header)
	if err != nil {
		return fmt.Errorf("reading candidate header: %w", err)
	}
	header = header[:n]

	if !bytes.HasPrefix(header, pdfMagic) {
		return fmt.Errorf("not a PDF: missing %%PDF- magic bytes")
	}

	lower := bytes.ToLower(header)
	if bytes.Contains(lower, []byte("<html")) || bytes.Contains(lower, []byte("<!doctype")) {
		return fmt.Errorf("HTML document disguised as PDF")
	}
	return nil
}

// Accept runs the full two-stage check. A nil return means the file is an
// acceptable match for the identity under the source's trust class.
func (v *Validator) Accept(path string, id types.Identity, meta types.Metadata, trust TrustClass) error {
	if err := v.Structural(path); err != nil {
		return err
	}

	// Addressable sources were looked up by exact identifier; structural
	// validity is enough.
	if trust == TrustAddressable {
		return nil
	}

	// Without a requested title or identifier there is nothing to match
	// against; the structural check is the best we can do.
	if meta.Title == "" && id.Normalized == "" {
		return nil
	}

	text, err := extractText(path, v.cfg.MaxPages)
	if err != nil {
		// Never let an extraction failure reject an otherwise
		// well-formed PDF.
		return nil
	}

	norm := normalizeText(text)

	if id.Normalized != "" && containsIdentifier(norm, id) {
		return nil
	}

	if meta.Title == "" {
		// Identifier present but not found and no title to compare.
		// Extraction quality varies too much to treat this as proof of
		// mismatch on its own.
		return nil
	}

	window := norm
	if len(window) > textWindow {
		window = window[:textWindow]
	}
	sim := TitleSimilarity(meta.Title, window)

	threshold := publisherSimilarityThreshold
	if trust == TrustRepository {
		threshold = repositorySimilarityThreshold
	}
	if sim >= threshold {
		return nil
	}
	return fmt.Errorf("content mismatch: title similarity %.2f below %.2f and identifier %q not found in text", sim, threshold, id.Normalized)
}

// containsIdentifier reports whether the identifier literal appears in the
// normalized text, accounting for common prefix variants.
func containsIdentifier(normText string, id types.Identity) bool {
	value := strings.ToLower(id.Normalized)
	if value == "" {
		return false
	}

	switch id.Type {
	case types.TypeArxiv:
		return strings.Contains(normText, value) || strings.Contains(normText, "arxiv:"+value)
	case types.TypeISBN:
		// ISBNs are printed with grouping hyphens; compare digits only.
		return strings.Contains(stripNonAlnum(normText), value)
	default:
		for _, variant := range []string{
			value,
			"doi.org/" + value,
			"doi: " + value,
			"doi:" + value,
		} {
			if strings.Contains(normText, variant) {
				return true
			}
		}
		return false
	}
}

func stripNonAlnum(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// normalizeText lowercases and collapses whitespace.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
