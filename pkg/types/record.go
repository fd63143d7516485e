// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Record is the per-acquisition metadata file written beside a downloaded
// PDF: identity, bibliographic metadata, which source produced the file, and
// the full per-source attempt log.
type Record struct {
	// ID is a filesystem-safe slug derived from the identity
	// (e.g. "10.1038-nature12373").
	ID string `json:"id" yaml:"id"`

	Identity Identity `json:"identity" yaml:"identity"`
	Metadata Metadata `json:"metadata" yaml:"metadata"`

	// PDFPath is the local filesystem path to the downloaded PDF.
	PDFPath string `json:"pdf_path" yaml:"pdf_path"`

	// Source identifies which adapter produced the PDF.
	Source string `json:"source" yaml:"source"`

	// AcquiredAt is when the acquisition completed.
	AcquiredAt time.Time `json:"acquired_at" yaml:"acquired_at"`

	// Attempts maps every source tried to its outcome string.
	Attempts map[string]string `json:"attempts,omitempty" yaml:"attempts,omitempty"`
}
