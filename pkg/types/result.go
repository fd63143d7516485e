// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// FailureClass categorizes why an adapter attempt did not produce a PDF.
// Every adapter error is converted into one of these before it reaches the
// execution engine; raw errors never cross the adapter boundary.
type FailureClass string

const (
	// FailNotConfigured means the adapter is missing required credentials
	// and short-circuited without network I/O.
	FailNotConfigured FailureClass = "not configured"

	// FailNoCandidates means the source answered but had nothing to offer.
	FailNoCandidates FailureClass = "no candidates found"

	// FailDownload covers network and HTTP errors.
	FailDownload FailureClass = "download failed"

	// FailValidation means a file was produced but rejected by the validator.
	FailValidation FailureClass = "validation failed"

	// FailRateLimited means the adapter's own rate-limit gate refused the
	// attempt before any network call.
	FailRateLimited FailureClass = "rate limited"

	// FailSessionLocked means the underground session was busy with another
	// caller. Actionable: retry later.
	FailSessionLocked FailureClass = "session locked"
)

// AcquisitionResult is the terminal outcome of one acquire call (or of one
// adapter attempt, before the orchestrator aggregates). It is constructed
// through the factory functions below and not mutated after return.
type AcquisitionResult struct {
	Success bool `json:"success" yaml:"success"`

	// Source names the adapter that produced the PDF (success only).
	Source string `json:"source,omitempty" yaml:"source,omitempty"`

	// Filepath is the validated PDF location. Empty for browser-opened
	// outcomes and failures.
	Filepath string `json:"filepath,omitempty" yaml:"filepath,omitempty"`

	// BrowserURL is set when the document is reachable only through a
	// landing page the caller should open; no file is written.
	BrowserURL string `json:"browser_url,omitempty" yaml:"browser_url,omitempty"`

	// Error is the single most informative failure message.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`

	Identity Identity `json:"identity" yaml:"identity"`
	Metadata Metadata `json:"metadata" yaml:"metadata"`

	// Attempts maps every source tried to its outcome string. Kept on
	// success as well, for diagnosability.
	Attempts map[string]string `json:"attempts,omitempty" yaml:"attempts,omitempty"`
}

// SuccessResult builds the success-with-file shape.
func SuccessResult(source, filepath string, id Identity, meta Metadata) AcquisitionResult {
	return AcquisitionResult{
		Success:  true,
		Source:   source,
		Filepath: filepath,
		Identity: id,
		Metadata: meta,
		Attempts: map[string]string{source: "success"},
	}
}

// BrowserResult builds the success-opened-externally shape: the document is
// available at url but could not be fetched headlessly.
func BrowserResult(source, url string, id Identity, meta Metadata) AcquisitionResult {
	return AcquisitionResult{
		Success:    true,
		Source:     source,
		BrowserURL: url,
		Identity:   id,
		Metadata:   meta,
		Attempts:   map[string]string{source: "opened in browser"},
	}
}

// FailureResult builds the failure shape.
func FailureResult(source, errMsg string, id Identity, meta Metadata) AcquisitionResult {
	attempts := map[string]string{}
	if source != "" {
		attempts[source] = "failed: " + errMsg
	}
	return AcquisitionResult{
		Success:  false,
		Source:   source,
		Error:    errMsg,
		Identity: id,
		Metadata: meta,
		Attempts: attempts,
	}
}

// ClassFailure builds a failure carrying a taxonomy class as its message.
func ClassFailure(source string, class FailureClass, id Identity, meta Metadata) AcquisitionResult {
	return FailureResult(source, string(class), id, meta)
}
