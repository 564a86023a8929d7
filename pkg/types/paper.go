// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the oshima client:
// upload requests and results, batch summaries, and the extraction
// response returned for uploaded papers.
package types

import "encoding/json"

// UploadRequest describes one PDF submission. Empty metadata fields are
// left out of the multipart body.
type UploadRequest struct {
	// Path is the local filesystem path to the PDF.
	Path string `json:"path" yaml:"path"`

	Title string `json:"title,omitempty" yaml:"title,omitempty"`
	DOI   string `json:"doi,omitempty" yaml:"doi,omitempty"`
	Field string `json:"field,omitempty" yaml:"field,omitempty"`
	Topic string `json:"topic,omitempty" yaml:"topic,omitempty"`
}

// UploadResult is the data object returned by the upload endpoint.
type UploadResult struct {
	// PaperID identifies the paper on the remote service.
	PaperID string `json:"paper_id" yaml:"paper_id"`

	// Status is the paper status reported by the service (e.g. "pending").
	Status string `json:"status" yaml:"status"`

	// ExtractionRunID is set when the service queued an extraction run.
	ExtractionRunID string `json:"extraction_run_id,omitempty" yaml:"extraction_run_id,omitempty"`

	// ProcessingStatus is an optional human-readable processing detail.
	ProcessingStatus string `json:"processing_status,omitempty" yaml:"processing_status,omitempty"`

	// Raw is the complete response body as received.
	Raw json.RawMessage `json:"-" yaml:"-"`
}

// OutcomeStatus marks whether one batch item succeeded.
type OutcomeStatus string

const (
	OutcomeSuccess OutcomeStatus = "success"
	OutcomeFailed  OutcomeStatus = "failed"
)

// UploadOutcome records the result of uploading one file in collecting mode.
type UploadOutcome struct {
	Filename string        `json:"filename" yaml:"filename"`
	PaperID  string        `json:"paper_id,omitempty" yaml:"paper_id,omitempty"`
	Status   OutcomeStatus `json:"status" yaml:"status"`

	// PaperStatus is the remote status string on success.
	PaperStatus string `json:"paper_status,omitempty" yaml:"paper_status,omitempty"`

	// Error describes the failure, if any.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Succeeded reports whether the upload produced a paper ID.
func (o UploadOutcome) Succeeded() bool {
	return o.Status == OutcomeSuccess
}

// BatchSummary aggregates the outcomes of a directory upload.
type BatchSummary struct {
	Total   int             `json:"total" yaml:"total"`
	Success int             `json:"success" yaml:"success"`
	Failed  int             `json:"failed" yaml:"failed"`
	Uploads []UploadOutcome `json:"uploads" yaml:"uploads"`
}

// HasFailures reports whether any upload in the batch failed.
func (s BatchSummary) HasFailures() bool {
	return s.Failed > 0
}

// Add records one outcome and updates the counters.
func (s *BatchSummary) Add(o UploadOutcome) {
	if o.Succeeded() {
		s.Success++
	} else {
		s.Failed++
	}
	s.Uploads = append(s.Uploads, o)
}
