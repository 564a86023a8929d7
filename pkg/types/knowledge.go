// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "encoding/json"

// ElementType categorizes an element extracted from a paper.
type ElementType string

const (
	ElementClaim    ElementType = "claim"
	ElementEvidence ElementType = "evidence"
)

// ExtractionQuery is the request body of the extracts endpoint. Order is
// preserved and duplicates are sent as given.
type ExtractionQuery struct {
	PaperIDs []string `json:"paper_ids"`
}

// ExtractionResponse is the envelope returned by the extracts endpoint.
type ExtractionResponse struct {
	Data ExtractionResult `json:"data"`
}

// ExtractionResult holds the papers, their flattened elements, and totals.
type ExtractionResult struct {
	Papers   []PaperExtract  `json:"papers"`
	Elements []Element       `json:"elements"`
	Stats    ExtractionStats `json:"stats"`
}

// PaperExtract is one paper record in an extraction response.
type PaperExtract struct {
	ID       string        `json:"id"`
	Metadata PaperMetadata `json:"metadata"`

	// BBoxes are the bounding boxes located in the PDF. Only their count
	// is used, so the individual records are kept opaque.
	BBoxes []json.RawMessage `json:"bboxes"`
}

// PaperMetadata carries the descriptive fields of a paper.
type PaperMetadata struct {
	Title            string `json:"title"`
	OriginalFilename string `json:"original_filename"`
}

// Element is a claim or a piece of evidence, tagged with its parent paper.
type Element struct {
	Type          ElementType   `json:"type"`
	PaperID       string        `json:"paper_id"`
	TextVerbatim  string        `json:"text_verbatim"`
	TextRephrased string        `json:"text_rephrased"`
	EvidenceData  *EvidenceData `json:"evidence_data,omitempty"`
}

// Text returns the rephrased text when present, otherwise the verbatim text.
func (e Element) Text() string {
	if e.TextRephrased != "" {
		return e.TextRephrased
	}
	return e.TextVerbatim
}

// PointsTo returns the number of claims an evidence element supports.
func (e Element) PointsTo() int {
	if e.EvidenceData == nil {
		return 0
	}
	return len(e.EvidenceData.PointsTo)
}

// EvidenceData links evidence to the claims it supports.
type EvidenceData struct {
	PointsTo []json.RawMessage `json:"points_to"`
}

// ExtractionStats are the aggregate counts computed by the service.
type ExtractionStats struct {
	TotalClaims   int `json:"total_claims"`
	TotalEvidence int `json:"total_evidence"`
}
