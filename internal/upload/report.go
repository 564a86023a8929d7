// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package upload

import (
	"bytes"
	"encoding/json"
	"path/filepath"

	"github.com/pdiddy/oshima-client/pkg/types"
)

// PrintRequest describes a single upload before it is sent.
func (u *Uploader) PrintRequest(req types.UploadRequest) {
	p := u.printer()
	p.Blank()
	p.Line("Uploading %s...", filepath.Base(req.Path))
	p.Field(3, "API", u.Endpoint())
	if req.Title != "" {
		p.Field(3, "Title", req.Title)
	}
	if req.Field != "" {
		p.Field(3, "Field", req.Field)
	}
	if req.Topic != "" {
		p.Field(3, "Topic", req.Topic)
	}
	if req.DOI != "" {
		p.Field(3, "DOI", req.DOI)
	}
}

// PrintResult reports a successful single upload followed by the full
// response body.
func (u *Uploader) PrintResult(r *types.UploadResult) {
	p := u.printer()
	p.Blank()
	p.Success("Upload successful!")
	p.Field(3, "Paper ID", r.PaperID)
	p.Field(3, "Status", r.Status)
	if r.ExtractionRunID != "" {
		p.Field(3, "Extraction Run ID", r.ExtractionRunID)
	}
	if r.ProcessingStatus != "" {
		p.Field(3, "Processing Status", r.ProcessingStatus)
	}

	if len(r.Raw) == 0 {
		return
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, r.Raw, "", "  "); err != nil {
		return
	}
	p.Blank()
	p.Line("Full response:")
	p.Line("%s", buf.String())
}
