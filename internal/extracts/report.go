// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extracts

import (
	"github.com/pdiddy/oshima-client/internal/console"
	"github.com/pdiddy/oshima-client/pkg/types"
)

const (
	sampleSize    = 3
	sampleMaxText = 100
)

// Summarize prints totals and a per-paper breakdown of result. Papers with
// no elements are reported as possibly still processing; the service does
// not distinguish that from a failed extraction.
func Summarize(p *console.Printer, result types.ExtractionResult) {
	p.Blank()
	p.Heading("RESULTS")

	if len(result.Papers) == 0 {
		p.Warning("No papers found or no extracts available yet")
		p.Hint("   Papers might still be processing. Check back later.")
		return
	}

	p.Blank()
	p.Success("Retrieved %d paper(s) with extracts", len(result.Papers))
	p.Field(3, "Total Claims", result.Stats.TotalClaims)
	p.Field(3, "Total Evidence", result.Stats.TotalEvidence)

	groups := GroupByPaper(result.Elements)
	for _, paper := range result.Papers {
		summarizePaper(p, paper, groups[paper.ID])
	}
}

func summarizePaper(p *console.Printer, paper types.PaperExtract, elements []types.Element) {
	var claims, evidence []types.Element
	for _, e := range elements {
		switch e.Type {
		case types.ElementClaim:
			claims = append(claims, e)
		case types.ElementEvidence:
			evidence = append(evidence, e)
		}
	}

	p.Blank()
	p.Line("Paper: %s", orDefault(paper.Metadata.Title, "Untitled"))
	p.Field(3, "ID", paper.ID)
	p.Field(3, "Filename", orDefault(paper.Metadata.OriginalFilename, "N/A"))
	p.Field(3, "Claims", len(claims))
	p.Field(3, "Evidence", len(evidence))
	p.Field(3, "Bounding Boxes", len(paper.BBoxes))

	p.Blank()
	if len(claims) == 0 {
		p.Warning("   No claims found - paper may still be processing")
	} else {
		p.Line("   Sample Claims:")
		for _, c := range head(claims) {
			p.Line("      - %s", truncate(c.Text(), sampleMaxText))
		}
	}

	p.Blank()
	if len(evidence) == 0 {
		p.Warning("   No evidence found - paper may still be processing")
		return
	}
	p.Line("   Sample Evidence:")
	for _, e := range head(evidence) {
		p.Line("      - %s", truncate(e.Text(), sampleMaxText))
		if n := e.PointsTo(); n > 0 {
			p.Line("        -> Points to %d claim(s)", n)
		}
	}
}

func head(elements []types.Element) []types.Element {
	if len(elements) > sampleSize {
		return elements[:sampleSize]
	}
	return elements
}

// truncate shortens s to max runes, appending "..." when cut.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
