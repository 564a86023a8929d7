// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package console writes human-readable, optionally colored status lines.
// Colors are only emitted when the destination writer is a terminal.
package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ruleWidth is the width of section rules.
const ruleWidth = 80

// Theme holds the color scheme for console output.
type Theme struct {
	Heading lipgloss.Color
	Success lipgloss.Color
	Failure lipgloss.Color
	Warning lipgloss.Color
	Hint    lipgloss.Color
}

var defaultTheme = Theme{
	Heading: lipgloss.Color("#5FAFD7"),
	Success: lipgloss.Color("#00D787"),
	Failure: lipgloss.Color("#FF005F"),
	Warning: lipgloss.Color("#FFAF00"),
	Hint:    lipgloss.Color("#6C6C6C"),
}

// Printer writes styled lines to an io.Writer.
type Printer struct {
	w       io.Writer
	heading lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
	warning lipgloss.Style
	hint    lipgloss.Style
}

// New returns a Printer whose styles are rendered for w.
func New(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	t := defaultTheme
	return &Printer{
		w:       w,
		heading: r.NewStyle().Foreground(t.Heading).Bold(true),
		success: r.NewStyle().Foreground(t.Success).Bold(true),
		failure: r.NewStyle().Foreground(t.Failure).Bold(true),
		warning: r.NewStyle().Foreground(t.Warning),
		hint:    r.NewStyle().Foreground(t.Hint).Italic(true),
	}
}

// Writer returns the underlying writer.
func (p *Printer) Writer() io.Writer { return p.w }

// Line writes an unstyled formatted line.
func (p *Printer) Line(format string, args ...any) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

// Blank writes an empty line.
func (p *Printer) Blank() {
	fmt.Fprintln(p.w)
}

// Field writes an indented "label: value" line.
func (p *Printer) Field(indent int, label string, value any) {
	fmt.Fprintf(p.w, "%s%s: %v\n", strings.Repeat(" ", indent), label, value)
}

// Heading writes a title framed by rules.
func (p *Printer) Heading(title string) {
	rule := strings.Repeat("=", ruleWidth)
	fmt.Fprintln(p.w, rule)
	fmt.Fprintln(p.w, p.heading.Render(title))
	fmt.Fprintln(p.w, rule)
}

// Rule writes a horizontal rule.
func (p *Printer) Rule() {
	fmt.Fprintln(p.w, strings.Repeat("=", ruleWidth))
}

// Success writes a success line.
func (p *Printer) Success(format string, args ...any) {
	fmt.Fprintln(p.w, p.success.Render(fmt.Sprintf(format, args...)))
}

// Failure writes a failure line.
func (p *Printer) Failure(format string, args ...any) {
	fmt.Fprintln(p.w, p.failure.Render(fmt.Sprintf(format, args...)))
}

// Warning writes a warning line.
func (p *Printer) Warning(format string, args ...any) {
	fmt.Fprintln(p.w, p.warning.Render(fmt.Sprintf(format, args...)))
}

// Hint writes a de-emphasized line.
func (p *Printer) Hint(format string, args ...any) {
	fmt.Fprintln(p.w, p.hint.Render(fmt.Sprintf(format, args...)))
}
