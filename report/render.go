package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	colorAccent  = lipgloss.Color("#64FFDA")
	colorHeading = lipgloss.Color("#CCD6F6")
	colorMuted   = lipgloss.Color("#8892B0")
	colorBar     = lipgloss.Color("#4BC0C0")

	maxBarWidth = 40
)

// Styles are the lipgloss styles used for terminal output. They are shared
// with the wizard screens.
type Styles struct {
	Title   lipgloss.Style
	Heading lipgloss.Style
	Label   lipgloss.Style
	Value   lipgloss.Style
	Muted   lipgloss.Style
	Bar     lipgloss.Style
	Error   lipgloss.Style
}

// NewStyles binds the palette to r. Renderers writing to a non-terminal
// emit plain text.
func NewStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		Title:   r.NewStyle().Foreground(colorAccent).Bold(true),
		Heading: r.NewStyle().Foreground(colorHeading).Bold(true),
		Label:   r.NewStyle().Foreground(colorMuted),
		Value:   r.NewStyle().Foreground(colorHeading).Bold(true),
		Muted:   r.NewStyle().Foreground(colorMuted),
		Bar:     r.NewStyle().Foreground(colorBar),
		Error:   r.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
	}
}

// StylesFor returns styles whose color profile matches w.
func StylesFor(w io.Writer) Styles {
	return NewStyles(lipgloss.NewRenderer(w))
}

// WriteText renders doc to w using styles detected from w.
func WriteText(w io.Writer, doc *Document) error {
	_, err := io.WriteString(w, RenderText(StylesFor(w), doc)+"\n")
	return err
}

// RenderText lays out doc for a terminal.
func RenderText(st Styles, doc *Document) string {
	parts := []string{st.Title.Render(doc.Title)}
	if doc.Subtitle != "" {
		parts = append(parts, st.Muted.Render(doc.Subtitle))
	}
	for _, sec := range doc.Sections {
		parts = append(parts, "", renderSection(st, sec))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func renderSection(st Styles, sec Section) string {
	lines := []string{st.Heading.Render(sec.Heading)}

	labelWidth := 0
	for _, r := range sec.Rows {
		labelWidth = max(labelWidth, lipgloss.Width(r.Label))
	}
	for _, r := range sec.Rows {
		label := st.Label.Width(labelWidth + 2).Render(r.Label)
		lines = append(lines, "  "+label+st.Value.Render(r.Value))
	}
	for _, p := range sec.Paragraphs {
		lines = append(lines, "  "+p)
	}
	for _, b := range sec.Bullets {
		lines = append(lines, "  - "+b)
	}
	if len(sec.Histogram) > 0 {
		lines = append(lines, renderHistogram(st, sec.Histogram)...)
	}
	return strings.Join(lines, "\n")
}

func renderHistogram(st Styles, bins []Bin) []string {
	peak, labelWidth := 0, 0
	for _, b := range bins {
		peak = max(peak, b.Count)
		labelWidth = max(labelWidth, len(b.Label))
	}
	lines := make([]string, 0, len(bins)+1)
	for _, b := range bins {
		width := 0
		if peak > 0 {
			width = b.Count * maxBarWidth / peak
		}
		if width == 0 && b.Count > 0 {
			width = 1
		}
		bar := st.Bar.Render(strings.Repeat("█", width))
		lines = append(lines, fmt.Sprintf("  %*s │%s %d", labelWidth, b.Label, bar, b.Count))
	}
	lines = append(lines, st.Muted.Render(fmt.Sprintf("  %d samples in %d bins", Total(bins), len(bins))))
	return lines
}
