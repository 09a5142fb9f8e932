package report

import (
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

const markdownWidth = 80

// Markdown renders md for w. Writers without color support get md back
// unchanged, as do inputs glamour cannot render.
func Markdown(w io.Writer, md string) string {
	md = strings.TrimSpace(md)
	if md == "" || lipgloss.NewRenderer(w).ColorProfile() == termenv.Ascii {
		return md
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(markdownWidth),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimSpace(out)
}
