// Package report prints analysis results to the terminal.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/ibeckermayer/xstoryfinder/internal/app"
)

var (
	colorAccent = lipgloss.Color("#58a6ff")
	colorMuted  = lipgloss.Color("#8b949e")
	colorBorder = lipgloss.Color("#30363d")
)

// Printer renders results for one output stream
type Printer struct {
	w      io.Writer
	styled bool

	title  lipgloss.Style
	meta   lipgloss.Style
	banner lipgloss.Style
}

// New creates a printer. styled enables the bordered banner; use it only
// when w is a terminal.
func New(w io.Writer, styled bool) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:      w,
		styled: styled,
		title:  r.NewStyle().Bold(true).Foreground(colorAccent),
		meta:   r.NewStyle().Foreground(colorMuted),
		banner: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1),
	}
}

// Print writes a run result
func (p *Printer) Print(res *app.Result) error {
	_, err := io.WriteString(p.w, p.Render(res))
	return err
}

// Render formats a run result
func (p *Printer) Render(res *app.Result) string {
	if res.Empty {
		return fmt.Sprintf("No posts found for %q.\n", res.Keyword)
	}
	if !p.styled {
		return plain(res)
	}

	header := lipgloss.JoinVertical(lipgloss.Left,
		p.title.Render(fmt.Sprintf("AI Analysis Report: %s", res.Keyword)),
		p.meta.Render(summary(res)),
	)
	return p.banner.Render(header) + "\n\n" + strings.TrimSpace(res.Report) + "\n"
}

func plain(res *app.Result) string {
	var sb strings.Builder
	sb.WriteString("\n--- AI Analysis Report ---\n")
	sb.WriteString(strings.TrimSpace(res.Report))
	sb.WriteString("\n--------------------------\n")
	return sb.String()
}

func summary(res *app.Result) string {
	s := fmt.Sprintf("%s · %s · %d fetched, %d unique", res.Provider, res.Model, res.Fetched, res.Unique)
	if res.Analyzed != res.Unique {
		s += fmt.Sprintf(", %d relevant", res.Analyzed)
	}
	if res.Duration > 0 {
		s += " · " + res.Duration.Round(100*time.Millisecond).String()
	}
	return s
}
