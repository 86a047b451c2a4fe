// Package report renders the end-of-build summary.
package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	reusedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	builtStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	detailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Summary is what a build run reports.
type Summary struct {
	Bundle   string
	Format   string
	Bytes    int64
	Reused   int
	Compiled int
	Failed   []string // names of shaders left out of the bundle
}

// Render formats s as a short block of text. Styling is dropped
// automatically when the output is not a terminal.
func Render(s Summary) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Wrote %s", s.Bundle)))
	b.WriteString(detailStyle.Render(fmt.Sprintf(" (%s, %d bytes)", s.Format, s.Bytes)))
	b.WriteString("\n")
	b.WriteString(reusedStyle.Render(fmt.Sprintf("  reused=%d", s.Reused)))
	b.WriteString(builtStyle.Render(fmt.Sprintf("  compiled=%d", s.Compiled)))
	failed := fmt.Sprintf("  failed=%d", len(s.Failed))
	if len(s.Failed) > 0 {
		failed = failedStyle.Render(failed)
	}
	b.WriteString(failed)
	b.WriteString("\n")
	for _, name := range s.Failed {
		b.WriteString(failedStyle.Render("  ✗ " + name))
		b.WriteString("\n")
	}
	return b.String()
}
