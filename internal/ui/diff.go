package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// RenderDiff shows what changed between a previous revision and the new
// draft, line-oriented with insertions green and deletions red.
func RenderDiff(previous, current string) string {
	dmp := diffmatchpatch.New()

	// Line-mode diff: encode lines as characters, diff, decode back.
	a, b, lineArray := dmp.DiffLinesToChars(previous, current)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lineArray)

	added := lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	removed := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	var out strings.Builder
	for _, d := range diffs {
		for _, line := range splitLines(d.Text) {
			switch d.Type {
			case diffmatchpatch.DiffInsert:
				out.WriteString(added.Render("+ "+line) + "\n")
			case diffmatchpatch.DiffDelete:
				out.WriteString(removed.Render("- "+line) + "\n")
			default:
				out.WriteString(dim.Render("  "+line) + "\n")
			}
		}
	}
	return out.String()
}

func splitLines(text string) []string {
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}
