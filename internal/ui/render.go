package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"quill/internal/highlight"
)

// RenderMarkdown renders markdown for the terminal with the given theme
// (dark, light, or auto). On renderer failure the raw text is returned so
// output is never lost to styling.
func RenderMarkdown(content, theme string) string {
	var opts []glamour.TermRendererOption
	switch theme {
	case "dark", "light":
		opts = append(opts, glamour.WithStandardStyle(theme))
	default:
		opts = append(opts, glamour.WithAutoStyle())
	}
	opts = append(opts, glamour.WithWordWrap(100))

	renderer, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return content
	}
	out, err := renderer.Render(content)
	if err != nil {
		return content
	}
	return out
}

// RenderPlain prints markdown without layout styling but still highlights
// fenced code blocks, for pipes and dumb terminals.
func RenderPlain(content string) string {
	hl := highlight.New("")
	var b strings.Builder

	lines := strings.Split(content, "\n")
	var code []string
	var lang string
	inFence := false
	for _, line := range lines {
		if strings.HasPrefix(line, "```") {
			if inFence {
				b.WriteString(hl.Highlight(strings.Join(code, "\n"), lang))
				b.WriteString("\n")
				code = nil
				inFence = false
			} else {
				lang = strings.TrimSpace(strings.TrimPrefix(line, "```"))
				inFence = true
			}
			continue
		}
		if inFence {
			code = append(code, line)
			continue
		}
		fmt.Fprintln(&b, line)
	}
	// An unterminated fence still prints.
	if len(code) > 0 {
		b.WriteString(hl.Highlight(strings.Join(code, "\n"), lang))
		b.WriteString("\n")
	}
	return b.String()
}
