package cli

import (
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/termenv"
)

// Lip Gloss styles for command output. Colors degrade to plain text when
// the output is not a terminal or NO_COLOR is set.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ff5fd2"))

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ff005f")).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffaf00"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ff5f")).
			Bold(true)

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#5fd7ff"))

	faintStyle = lipgloss.NewStyle().
			Faint(true)
)

const textWidth = 80

// wrap word-wraps text and indents every line by indent spaces.
func wrap(text string, indent int) string {
	wrapped := wordwrap.String(strings.TrimSpace(text), textWidth-indent)
	pad := strings.Repeat(" ", indent)
	return pad + strings.ReplaceAll(wrapped, "\n", "\n"+pad)
}

// glamourStyle picks the Markdown style: GLAMOUR_STYLE wins, plain text when
// colors are off, otherwise light or dark from the terminal background.
func glamourStyle() string {
	if style := os.Getenv("GLAMOUR_STYLE"); style != "" && style != "auto" {
		return style
	}
	if lipgloss.ColorProfile() == termenv.Ascii {
		return "notty"
	}
	if termenv.NewOutput(os.Stdout).HasDarkBackground() {
		return "dark"
	}
	return "light"
}

// renderMarkdown renders md for the terminal, returning md unchanged when
// rendering fails.
func renderMarkdown(md string) string {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(glamourStyle()),
		glamour.WithWordWrap(textWidth),
	)
	if err != nil {
		return md
	}
	out, err := renderer.Render(md)
	if err != nil {
		return md
	}
	return out
}
