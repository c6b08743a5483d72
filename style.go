package main

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	keywordStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#F7D354", Dark: "#FBE269"})

	paragraphStyle = lipgloss.NewStyle().
			Width(78).
			Padding(0, 0, 0, 2)
)

// keyword highlights a word in help text when stdout is a terminal.
func keyword(s string) string {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return s
	}
	return keywordStyle.Render(s)
}

// paragraph wraps help text to a readable width.
func paragraph(s string) string {
	return paragraphStyle.Render(s)
}
