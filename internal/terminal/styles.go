package terminal

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// styles holds the semantic styles used on the terminal.
type styles struct {
	header  lipgloss.Style
	info    lipgloss.Style
	success lipgloss.Style
	err     lipgloss.Style
	prompt  lipgloss.Style
	option  lipgloss.Style
	muted   lipgloss.Style
}

// newStyles returns coloured styles, or unstyled ones when plain is set or the terminal
// has no colour support.
func newStyles(plain bool) styles {
	if plain || lipgloss.ColorProfile() == termenv.Ascii {
		s := lipgloss.NewStyle()
		return styles{header: s, info: s, success: s, err: s, prompt: s, option: s, muted: s}
	}
	return styles{
		header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		info:    lipgloss.NewStyle().Foreground(lipgloss.Color("33")),
		success: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("46")),
		err:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		prompt:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
		option:  lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		muted:   lipgloss.NewStyle().Faint(true),
	}
}
