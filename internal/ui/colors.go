package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/soundfence/internal/theme"
)

const (
	errorColor = "#FF3B30"
	warnColor  = "#FFA500"
	mutedColor = "#626262"
)

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title   lipgloss.Style
	inside  lipgloss.Style
	outside lipgloss.Style
	text    lipgloss.Style
	err     lipgloss.Style
	warn    lipgloss.Style
	help    lipgloss.Style
	panel   lipgloss.Style
}

// NewPalette derives the dashboard styles from a theme palette.
func NewPalette(p theme.Palette) *Palette {
	return &Palette{
		title:   NewBold(p.Primary).MarginBottom(1),
		inside:  NewBold(p.Tint),
		outside: NewStyle(p.Text).Faint(true),
		text:    NewStyle(p.Text),
		err:     NewBold(errorColor),
		warn:    NewStyle(warnColor),
		help:    NewEm(mutedColor),
		panel: lipgloss.NewStyle().
			Background(lipgloss.Color(p.InputBg)).
			Foreground(lipgloss.Color(p.Text)).
			Padding(0, 1),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
