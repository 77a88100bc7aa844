package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/vibe/internal/models"
)

var (
	darkPalette  = NewPalette("#A78BFA", "#34D399", "#F87171", "#FBBF24", "#9CA3AF", "#E5E7EB")
	lightPalette = NewPalette("#6D28D9", "#047857", "#B91C1C", "#B45309", "#6B7280", "#111827")
)

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title  lipgloss.Style
	ok     lipgloss.Style
	err    lipgloss.Style
	warn   lipgloss.Style
	help   lipgloss.Style
	text   lipgloss.Style
	panel  lipgloss.Style
	active lipgloss.Style
}

func NewPalette(t, s, e, w, h, fg string) *Palette {
	return &Palette{
		title:  NewBold(t).MarginBottom(1),
		ok:     NewBold(s),
		err:    NewBold(e),
		warn:   NewStyle(w),
		help:   NewEm(h),
		text:   NewStyle(fg),
		panel:  lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color(h)).Padding(0, 1),
		active: NewBold(t).Underline(true),
	}
}

// paletteFor returns the stylesheet for theme.
func paletteFor(theme models.Theme) *Palette {
	if theme == models.ThemeLight {
		return lightPalette
	}
	return darkPalette
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
