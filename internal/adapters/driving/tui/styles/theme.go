// Package styles defines the colour palette and lipgloss styles shared
// by every TUI view.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Palette maps the semantic colour roles the views draw with. Adaptive
// colours pick the variant matching the terminal background, so the
// same styles read on both light and dark terminals.
type Palette struct {
	Accent    lipgloss.AdaptiveColor // headings, the selected result
	Detail    lipgloss.AdaptiveColor // document names, query variants
	Text      lipgloss.AdaptiveColor
	Dim       lipgloss.AdaptiveColor // snippets, hints, counts
	Positive  lipgloss.AdaptiveColor
	Caution   lipgloss.AdaptiveColor
	Negative  lipgloss.AdaptiveColor
	Frame     lipgloss.AdaptiveColor // borders around inputs and previews
	BarGround lipgloss.AdaptiveColor // status bar background
}

// QuarryPalette is the default look: warm ochre accents over slate.
func QuarryPalette() Palette {
	return Palette{
		Accent:    lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#E8A33D"},
		Detail:    lipgloss.AdaptiveColor{Light: "#0E7490", Dark: "#22D3EE"},
		Text:      lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#D6DEEB"},
		Dim:       lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#7A8193"},
		Positive:  lipgloss.AdaptiveColor{Light: "#15803D", Dark: "#8FD694"},
		Caution:   lipgloss.AdaptiveColor{Light: "#A16207", Dark: "#E9D08A"},
		Negative:  lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#ED8796"},
		Frame:     lipgloss.AdaptiveColor{Light: "#D1D5DB", Dark: "#3B3F51"},
		BarGround: lipgloss.AdaptiveColor{Light: "#E5E7EB", Dark: "#16161F"},
	}
}

// Styles holds the pre-built lipgloss styles views render with.
type Styles struct {
	Title      lipgloss.Style
	Subtitle   lipgloss.Style
	Normal     lipgloss.Style
	Muted      lipgloss.Style
	Selected   lipgloss.Style
	Error      lipgloss.Style
	Success    lipgloss.Style
	Warning    lipgloss.Style
	InputField lipgloss.Style
	StatusBar  lipgloss.Style
	Help       lipgloss.Style
	Border     lipgloss.Style
}

// Build derives the full style set from the palette.
func (p Palette) Build() *Styles {
	frame := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(p.Frame)

	return &Styles{
		Title:      lipgloss.NewStyle().Bold(true).Foreground(p.Accent),
		Subtitle:   lipgloss.NewStyle().Bold(true).Foreground(p.Detail),
		Normal:     lipgloss.NewStyle().Foreground(p.Text),
		Muted:      lipgloss.NewStyle().Foreground(p.Dim),
		Selected:   lipgloss.NewStyle().Bold(true).Foreground(p.Text).Background(p.Accent),
		Error:      lipgloss.NewStyle().Foreground(p.Negative),
		Success:    lipgloss.NewStyle().Foreground(p.Positive),
		Warning:    lipgloss.NewStyle().Foreground(p.Caution),
		InputField: frame.Padding(0, 1),
		StatusBar:  lipgloss.NewStyle().Foreground(p.Dim).Background(p.BarGround).Padding(0, 1),
		Help:       lipgloss.NewStyle().Foreground(p.Dim),
		Border:     frame,
	}
}

// DefaultStyles builds the quarry palette's styles.
func DefaultStyles() *Styles {
	return QuarryPalette().Build()
}
