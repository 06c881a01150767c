package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/starford/roadmap/internal/models"
)

// Palette holds the colors for one resolved theme. All colors are ANSI
// 256-color codes for broad terminal compatibility.
type Palette struct {
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	SelectedForeground lipgloss.Color

	StatusPending    lipgloss.Color
	StatusInProgress lipgloss.Color
	StatusCompleted  lipgloss.Color

	Favorite lipgloss.Color
}

var (
	darkPalette = Palette{
		NormalText:         lipgloss.Color("252"),
		FaintText:          lipgloss.Color("243"),
		SelectedForeground: lipgloss.Color("231"),
		StatusPending:      lipgloss.Color("245"),
		StatusInProgress:   lipgloss.Color("220"),
		StatusCompleted:    lipgloss.Color("78"),
		Favorite:           lipgloss.Color("214"),
	}
	lightPalette = Palette{
		NormalText:         lipgloss.Color("235"),
		FaintText:          lipgloss.Color("245"),
		SelectedForeground: lipgloss.Color("231"),
		StatusPending:      lipgloss.Color("242"),
		StatusInProgress:   lipgloss.Color("130"),
		StatusCompleted:    lipgloss.Color("28"),
		Favorite:           lipgloss.Color("166"),
	}

	accents = map[string]lipgloss.Color{
		models.AccentIndigo:  lipgloss.Color("63"),
		models.AccentEmerald: lipgloss.Color("36"),
		models.AccentRose:    lipgloss.Color("204"),
	}
)

// styles is the rendered form of the current preferences.
type styles struct {
	palette Palette
	accent  lipgloss.Color

	title    lipgloss.Style
	header   lipgloss.Style
	normal   lipgloss.Style
	faint    lipgloss.Style
	selected lipgloss.Style
	favorite lipgloss.Style
	prompt   lipgloss.Style
	warning  lipgloss.Style
}

// newStyles resolves prefs into styles. systemDark decides the "system" theme.
func newStyles(prefs models.Preferences, systemDark bool) styles {
	palette := darkPalette
	if prefs.EffectiveTheme(systemDark) == models.ThemeLight {
		palette = lightPalette
	}
	accent, ok := accents[prefs.AccentColor]
	if !ok {
		accent = accents[models.AccentIndigo]
	}

	return styles{
		palette:  palette,
		accent:   accent,
		title:    lipgloss.NewStyle().Bold(true).Foreground(accent),
		header:   lipgloss.NewStyle().Foreground(palette.NormalText),
		normal:   lipgloss.NewStyle().Foreground(palette.NormalText),
		faint:    lipgloss.NewStyle().Foreground(palette.FaintText),
		selected: lipgloss.NewStyle().Bold(true).Foreground(palette.SelectedForeground).Background(accent),
		favorite: lipgloss.NewStyle().Foreground(palette.Favorite),
		prompt:   lipgloss.NewStyle().Foreground(accent),
		warning:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
	}
}

// status returns the marker and color for a node status.
func (s styles) status(status models.Status) lipgloss.Style {
	switch status {
	case models.StatusInProgress:
		return lipgloss.NewStyle().Foreground(s.palette.StatusInProgress)
	case models.StatusCompleted:
		return lipgloss.NewStyle().Foreground(s.palette.StatusCompleted)
	default:
		return lipgloss.NewStyle().Foreground(s.palette.StatusPending)
	}
}

func statusMarker(status models.Status) string {
	switch status {
	case models.StatusInProgress:
		return "◐"
	case models.StatusCompleted:
		return "●"
	default:
		return "○"
	}
}
