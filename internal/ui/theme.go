package ui

import (
	"image/color"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/oakwood-commons/pausecomplete/internal/config"
)

// Theme defines the colors of the editor.
type Theme struct {
	SelectedFG color.Color // Selected popup row
	BorderFG   color.Color // Popup border
	MutedFG    color.Color // Status line and unselected rows
	ErrorFG    color.Color // Failed resolution status
}

var fallbackColors = config.ColorConfig{Selected: "212", Border: "63", Muted: "241", Error: "196"}

// ThemeFromConfig builds a theme from configured color strings. Empty entries
// fall back to the embedded defaults.
func ThemeFromConfig(cfg config.ColorConfig) Theme {
	def := fallbackColors
	if d, err := config.Default(); err == nil {
		def = d.UI.Colors
	}
	pick := func(val, fallback string) color.Color {
		if strings.TrimSpace(val) == "" {
			val = fallback
		}
		return lipgloss.Color(val)
	}
	return Theme{
		SelectedFG: pick(cfg.Selected, def.Selected),
		BorderFG:   pick(cfg.Border, def.Border),
		MutedFG:    pick(cfg.Muted, def.Muted),
		ErrorFG:    pick(cfg.Error, def.Error),
	}
}

type styles struct {
	popup    lipgloss.Style
	selected lipgloss.Style
	row      lipgloss.Style
	status   lipgloss.Style
	err      lipgloss.Style
}

func newStyles(th Theme, noColor bool) styles {
	popup := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).PaddingLeft(1).PaddingRight(1)
	if noColor {
		plain := lipgloss.NewStyle()
		return styles{popup: popup, selected: plain.Reverse(true), row: plain, status: plain, err: plain}
	}
	return styles{
		popup:    popup.BorderForeground(th.BorderFG),
		selected: lipgloss.NewStyle().Foreground(th.SelectedFG).Bold(true),
		row:      lipgloss.NewStyle().Foreground(th.MutedFG),
		status:   lipgloss.NewStyle().Foreground(th.MutedFG),
		err:      lipgloss.NewStyle().Foreground(th.ErrorFG),
	}
}
