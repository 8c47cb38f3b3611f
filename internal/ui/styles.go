package ui

import (
	"time"

	"github.com/charmbracelet/lipgloss"
)

// timeRounding is the display precision for durations in summaries.
const timeRounding = 10 * time.Millisecond

// Color palette, ANSI 256.
const (
	colorCyan     = "51"  // Primary accent
	colorCyanDim  = "37"  // Dimmed accent for finished stages
	colorWhite    = "255" // Headers
	colorGray     = "245" // Secondary text
	colorDarkGray = "238" // Pending stages
	colorGreen    = "42"  // Completion
)

// Styles holds the lipgloss styles for TUI rendering.
type Styles struct {
	Header  lipgloss.Style
	Active  lipgloss.Style
	Done    lipgloss.Style
	Pending lipgloss.Style
	Detail  lipgloss.Style
	Summary lipgloss.Style
}

// DefaultStyles returns styled components for TUI mode.
func DefaultStyles() Styles {
	return Styles{
		Header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorWhite)),
		Active:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorCyan)),
		Done:    lipgloss.NewStyle().Foreground(lipgloss.Color(colorCyanDim)),
		Pending: lipgloss.NewStyle().Foreground(lipgloss.Color(colorDarkGray)),
		Detail:  lipgloss.NewStyle().Foreground(lipgloss.Color(colorGray)),
		Summary: lipgloss.NewStyle().Foreground(lipgloss.Color(colorGreen)),
	}
}

// NoColorStyles returns unstyled components for NO_COLOR mode.
func NoColorStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{
		Header:  plain,
		Active:  plain,
		Done:    plain,
		Pending: plain,
		Detail:  plain,
		Summary: plain,
	}
}
