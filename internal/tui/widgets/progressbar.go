// ABOUTME: Result bars showing each option's share of the votes
// ABOUTME: The leading option is drawn in its own color

package widgets

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ResultBarConfig holds configuration for result bars
type ResultBarConfig struct {
	Width       int
	FillColor   lipgloss.Color
	LeaderColor lipgloss.Color
	EmptyColor  lipgloss.Color
}

// DefaultResultBarConfig returns sensible defaults
func DefaultResultBarConfig() ResultBarConfig {
	return ResultBarConfig{
		Width:       24,
		FillColor:   lipgloss.Color("#8B5CF6"), // Light purple
		LeaderColor: lipgloss.Color("#10B981"), // Green
		EmptyColor:  lipgloss.Color("#374151"), // Dark gray
	}
}

func clampPercent(percent float64) float64 {
	if percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return percent
}

// ResultBar renders a bracketed bar for percent of the votes
func ResultBar(percent float64, leader bool, config ResultBarConfig) string {
	if config.Width <= 0 {
		config.Width = 24
	}

	filled := int(clampPercent(percent) / 100.0 * float64(config.Width))

	color := config.FillColor
	if leader {
		color = config.LeaderColor
	}
	filledStyle := lipgloss.NewStyle().Foreground(color)
	emptyStyle := lipgloss.NewStyle().Foreground(config.EmptyColor)

	var bar strings.Builder
	bar.WriteString("[")
	bar.WriteString(filledStyle.Render(strings.Repeat("█", filled)))
	bar.WriteString(emptyStyle.Render(strings.Repeat("░", config.Width-filled)))
	bar.WriteString("]")
	return bar.String()
}

// CompactProgressBar renders a minimal bar for tight spaces
func CompactProgressBar(percent float64, width int, color lipgloss.Color) string {
	if width <= 0 {
		width = 10
	}

	filled := int(clampPercent(percent) / 100.0 * float64(width))
	empty := width - filled

	return lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("▓", filled)) +
		lipgloss.NewStyle().Foreground(lipgloss.Color("#374151")).Render(strings.Repeat("░", empty))
}
