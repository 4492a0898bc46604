// ABOUTME: Compact metric block widget for the home screen
// ABOUTME: Combines icon, value, optional sparkline and subtitle in a bordered box

package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/markalston/quickpoll/internal/tui/icons"
)

// MetricBlockConfig holds configuration for a metric block
type MetricBlockConfig struct {
	Width       int
	BorderColor lipgloss.Color
	TitleColor  lipgloss.Color
	ValueColor  lipgloss.Color
}

// DefaultMetricBlockConfig returns sensible defaults
func DefaultMetricBlockConfig() MetricBlockConfig {
	return MetricBlockConfig{
		Width:       24,
		BorderColor: lipgloss.Color("#6B7280"), // Muted gray
		TitleColor:  lipgloss.Color("#7C3AED"), // Purple
		ValueColor:  lipgloss.Color("#F9FAFB"), // Light
	}
}

// MetricBlock renders a compact metric display block
func MetricBlock(icon icons.Icon, title, value, subtitle string, config MetricBlockConfig) string {
	return metricBlock(icon, title, lipgloss.NewStyle().Foreground(config.ValueColor).Bold(true).Render(value), subtitle, config)
}

// MetricBlockWithSparkline renders a metric block with a sparkline after the value
func MetricBlockWithSparkline(icon icons.Icon, title, value string, counts []int, subtitle string, config MetricBlockConfig) string {
	valueStyle := lipgloss.NewStyle().Foreground(config.ValueColor).Bold(true)
	spark := Sparkline(counts, 8, lipgloss.Color("#7C3AED"))
	return metricBlock(icon, title, valueStyle.Render(value)+"  "+spark, subtitle, config)
}

func metricBlock(icon icons.Icon, title, valueLine, subtitle string, config MetricBlockConfig) string {
	if config.Width <= 0 {
		config.Width = 24
	}
	// border + padding
	innerWidth := config.Width - 4

	titleStr := fmt.Sprintf("%s %s", icon.String(), title)
	titleStyle := lipgloss.NewStyle().Foreground(config.TitleColor)
	topBorder := fmt.Sprintf("┌─ %s %s┐",
		titleStyle.Render(titleStr),
		strings.Repeat("─", max(0, innerWidth-lipgloss.Width(titleStr)-1)))

	subtitleStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	bottomBorder := fmt.Sprintf("└%s┘", strings.Repeat("─", config.Width-2))
	borderStyle := lipgloss.NewStyle().Foreground(config.BorderColor)

	return strings.Join([]string{
		borderStyle.Render(topBorder),
		borderStyle.Render("│ ") + padRight(valueLine, innerWidth) + borderStyle.Render(" │"),
		borderStyle.Render("│ ") + padRight(subtitleStyle.Render(truncate(subtitle, innerWidth)), innerWidth) + borderStyle.Render(" │"),
		borderStyle.Render(bottomBorder),
	}, "\n")
}

// padRight pads styled text to a display width
func padRight(s string, width int) string {
	return s + strings.Repeat(" ", max(0, width-lipgloss.Width(s)))
}

// truncate shortens a string to maxLen runes with ellipsis if needed
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
