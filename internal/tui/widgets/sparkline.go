// ABOUTME: Sparkline widget renders mini vote-activity charts using block characters
// ABOUTME: Scales counts against zero so quiet polls stay at the baseline

package widgets

import (
	"github.com/charmbracelet/lipgloss"
)

// SparklineBlocks are the Unicode block characters for different heights
var SparklineBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline renders counts (oldest first) as a width-character chart
func Sparkline(counts []int, width int, color lipgloss.Color) string {
	if len(counts) == 0 || width <= 0 {
		return ""
	}

	sampled := sampleCounts(counts, width)

	peak := 0
	for _, v := range sampled {
		if v > peak {
			peak = v
		}
	}

	result := make([]rune, len(sampled))
	for i, v := range sampled {
		result[i] = countToBlock(v, peak)
	}

	style := lipgloss.NewStyle()
	if color != "" {
		style = style.Foreground(color)
	}
	return style.Render(string(result))
}

// sampleCounts resamples counts to width, padding short input with zeros on the left
func sampleCounts(counts []int, width int) []int {
	if len(counts) == width {
		return counts
	}

	result := make([]int, width)
	if len(counts) < width {
		copy(result[width-len(counts):], counts)
		return result
	}

	ratio := float64(len(counts)) / float64(width)
	for i := 0; i < width; i++ {
		idx := int(float64(i) * ratio)
		if idx >= len(counts) {
			idx = len(counts) - 1
		}
		result[i] = counts[idx]
	}
	return result
}

// countToBlock maps a count to a block height relative to peak
func countToBlock(count, peak int) rune {
	if peak <= 0 || count <= 0 {
		return SparklineBlocks[0]
	}
	idx := count * (len(SparklineBlocks) - 1) / peak
	if idx >= len(SparklineBlocks) {
		idx = len(SparklineBlocks) - 1
	}
	return SparklineBlocks[idx]
}
