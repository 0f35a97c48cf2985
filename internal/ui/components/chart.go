// Package components provides reusable terminal rendering pieces.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/guptarohit/asciigraph"

	"github.com/j-veylop/blockrun-report/internal/services/presentation"
	"github.com/j-veylop/blockrun-report/internal/ui/styles"
)

// slotColors approximates the five model color slots in ANSI colors.
var slotColors = []asciigraph.AnsiColor{
	asciigraph.Cyan,
	asciigraph.HotPink,
	asciigraph.Gold,
	asciigraph.LightGreen,
	asciigraph.Violet,
}

// SlotColor returns the chart color for a model color slot.
func SlotColor(slot int) asciigraph.AnsiColor {
	n := len(slotColors)
	return slotColors[((slot%n)+n)%n]
}

// RenderTimeline draws one line per model over the densified buckets.
func RenderTimeline(tl presentation.TimelineChart, width, height int, caption string) string {
	if len(tl.Labels) == 0 || len(tl.Series) == 0 {
		return styles.HelpStyle.Render("No timeline data")
	}

	// Ensure minimum dimensions
	if width < 20 {
		width = 20
	}
	if height < 3 {
		height = 3
	}

	data := make([][]float64, 0, len(tl.Series))
	colors := make([]asciigraph.AnsiColor, 0, len(tl.Series))
	for _, s := range tl.Series {
		values := s.Values
		// A single bucket still needs two points to draw a line.
		if len(values) == 1 {
			values = []float64{values[0], values[0]}
		}
		data = append(data, values)
		colors = append(colors, SlotColor(s.Slot))
	}

	if caption == "" {
		caption = fmt.Sprintf("%s → %s", tl.Labels[0], tl.Labels[len(tl.Labels)-1])
	}

	return asciigraph.PlotMany(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Precision(4),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(colors...),
	)
}

// RenderBarChart creates a simple horizontal bar chart of counts.
func RenderBarChart(values []int, labels []string, width int) string {
	if len(values) == 0 {
		return ""
	}

	maxVal := 0
	for _, v := range values {
		if v > maxVal {
			maxVal = v
		}
	}
	if maxVal == 0 {
		maxVal = 1
	}

	maxLabelLen := 0
	for _, l := range labels {
		if w := ansi.StringWidth(l); w > maxLabelLen {
			maxLabelLen = w
		}
	}

	barWidth := width - maxLabelLen - 10 // Leave room for label and value
	if barWidth < 10 {
		barWidth = 10
	}

	barStyle := lipgloss.NewStyle().Foreground(styles.Warning)

	var lines []string
	for i, v := range values {
		label := ""
		if i < len(labels) {
			label = labels[i]
		}

		paddedLabel := strings.Repeat(" ", maxLabelLen-ansi.StringWidth(label)) + label

		barLen := v * barWidth / maxVal
		if v > 0 && barLen == 0 {
			barLen = 1
		}

		bar := barStyle.Render(strings.Repeat("█", barLen))
		line := paddedLabel + " │" + bar + fmt.Sprintf(" %d", v)
		lines = append(lines, line)
	}

	return strings.Join(lines, "\n")
}

// sparkChars are the sparkline levels from low to high.
var sparkChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// RenderSparkline creates a compact inline sparkline chart.
func RenderSparkline(values []float64, width int) string {
	if len(values) == 0 || width < 1 {
		return ""
	}

	maxVal := 0.0
	for _, v := range values {
		if v > maxVal {
			maxVal = v
		}
	}
	if maxVal == 0 {
		maxVal = 1
	}

	// Sample values to fit width
	var result strings.Builder
	step := float64(len(values)) / float64(width)
	if step < 1 {
		step = 1
	}

	for i := 0; i < width && int(float64(i)*step) < len(values); i++ {
		val := values[int(float64(i)*step)]
		normalized := int((val / maxVal) * float64(len(sparkChars)-1))
		normalized = min(max(normalized, 0), len(sparkChars)-1)
		result.WriteRune(sparkChars[normalized])
	}

	return result.String()
}

// LegendItem represents a single legend entry.
type LegendItem struct {
	Label string
	Color presentation.Swatch
}

// RenderLegend creates a chart legend.
func RenderLegend(items []LegendItem) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		colorBox := styles.Swatch(item.Color).Render("■")
		parts = append(parts, fmt.Sprintf("%s %s", colorBox, item.Label))
	}
	return strings.Join(parts, "  ")
}

// TimelineLegend builds legend entries for the timeline series.
func TimelineLegend(tl presentation.TimelineChart, palette presentation.Palette) []LegendItem {
	items := make([]LegendItem, 0, len(tl.Series))
	for _, s := range tl.Series {
		items = append(items, LegendItem{Label: s.Label, Color: palette.Model(s.Slot)})
	}
	return items
}
