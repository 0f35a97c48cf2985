package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/blockrun-report/internal/services/presentation"
	"github.com/j-veylop/blockrun-report/internal/ui/styles"
)

// EmptyPeriodMessage is shown for periods without records.
const EmptyPeriodMessage = "No data available."

// PeriodView holds everything needed to draw one period in the terminal.
type PeriodView struct {
	Heading string
	Bundle  *presentation.Bundle // nil for an empty period
	Palette presentation.Palette
	Width   int

	// Animated draws the gauge at its animated position instead of the
	// bundle's rate.
	Animated bool
}

// RenderPeriod draws the KPI line, gauge, share bar, tier badges and the
// model table of one period.
func RenderPeriod(v PeriodView, gauge SavingsGauge) string {
	width := max(v.Width, 40)
	title := styles.TitleStyle.Render(v.Heading)

	if v.Bundle == nil {
		return lipgloss.JoinVertical(lipgloss.Left, title, styles.HelpStyle.Render(EmptyPeriodMessage))
	}
	b := v.Bundle

	gauge.SetWidth(width / 2)
	gaugeView := gauge.ViewAs(b.Gauge)
	if v.Animated {
		gaugeView = gauge.View(b.Gauge)
	}

	sections := []string{
		title,
		RenderKPIs(b),
		"",
		styles.SubTitleStyle.Render("Savings Rate"),
		gaugeView,
		"",
		styles.SubTitleStyle.Render("Actual Cost Share"),
		RenderShareBar(b.Share, v.Palette, width-4),
		RenderLegend(shareLegend(b)),
		"",
		styles.SubTitleStyle.Render("Routing Tiers"),
		RenderTierBadges(b.Tiers),
		"",
		styles.SubTitleStyle.Render("Model Breakdown"),
		RenderModelTable(b.Rows, b.HasTokens, width),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// RenderTimelineCard draws the cost timeline and latency histogram.
func RenderTimelineCard(v PeriodView, height int) string {
	if v.Bundle == nil {
		return styles.HelpStyle.Render(EmptyPeriodMessage)
	}
	b := v.Bundle
	width := max(v.Width, 40)

	title := "Cost Timeline per Minute"
	if b.Global {
		title = "Cost Timeline per Day"
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		styles.SubTitleStyle.Render(title),
		RenderTimeline(b.Timeline, width-12, height, ""),
		RenderLegend(TimelineLegend(b.Timeline, v.Palette)),
		"",
		styles.SubTitleStyle.Render("Latency Distribution"),
		RenderBarChart(b.Latency.Counts, b.Latency.Labels, width),
	)
}

func shareLegend(b *presentation.Bundle) []LegendItem {
	items := make([]LegendItem, 0, len(b.Rows))
	for _, r := range b.Rows {
		items = append(items, LegendItem{Label: r.Short, Color: r.Color})
	}
	return items
}

// Summary renders a period for plain terminal output.
func Summary(v PeriodView, chartHeight int) string {
	gauge := NewSavingsGauge(max(v.Width, 40) / 2)
	parts := []string{RenderPeriod(v, gauge)}
	if v.Bundle != nil {
		parts = append(parts, "", RenderTimelineCard(v, chartHeight))
	}
	return strings.Join(parts, "\n") + "\n"
}
