package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"

	"github.com/j-veylop/blockrun-report/internal/services/presentation"
	"github.com/j-veylop/blockrun-report/internal/ui/styles"
)

// Column widths of the model table.
const (
	modelColMin = 12
	numColWidth = 10
	pctColWidth = 7
	tokColWidth = 12
	latColWidth = 9
)

// FormatUSD formats an amount with a dollar sign and fixed decimals.
func FormatUSD(v float64, places int) string {
	return fmt.Sprintf("$%.*f", places, v)
}

// FormatCount formats an integer with thousands separators.
func FormatCount(n int64) string {
	return humanize.Comma(n)
}

// RenderModelTable draws the per-model breakdown. The Tokens column only
// appears when hasTokens is set.
func RenderModelTable(rows []presentation.ModelRow, hasTokens bool, width int) string {
	if len(rows) == 0 {
		return styles.HelpStyle.Render("No models")
	}

	fixed := numColWidth*4 + pctColWidth + latColWidth
	if hasTokens {
		fixed += tokColWidth
	}
	modelWidth := max(width-fixed-2, modelColMin)

	cell := func(s string, w int) string {
		return lipgloss.NewStyle().Width(w).Align(lipgloss.Right).Render(ansi.Truncate(s, w, "…"))
	}

	header := []string{
		lipgloss.NewStyle().Width(modelWidth + 2).Render("Model"),
		cell("Req", numColWidth),
		cell("Actual", numColWidth),
		cell("Baseline", numColWidth),
		cell("Saved", numColWidth),
		cell("Rate", pctColWidth),
	}
	if hasTokens {
		header = append(header, cell("Tokens", tokColWidth))
	}
	header = append(header, cell("Avg Lat", latColWidth))

	lines := []string{styles.TableHeaderStyle.Render(strings.Join(header, ""))}

	for _, r := range rows {
		swatch := styles.Swatch(r.Color)
		name := lipgloss.NewStyle().Width(modelWidth).Render(ansi.Truncate(r.Short, modelWidth, "…"))

		parts := []string{
			swatch.Render("●") + " " + name,
			cell(FormatCount(int64(r.Count)), numColWidth),
			cell(FormatUSD(r.Cost, 4), numColWidth),
			styles.DimStyle.Render(cell(FormatUSD(r.Baseline, 4), numColWidth)),
			swatch.Render(cell(FormatUSD(r.Savings, 4), numColWidth)),
			swatch.Render(cell(fmt.Sprintf("%.1f%%", r.SavingsPct), pctColWidth)),
		}
		if hasTokens {
			tokens := "—"
			if r.TotalTokens > 0 {
				tokens = FormatCount(r.TotalTokens)
			}
			parts = append(parts, cell(tokens, tokColWidth))
		}
		parts = append(parts, styles.DimStyle.Render(cell(fmt.Sprintf("%.0f ms", r.AvgLatency), latColWidth)))

		lines = append(lines, strings.Join(parts, ""))
	}

	return strings.Join(lines, "\n")
}

// RenderTierBadges draws one colored badge per routing tier.
func RenderTierBadges(tiers []presentation.TierBadge) string {
	if len(tiers) == 0 {
		return ""
	}
	badges := make([]string, 0, len(tiers))
	for _, t := range tiers {
		style := styles.Swatch(t.Color)
		badge := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(style.GetForeground()).
			Padding(0, 1).
			Render(fmt.Sprintf("%s  %s req  %s",
				style.Bold(true).Render(t.Name),
				FormatCount(int64(t.Count)),
				style.Render(FormatUSD(t.Cost, 4)),
			))
		badges = append(badges, badge)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, badges...)
}

// RenderKPIs draws the request, cost, baseline, savings and latency figures
// on one line.
func RenderKPIs(b *presentation.Bundle) string {
	kpi := func(label, value string) string {
		return lipgloss.JoinVertical(lipgloss.Left,
			styles.KPILabelStyle.Render(label),
			styles.KPIValueStyle.Render(value),
		)
	}
	gap := "    "
	return lipgloss.JoinHorizontal(lipgloss.Top,
		kpi("Requests", FormatCount(int64(b.TotalRequests))), gap,
		kpi("Actual Cost", FormatUSD(b.TotalCost, 4)), gap,
		kpi("Baseline Cost", FormatUSD(b.TotalBaseline, 2)), gap,
		kpi("Real Savings", FormatUSD(b.RealSavings, 2)), gap,
		kpi("Avg Latency", fmt.Sprintf("%.0f ms", b.AvgLatency)),
	)
}
