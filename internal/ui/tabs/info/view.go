package info

import (
	"fmt"
	"runtime"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/j-veylop/blockrun-report/internal/services"
	"github.com/j-veylop/blockrun-report/internal/services/presentation"
	"github.com/j-veylop/blockrun-report/internal/ui/components"
	"github.com/j-veylop/blockrun-report/internal/ui/styles"
	"github.com/j-veylop/blockrun-report/internal/version"
)

const sparkWidth = 24

// View renders the info tab.
func (m *Model) View() string {
	sections := []string{
		m.renderTitle(),
		m.renderConfigCard(),
		m.renderReportCard(),
		m.renderPeriodsCard(),
		m.renderAboutCard(),
	}

	m.viewport.SetContent(lipgloss.JoinVertical(lipgloss.Left, sections...))

	return styles.DocStyle.Render(m.viewport.View())
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Info")
	subtitle := styles.HelpStyle.Render("Configuration, report metadata and available periods")

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) cardWidth() int {
	return min(max(m.width-8, 50), 100)
}

func (m *Model) card(title string, rows ...string) string {
	body := append([]string{styles.CardTitleStyle.Render(title), ""}, rows...)
	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, body...),
	)
}

func (m *Model) renderConfigCard() string {
	if m.config == nil {
		return m.card("Configuration", styles.HelpStyle.Render("Configuration not loaded"))
	}
	c := m.config
	return m.card("Configuration",
		renderRow("Log Directory", orNone(c.LogDir)),
		renderRow("Report File", c.ReportPath()),
		renderRow("Archive", c.DatabasePath),
		renderRow("Listen Address", c.ListenAddr),
		renderRow("Theme", string(c.Theme)),
		renderRow("Cache TTL", c.CacheTTL.String()),
		renderRow("Watch Debounce", c.WatchDebounce.String()),
	)
}

func (m *Model) renderReportCard() string {
	rep := m.state.Report()
	if rep == nil {
		msg := "No report generated yet"
		if err := m.state.Err(); err != nil {
			msg = err.Error()
		}
		return m.card("Report", styles.HelpStyle.Render(msg))
	}

	return m.card("Report",
		renderRow("Source", rep.Source),
		renderRow("Run ID", rep.RunID),
		renderRow("Generated", fmt.Sprintf("%s (%s)", rep.GeneratedAt.Format("2006-01-02 15:04:05"), humanize.Time(rep.GeneratedAt))),
		renderRow("Loaded", humanize.Time(m.state.LastUpdated())),
		renderRow("Records", humanize.Comma(int64(rep.Records))),
		renderRow("Days", fmt.Sprintf("%d", len(rep.Days))),
	)
}

func (m *Model) renderPeriodsCard() string {
	rep := m.state.Report()
	if rep == nil {
		return m.card("Periods", styles.HelpStyle.Render("—"))
	}

	selected := m.state.Selected()
	rows := make([]string, 0, len(rep.Days)+1)
	for i, sec := range rep.Sections() {
		rows = append(rows, renderPeriodRow(sec, i == selected))
	}
	return m.card("Periods", rows...)
}

func renderPeriodRow(sec services.Section, selected bool) string {
	marker := "  "
	labelStyle := lipgloss.NewStyle().Width(12).Foreground(styles.TextSecondary)
	if selected {
		marker = lipgloss.NewStyle().Foreground(styles.Primary).Render("▸ ")
		labelStyle = labelStyle.Foreground(styles.Primary).Bold(true)
	}
	label := labelStyle.Render(sec.Label())

	if sec.Bundle == nil {
		return marker + label + styles.DimStyle.Render("no data")
	}
	b := sec.Bundle
	stats := fmt.Sprintf("%6s req  %s  %3.0f%% saved",
		humanize.Comma(int64(b.TotalRequests)), components.FormatUSD(b.TotalCost, 3), b.SavingsRate)
	spark := styles.InfoTextStyle.Render(components.RenderSparkline(bucketTotals(b.Timeline.Series), sparkWidth))
	return marker + label + stats + "  " + spark
}

// bucketTotals sums the timeline series into one value per bucket.
func bucketTotals(series []presentation.TimelineSeries) []float64 {
	if len(series) == 0 {
		return nil
	}
	totals := make([]float64, len(series[0].Values))
	for _, s := range series {
		for i, v := range s.Values {
			if i < len(totals) {
				totals[i] += v
			}
		}
	}
	return totals
}

func (m *Model) renderAboutCard() string {
	return m.card("About "+version.Name,
		renderRow("Version", version.GetVersion()),
		renderRow("Build Date", version.GetDate()),
		renderRow("Git Commit", version.GetCommit()),
		renderRow("Go Version", runtime.Version()),
		renderRow("Platform", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)),
	)
}

// renderRow renders a key-value row.
func renderRow(label, value string) string {
	labelStyle := lipgloss.NewStyle().
		Width(18).
		Foreground(styles.TextMuted)

	valueStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary)

	return labelStyle.Render(label+":") + " " + valueStyle.Render(value)
}

func orNone(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}
