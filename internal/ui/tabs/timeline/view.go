package timeline

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/blockrun-report/internal/ui/components"
	"github.com/j-veylop/blockrun-report/internal/ui/styles"
)

// View renders the timeline tab.
func (m *Model) View() string {
	sec, ok := m.state.Current()
	if !ok {
		return styles.CenterBoth(styles.HelpStyle.Render("Waiting for usage logs..."), m.width, m.height)
	}

	title := styles.TitleStyle.Render(sec.Heading())
	subtitle := styles.HelpStyle.Render(fmt.Sprintf("Chart height %d rows", m.ChartHeight()))
	if sec.Bundle != nil {
		subtitle = styles.HelpStyle.Render(fmt.Sprintf("%d points · avg latency %.0f ms · chart height %d rows",
			len(sec.Bundle.Timeline.Labels), sec.Bundle.AvgLatency, m.ChartHeight()))
	}

	card := components.RenderTimelineCard(components.PeriodView{
		Heading: sec.Heading(),
		Bundle:  sec.Bundle,
		Palette: m.state.Palette(),
		Width:   max(m.width-8, 40),
	}, m.ChartHeight())

	content := lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "", card)
	m.viewport.SetContent(content)

	return styles.DocStyle.Render(m.viewport.View())
}
