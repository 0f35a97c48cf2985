package dashboard

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/blockrun-report/internal/ui/components"
	"github.com/j-veylop/blockrun-report/internal/ui/styles"
)

// View renders the dashboard component.
func (m *Model) View() string {
	if m.state.Report() == nil {
		if err := m.state.Err(); err != nil {
			return m.renderError(err)
		}
		return components.RenderSpinnerCentered(m.spinner, m.width, m.height)
	}

	sec, ok := m.state.Current()
	if !ok {
		return ""
	}

	content := components.RenderPeriod(components.PeriodView{
		Heading:  sec.Heading(),
		Bundle:   sec.Bundle,
		Palette:  m.state.Palette(),
		Width:    max(m.width-8, 40),
		Animated: true,
	}, m.gauge)

	m.viewport.SetContent(content)

	return styles.DocStyle.Render(m.viewport.View())
}

func (m *Model) renderError(err error) string {
	body := lipgloss.JoinVertical(lipgloss.Left,
		styles.ErrorTextStyle.Render("Failed to load usage logs"),
		"",
		styles.HelpStyle.Render(err.Error()),
		"",
		styles.DimStyle.Render("Press r to retry"),
	)
	return styles.CenterBoth(styles.CardStyle.Render(body), m.width, m.height)
}
