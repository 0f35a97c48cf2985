package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/blockrun-report/internal/services/presentation"
	"github.com/j-veylop/blockrun-report/internal/ui/styles"
)

// SavingsGauge renders the savings rate as a progress bar.
type SavingsGauge struct {
	progress progress.Model
	rate     float64
}

// NewSavingsGauge creates a gauge with a red to green gradient.
func NewSavingsGauge(width int) SavingsGauge {
	p := progress.New(
		progress.WithScaledGradient("#ff6b6b", "#86efac"),
		progress.WithWidth(max(width, 10)),
		progress.WithoutPercentage(),
	)
	return SavingsGauge{progress: p}
}

// Update forwards animation frames to the progress bar.
func (g SavingsGauge) Update(msg tea.Msg) (SavingsGauge, tea.Cmd) {
	if _, ok := msg.(progress.FrameMsg); !ok {
		return g, nil
	}
	model, cmd := g.progress.Update(msg)
	g.progress = model.(progress.Model)
	return g, cmd
}

// SetRate animates the bar towards rate, a percentage in [0, 100].
func (g *SavingsGauge) SetRate(rate float64) tea.Cmd {
	g.rate = rate
	return g.progress.SetPercent(math.Min(math.Max(rate/100, 0), 1))
}

// Rate returns the last rate set.
func (g SavingsGauge) Rate() float64 {
	return g.rate
}

// SetWidth sets the bar width.
func (g *SavingsGauge) SetWidth(width int) {
	g.progress.Width = max(width, 10)
}

// View renders the animated bar with the percentage styled by level.
func (g SavingsGauge) View(arc presentation.GaugeArc) string {
	return g.join(g.progress.View(), arc)
}

// ViewAs renders the bar at the arc's rate without animation.
func (g SavingsGauge) ViewAs(arc presentation.GaugeArc) string {
	return g.join(g.progress.ViewAs(math.Min(math.Max(arc.Rate/100, 0), 1)), arc)
}

func (g SavingsGauge) join(bar string, arc presentation.GaugeArc) string {
	pct := styles.GetGaugeStyle(arc.Level).
		Width(6).
		Align(lipgloss.Right).
		Render(fmt.Sprintf("%.0f%%", arc.Rate))
	return lipgloss.JoinHorizontal(lipgloss.Center, bar, " ", pct, " ", styles.HelpStyle.Render("SAVED"))
}

// RenderShareBar draws the cost share as one bar split by model color.
func RenderShareBar(share presentation.ShareSeries, palette presentation.Palette, width int) string {
	if width < 1 || len(share.Values) == 0 {
		return ""
	}

	total := 0.0
	for _, v := range share.Values {
		total += v
	}
	if total <= 0 {
		return lipgloss.NewStyle().Foreground(styles.Subtle).Render(strings.Repeat("░", width))
	}

	var b strings.Builder
	used := 0
	for i, v := range share.Values {
		cells := int(math.Round(v / total * float64(width)))
		if i == len(share.Values)-1 {
			cells = width - used
		}
		cells = min(cells, width-used)
		if cells <= 0 {
			continue
		}
		slot := i
		if i < len(share.Slots) {
			slot = share.Slots[i]
		}
		b.WriteString(styles.Swatch(palette.Model(slot)).Render(strings.Repeat("█", cells)))
		used += cells
	}
	return b.String()
}
