package timeline

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/blockrun-report/internal/app"
	"github.com/j-veylop/blockrun-report/internal/loader"
	"github.com/j-veylop/blockrun-report/internal/models"
	"github.com/j-veylop/blockrun-report/internal/services"
	"github.com/j-veylop/blockrun-report/internal/ui/components"
)

type stubSource []loader.DaySet

func (s stubSource) Days() ([]loader.DaySet, error) { return s, nil }
func (s stubSource) Describe() string               { return "stub" }

func newLoaded(t *testing.T) (*Model, *app.State) {
	t.Helper()
	mgr := services.NewManager(stubSource{
		{Day: "2024-03-01", Records: []models.UsageRecord{
			{Timestamp: "2024-03-01T08:00:00Z", Model: "openai/gpt-4o", Tier: "SIMPLE", Cost: 0.5, BaselineCost: 1, LatencyMs: 120},
			{Timestamp: "2024-03-01T08:01:00Z", Model: "openai/gpt-4o", Tier: "SIMPLE", Cost: 0.25, BaselineCost: 1, LatencyMs: 480},
		}},
		{Day: "2024-02-29"},
	}, services.Options{})
	rep, err := mgr.Generate()
	if err != nil {
		t.Fatal(err)
	}
	state := app.NewState()
	state.SetReport(rep, mgr.Mapper().Palette(rep.Theme))

	m := New(state)
	m.SetSize(120, 80)
	return m, state
}

func TestModel_ViewWaiting(t *testing.T) {
	m := New(app.NewState())
	m.SetSize(80, 20)
	if !strings.Contains(m.View(), "Waiting for usage logs") {
		t.Error("view should wait for the first report")
	}
}

func TestModel_View(t *testing.T) {
	m, state := newLoaded(t)

	tests := []struct {
		index int
		want  []string
	}{
		{0, []string{"Aggregated Overview", "Cost Timeline per Day", "Latency Distribution"}},
		{1, []string{"Daily Report · 2024-03-01", "Cost Timeline per Minute", "gpt-4o"}},
		{2, []string{"Daily Report · 2024-02-29", components.EmptyPeriodMessage}},
	}
	for _, tt := range tests {
		state.Select(tt.index)
		m.Update(app.PeriodChangedMsg{Index: tt.index})
		view := m.View()
		for _, want := range tt.want {
			if !strings.Contains(view, want) {
				t.Errorf("period %d: view missing %q", tt.index, want)
			}
		}
	}
}

func TestModel_ChartHeight(t *testing.T) {
	m, _ := newLoaded(t)
	first := m.ChartHeight()

	for range chartHeights {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("t")})
	}
	if m.ChartHeight() != first {
		t.Errorf("height should cycle back to %d, got %d", first, m.ChartHeight())
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("t")})
	if m.ChartHeight() == first {
		t.Error("t should change the chart height")
	}
}
