// Package timeline provides the cost timeline and latency tab.
package timeline

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/blockrun-report/internal/app"
)

// Chart heights the tab cycles through.
var chartHeights = []int{8, 12, 16}

type keyMap struct {
	Taller key.Binding
	Up     key.Binding
	Down   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Taller: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "chart height"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "scroll down"),
		),
	}
}

// Model represents the timeline tab state.
type Model struct {
	state    *app.State
	width    int
	height   int
	keys     keyMap
	viewport viewport.Model
	heightIx int
}

// New creates a new timeline model.
func New(state *app.State) *Model {
	return &Model{
		state:    state,
		keys:     defaultKeyMap(),
		viewport: viewport.New(0, 0),
	}
}

// Init initializes the timeline tab.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the timeline tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case app.PeriodChangedMsg:
		m.viewport.GotoTop()
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Taller) {
			m.heightIx = (m.heightIx + 1) % len(chartHeights)
			return m, nil
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

// ChartHeight returns the current timeline height in rows.
func (m *Model) ChartHeight() int {
	return chartHeights[m.heightIx]
}

// SetSize sets the available size for the timeline tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = max(height-2, 0)
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.Taller,
		m.keys.Down,
	}
}
