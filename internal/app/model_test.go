package app

import (
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/blockrun-report/internal/loader"
	"github.com/j-veylop/blockrun-report/internal/models"
	"github.com/j-veylop/blockrun-report/internal/services"
	"github.com/j-veylop/blockrun-report/internal/services/presentation"
)

type stubSource struct {
	sets []loader.DaySet
	err  error
}

func (s stubSource) Days() ([]loader.DaySet, error) { return s.sets, s.err }
func (s stubSource) Describe() string               { return "/logs" }

// recordingTab records the messages it receives.
type recordingTab struct {
	name     string
	msgs     []tea.Msg
	width    int
	height   int
	initDone bool
}

func (r *recordingTab) Init() tea.Cmd {
	r.initDone = true
	return nil
}

func (r *recordingTab) Update(msg tea.Msg) (Tab, tea.Cmd) {
	r.msgs = append(r.msgs, msg)
	return r, nil
}

func (r *recordingTab) View() string { return "tab:" + r.name }

func (r *recordingTab) SetSize(w, h int) { r.width, r.height = w, h }

func (r *recordingTab) ShortHelp() []key.Binding {
	return []key.Binding{key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "do "+r.name))}
}

func (r *recordingTab) received(match func(tea.Msg) bool) bool {
	for _, m := range r.msgs {
		if match(m) {
			return true
		}
	}
	return false
}

func newTestModel() (*Model, []*recordingTab) {
	m := NewModel(nil)
	tabs := []*recordingTab{{name: "dashboard"}, {name: "timeline"}, {name: "info"}}
	m.SetTabs([]Tab{tabs[0], tabs[1], tabs[2]})
	return m, tabs
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewModel(t *testing.T) {
	m := NewModel(nil)
	if m.State() == nil {
		t.Fatal("state should be initialized")
	}
	if m.ActiveTab() != TabDashboard {
		t.Error("default tab should be Dashboard")
	}
	if len(m.tabs) != 3 {
		t.Errorf("tabs = %d, want 3", len(m.tabs))
	}
}

func TestModel_Init(t *testing.T) {
	m, tabs := newTestModel()
	if m.Init() == nil {
		t.Error("Init returned nil command")
	}
	for _, tab := range tabs {
		if !tab.initDone {
			t.Errorf("tab %s not initialized", tab.name)
		}
	}
}

func TestModel_WindowSize(t *testing.T) {
	m, tabs := newTestModel()
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 50})

	if !m.ready || m.width != 100 || m.height != 50 {
		t.Errorf("model size = %dx%d ready=%v", m.width, m.height, m.ready)
	}
	for _, tab := range tabs {
		if tab.width != 100 || tab.height != 45 {
			t.Errorf("tab %s size = %dx%d", tab.name, tab.width, tab.height)
		}
	}
}

func TestModel_TabKeys(t *testing.T) {
	m, _ := newTestModel()

	tests := []struct {
		msg  tea.KeyMsg
		want TabID
	}{
		{runes("2"), TabTimeline},
		{runes("3"), TabInfo},
		{tea.KeyMsg{Type: tea.KeyTab}, TabDashboard},
		{tea.KeyMsg{Type: tea.KeyShiftTab}, TabInfo},
		{runes("1"), TabDashboard},
	}
	for i, tt := range tests {
		m.Update(tt.msg)
		if m.ActiveTab() != tt.want {
			t.Errorf("step %d: active = %v, want %v", i, m.ActiveTab(), tt.want)
		}
	}

	m.Update(TabSwitchMsg{Tab: TabTimeline})
	if m.ActiveTab() != TabTimeline {
		t.Error("TabSwitchMsg should switch tabs")
	}
	m.Update(TabSwitchMsg{Tab: TabID(9)})
	if m.ActiveTab() != TabTimeline {
		t.Error("out of range TabSwitchMsg should be ignored")
	}
}

func TestModel_PeriodKeys(t *testing.T) {
	m, tabs := newTestModel()

	// No report yet: nothing to step through.
	if cmd := m.handleKeyMsg(runes("]")); cmd != nil {
		t.Error("period keys should do nothing before a report loads")
	}

	m.State().SetReport(testReport("2024-01-02", "2024-01-01"), presentation.Palette{})

	cmd := m.handleKeyMsg(runes("]"))
	if cmd == nil {
		t.Fatal("] should return a command")
	}
	msg, ok := cmd().(PeriodChangedMsg)
	if !ok || msg.Index != 1 {
		t.Fatalf("] produced %#v", msg)
	}

	m.Update(msg)
	for _, tab := range tabs {
		if !tab.received(func(m tea.Msg) bool { _, ok := m.(PeriodChangedMsg); return ok }) {
			t.Errorf("tab %s did not receive PeriodChangedMsg", tab.name)
		}
	}

	msg = m.handleKeyMsg(runes("["))().(PeriodChangedMsg)
	if msg.Index != 0 {
		t.Errorf("[ index = %d, want 0", msg.Index)
	}
	msg = m.handleKeyMsg(runes("["))().(PeriodChangedMsg)
	if msg.Index != 2 {
		t.Errorf("[ should wrap to the last period, got %d", msg.Index)
	}
}

func TestModel_HelpToggle(t *testing.T) {
	m, _ := newTestModel()
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

	m.Update(runes("?"))
	if !m.showHelp {
		t.Fatal("? should open help")
	}
	if view := m.View(); !strings.Contains(view, "Keyboard Shortcuts") || !strings.Contains(view, "do dashboard") {
		t.Error("help overlay should list global and tab shortcuts")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.showHelp {
		t.Error("esc should close help")
	}

	m.Update(ToggleHelpMsg{})
	if !m.showHelp {
		t.Error("ToggleHelpMsg should open help")
	}
}

func TestModel_Quit(t *testing.T) {
	m, _ := newTestModel()
	cmd := m.handleKeyMsg(runes("q"))
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestModel_ReportLoaded(t *testing.T) {
	src := stubSource{sets: []loader.DaySet{{Day: "2024-01-01", Records: []models.UsageRecord{
		{Model: "a", Tier: "SIMPLE", Cost: 1, BaselineCost: 2},
	}}}}
	mgr := services.NewManager(src, services.Options{})
	m := NewModel(mgr)
	m.SetTabs([]Tab{&recordingTab{name: "d"}, &recordingTab{name: "t"}, &recordingTab{name: "i"}})

	rep, err := mgr.Generate()
	if err != nil {
		t.Fatal(err)
	}

	_, cmd := m.Update(ReportLoadedMsg{Report: rep})
	if cmd == nil {
		t.Fatal("ReportLoadedMsg should return commands")
	}
	if m.State().Report() != rep {
		t.Error("report should be stored in state")
	}
	if m.State().PeriodCount() != 2 {
		t.Errorf("PeriodCount = %d, want 2", m.State().PeriodCount())
	}
	if len(m.State().Palette().Models) != presentation.PaletteSize {
		t.Error("palette should come from the manager")
	}
}

func TestModel_Refresh(t *testing.T) {
	m, _ := newTestModel()
	if cmd := m.handleKeyMsg(runes("r")); cmd != nil {
		t.Error("refresh without a manager should do nothing")
	}

	src := stubSource{sets: []loader.DaySet{{Day: "2024-01-01"}}}
	m = NewModel(services.NewManager(src, services.Options{}))
	m.State().SetReport(testReport(), presentation.Palette{})

	cmd := m.handleKeyMsg(runes("r"))
	if cmd == nil {
		t.Fatal("r should reload")
	}
	if !m.State().IsLoading() {
		t.Error("reload should mark the state as loading")
	}
	msg, ok := cmd().(ReportLoadedMsg)
	if !ok || msg.Err != nil {
		t.Fatalf("reload produced %#v", msg)
	}

	// Every day is empty, so the load is reported as a warning.
	cmds := m.handleReportLoaded(msg)
	if len(cmds) == 0 {
		t.Fatal("expected notification commands")
	}
	if add, ok := cmds[0]().(AddNotificationMsg); !ok || add.Type != NotificationWarning {
		t.Errorf("first command = %#v, want a warning", add)
	}
}

func TestModel_ReportFailed(t *testing.T) {
	m, _ := newTestModel()
	m.State().SetLoadingNotification("loading")

	_, cmd := m.Update(ReportLoadedMsg{Err: errors.New("no usage files")})
	if m.State().Err() == nil {
		t.Error("load error should be recorded")
	}
	for _, n := range m.State().GetNotifications() {
		if n.ID == LoadingNotificationID {
			t.Error("loading notification should be cleared")
		}
	}
	if cmd == nil {
		t.Fatal("an error toast should be queued without a subscription")
	}
}

func TestModel_ServiceEvents(t *testing.T) {
	m, _ := newTestModel()
	m.State().SetReport(testReport(), presentation.Palette{})

	next := testReport("2024-01-05")
	if cmd := m.handleServiceEvent(services.ReportGeneratedEvent{Report: next}); cmd == nil {
		t.Error("external regeneration should notify")
	}
	if m.State().Report() != next {
		t.Error("external regeneration should replace the report")
	}

	// The same report again is a no-op.
	if cmd := m.handleServiceEvent(services.ReportGeneratedEvent{Report: next}); cmd != nil {
		t.Error("duplicate report should be ignored")
	}

	cmd := m.handleServiceEvent(services.ErrorEvent{Service: "loader", Error: errors.New("gone")})
	if cmd == nil {
		t.Fatal("ErrorEvent should produce a notification")
	}
	add, ok := cmd().(AddNotificationMsg)
	if !ok || add.Type != NotificationError || !strings.Contains(add.Message, "[loader] gone") {
		t.Errorf("error notification = %#v", add)
	}
}

func TestModel_Notifications(t *testing.T) {
	m, _ := newTestModel()
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})

	m.Update(AddNotificationMsg{Type: NotificationSuccess, Message: "saved", Duration: DefaultNotificationDuration})
	notes := m.State().GetNotifications()
	if len(notes) != 1 {
		t.Fatalf("notifications = %d", len(notes))
	}
	if view := m.View(); !strings.Contains(view, "[OK] saved") {
		t.Error("toast should be rendered")
	}

	m.Update(RemoveNotificationMsg{ID: notes[0].ID})
	if len(m.State().GetNotifications()) != 0 {
		t.Error("notification should be removed")
	}
}

func TestModel_View(t *testing.T) {
	m, _ := newTestModel()
	if view := m.View(); !strings.Contains(view, "Loading") {
		t.Error("view before sizing should show loading")
	}

	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m.State().SetReport(testReport("2024-01-01"), presentation.Palette{})

	view := m.View()
	for _, want := range []string{"Dashboard", "Timeline", "Info", "tab:dashboard", "global", "1/2"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestTabID_String(t *testing.T) {
	tests := []struct {
		id   TabID
		want string
	}{
		{TabDashboard, "Dashboard"},
		{TabTimeline, "Timeline"},
		{TabInfo, "Info"},
		{TabID(7), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.id.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
