// Package services provides the report generation pipeline.
package services

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gen2brain/beeep"
	"github.com/google/uuid"

	"github.com/j-veylop/blockrun-report/internal/config"
	"github.com/j-veylop/blockrun-report/internal/loader"
	"github.com/j-veylop/blockrun-report/internal/logger"
	"github.com/j-veylop/blockrun-report/internal/models"
	"github.com/j-veylop/blockrun-report/internal/services/aggregate"
	"github.com/j-veylop/blockrun-report/internal/services/presentation"
)

type (
	// ReportGeneratedEvent is emitted after every successful generation.
	ReportGeneratedEvent struct {
		Report *Report
	}

	// ErrorEvent is emitted when generation or writing fails.
	ErrorEvent struct {
		Service string
		Error   error
	}
)

// ServiceEvent is the interface implemented by all service events.
type ServiceEvent interface {
	isServiceEvent()
}

func (ReportGeneratedEvent) isServiceEvent() {}
func (ErrorEvent) isServiceEvent()           {}

// Section is one period of the report. Empty sections have no Period or
// Bundle and are rendered as an explicit empty state.
type Section struct {
	Scope  models.Scope
	Period *models.AggregatedPeriod
	Bundle *presentation.Bundle
	Empty  bool
}

// ID returns the scope identifier of the section.
func (s Section) ID() string {
	return s.Scope.ID()
}

// Label returns the scope label of the section.
func (s Section) Label() string {
	return s.Scope.Label()
}

// Heading returns the display title of the section.
func (s Section) Heading() string {
	if s.Scope.Global {
		return "Aggregated Overview · All Days"
	}
	return "Daily Report · " + s.Scope.Label()
}

// Report is the output of one generation run.
type Report struct {
	Global      Section
	Days        []Section // most recent first
	GeneratedAt time.Time
	RunID       string
	Source      string
	Theme       presentation.Theme
	Records     int
}

// Sections returns the global section followed by the day sections.
func (r *Report) Sections() []Section {
	out := make([]Section, 0, len(r.Days)+1)
	out = append(out, r.Global)
	return append(out, r.Days...)
}

// Find looks a section up by scope ID.
func (r *Report) Find(id string) (Section, bool) {
	for _, s := range r.Sections() {
		if s.ID() == id {
			return s, true
		}
	}
	return Section{}, false
}

// Renderer writes a report in some output format.
type Renderer interface {
	Render(w io.Writer, r *Report) error
}

// Options configures a Manager.
type Options struct {
	Theme        presentation.Theme
	Presentation presentation.Config
	Renderer     Renderer
	Notify       bool
	RunID        string
}

// OptionsFromConfig derives manager options from the application config.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Theme:        cfg.Theme,
		Presentation: cfg.Presentation,
		Notify:       cfg.Notify,
	}
}

// Manager runs the load, aggregate and map pipeline and broadcasts the
// results to subscribers.
type Manager struct {
	mu          sync.RWMutex
	source      loader.Source
	mapper      *presentation.Mapper
	theme       presentation.Theme
	renderer    Renderer
	notify      bool
	runID       string
	now         func() time.Time
	notifier    func(title, body string) error
	last        *Report
	subscribers []chan<- ServiceEvent
}

// NewManager creates a pipeline over src.
func NewManager(src loader.Source, opts Options) *Manager {
	cfg := opts.Presentation
	if len(cfg.Palettes) == 0 {
		cfg = presentation.DefaultConfig()
	}
	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	return &Manager{
		source:   src,
		mapper:   presentation.NewMapper(cfg),
		theme:    opts.Theme,
		renderer: opts.Renderer,
		notify:   opts.Notify,
		runID:    runID,
		now:      time.Now,
		notifier: func(title, body string) error {
			return beeep.Notify(title, body, "")
		},
	}
}

// RunID returns the identifier stamped on every report of this process.
func (m *Manager) RunID() string {
	return m.runID
}

// Mapper returns the presentation mapper.
func (m *Manager) Mapper() *presentation.Mapper {
	return m.mapper
}

// Source returns the record source.
func (m *Manager) Source() loader.Source {
	return m.source
}

// Generate loads every day, aggregates each one plus the global union and
// maps the results for display.
func (m *Manager) Generate() (*Report, error) {
	sets, err := m.source.Days()
	if err != nil {
		m.broadcast(ErrorEvent{Service: "loader", Error: err})
		return nil, err
	}

	theme := m.theme
	if theme == "" {
		theme = presentation.ThemePastel
	}

	rep := &Report{
		GeneratedAt: m.now(),
		RunID:       m.runID,
		Source:      m.source.Describe(),
		Theme:       theme,
	}

	var all []models.UsageRecord
	for _, set := range sets {
		all = append(all, set.Records...)
		section, err := m.section(set.Records, models.DayScope(set.Day), theme)
		if err != nil {
			return nil, err
		}
		rep.Days = append(rep.Days, section)
	}
	rep.Records = len(all)

	sort.SliceStable(rep.Days, func(i, j int) bool {
		return rep.Days[i].Scope.Day > rep.Days[j].Scope.Day
	})

	rep.Global, err = m.section(all, models.GlobalScope(), theme)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.last = rep
	m.mu.Unlock()

	logSummary(rep)
	m.broadcast(ReportGeneratedEvent{Report: rep})
	return rep, nil
}

func (m *Manager) section(records []models.UsageRecord, scope models.Scope, theme presentation.Theme) (Section, error) {
	period, err := aggregate.Aggregate(records, scope)
	if errors.Is(err, aggregate.ErrNoData) {
		return Section{Scope: scope, Empty: true}, nil
	}
	if err != nil {
		return Section{}, fmt.Errorf("aggregate %s: %w", scope.Label(), err)
	}
	return Section{
		Scope:  scope,
		Period: period,
		Bundle: m.mapper.Map(period, theme),
	}, nil
}

func logSummary(rep *Report) {
	empty := 0
	for _, d := range rep.Days {
		if d.Empty {
			empty++
		}
	}
	log := logger.With("run", rep.RunID, "source", rep.Source)
	if rep.Global.Empty {
		log.Warn("no usage records found", "days", len(rep.Days))
		return
	}
	p := rep.Global.Period
	log.Info("report generated",
		"days", len(rep.Days),
		"empty_days", empty,
		"requests", p.TotalRequests,
		"cost", presentation.Round(p.TotalCost, 4),
		"savings_rate", presentation.Round(p.SavingsRate, 1),
	)
}

// Last returns the most recently generated report, or nil.
func (m *Manager) Last() *Report {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.last
}

// WriteHTML generates a fresh report and writes it to path. The file is
// replaced atomically so readers never see a partial page.
func (m *Manager) WriteHTML(path string) (*Report, error) {
	if m.renderer == nil {
		return nil, errors.New("no renderer configured")
	}

	rep, err := m.Generate()
	if err != nil {
		return nil, err
	}

	if err := writeAtomic(path, func(w io.Writer) error {
		return m.renderer.Render(w, rep)
	}); err != nil {
		m.broadcast(ErrorEvent{Service: "report", Error: err})
		return nil, err
	}

	logger.Info("report written", "path", path, "run", rep.RunID)
	if m.notify {
		m.notifyWritten(rep, path)
	}
	return rep, nil
}

func (m *Manager) notifyWritten(rep *Report, path string) {
	body := fmt.Sprintf("%s updated", filepath.Base(path))
	if !rep.Global.Empty {
		p := rep.Global.Period
		body = fmt.Sprintf("%d requests, $%.4f spent, %.1f%% saved", p.TotalRequests, p.TotalCost, p.SavingsRate)
	}
	if err := m.notifier("BlockRun report updated", body); err != nil {
		logger.Debug("notification failed", "error", err)
	}
}

func writeAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".report-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := write(tmp); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to render report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to flush report: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil { //nolint:gosec // report is meant to be readable
		return fmt.Errorf("failed to set report permissions: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move report into place: %w", err)
	}
	return nil
}

// broadcast sends an event to all subscribers.
func (m *Manager) broadcast(event ServiceEvent) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber channel full, skip
		}
	}
}

// Subscribe creates a channel for receiving service events.
// Returns a tea.Cmd that can be used in Bubble Tea's Init or Update.
func (m *Manager) Subscribe() (chan ServiceEvent, tea.Cmd) {
	ch := make(chan ServiceEvent, 16)

	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()

	return ch, WaitForEvent(ch)
}

// WaitForEvent returns a tea.Cmd for the next event on a channel.
func WaitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

// Unsubscribe removes a subscriber channel.
func (m *Manager) Unsubscribe(ch chan ServiceEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscribers {
		if sub == ch {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

// Close releases subscribers and closes the source when it holds resources.
func (m *Manager) Close() error {
	m.mu.Lock()
	for _, sub := range m.subscribers {
		close(sub)
	}
	m.subscribers = nil
	m.mu.Unlock()

	if c, ok := m.source.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
