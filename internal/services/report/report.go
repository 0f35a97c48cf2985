// Package report renders a generated report as a single self-contained HTML
// page.
package report

import (
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/j-veylop/blockrun-report/internal/services"
	"github.com/j-veylop/blockrun-report/internal/services/presentation"
)

//go:embed templates/report.html.tmpl
var reportTmplSrc string

//go:embed assets/styles.css
var stylesCSS string

//go:embed assets/charts.js
var chartsJS string

// pageTmpl is the parsed report page.
var pageTmpl = template.Must(template.New("report").Funcs(funcMap).Parse(reportTmplSrc))

const timeLayout = "2006-01-02 15:04:05"

// HTML renders reports with the embedded page template.
type HTML struct{}

// New returns the HTML renderer.
func New() *HTML {
	return &HTML{}
}

// Render writes the full report page for r.
func (h *HTML) Render(w io.Writer, r *services.Report) error {
	if err := pageTmpl.Execute(w, newPage(r)); err != nil {
		return fmt.Errorf("execute report template: %w", err)
	}
	return nil
}

// Render writes r with the default renderer.
func Render(w io.Writer, r *services.Report) error {
	return New().Render(w, r)
}

// pageData carries one report into the page template.
type pageData struct {
	Title       string
	Theme       presentation.Theme
	Global      sectionData
	Days        []sectionData
	DayCount    int
	GeneratedAt string
	RunID       string
	Styles      template.CSS
	Script      template.JS
}

// sectionData is one dashboard section with its display strings resolved.
type sectionData struct {
	ID            string
	JSID          string
	Label         string
	Global        bool
	Empty         bool
	Heading       string
	Tag           string
	TagClass      string
	NavMeta       string
	TimelineTitle string
	Bundle        *presentation.Bundle
}

func newPage(r *services.Report) pageData {
	p := pageData{
		Title:       filepath.Base(r.Source),
		Theme:       r.Theme,
		Global:      newSection(r.Global),
		DayCount:    len(r.Days),
		GeneratedAt: r.GeneratedAt.Format(timeLayout),
		RunID:       r.RunID,
		Styles:      template.CSS(stylesCSS), //nolint:gosec // embedded asset
		Script:      template.JS(chartsJS),   //nolint:gosec // embedded asset
	}
	if p.Theme == "" {
		p.Theme = presentation.ThemePastel
	}
	for _, d := range r.Days {
		p.Days = append(p.Days, newSection(d))
	}
	return p
}

func newSection(s services.Section) sectionData {
	sd := sectionData{
		ID:      s.Scope.ID(),
		JSID:    s.Scope.JSID(),
		Label:   s.Scope.Label(),
		Heading: s.Heading(),
		Global:  s.Scope.Global,
		Empty:   s.Empty || s.Bundle == nil,
		Bundle:  s.Bundle,
	}

	if sd.Global {
		sd.Tag = "GLOBAL"
		sd.TagClass = "section-tag-global"
		sd.TimelineTitle = "Cost Timeline per Day"
	} else {
		sd.Tag = "DAILY"
		sd.TagClass = "section-tag-daily"
		sd.TimelineTitle = "Cost Timeline per Minute"
	}

	if sd.Empty {
		sd.NavMeta = "no data"
	} else {
		sd.NavMeta = fmt.Sprintf("%s req · $%.3f", humanize.Comma(int64(s.Bundle.TotalRequests)), s.Bundle.TotalCost)
	}
	return sd
}
