package presentation

import (
	"math"

	"github.com/j-veylop/blockrun-report/internal/models"
)

// ShareSeries feeds the cost-share donut chart.
type ShareSeries struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
	Slots  []int     `json:"slots"`
}

// ComparisonSeries feeds the cost/baseline/savings bar chart. All arrays
// follow the sorted model order.
type ComparisonSeries struct {
	Labels   []string  `json:"labels"`
	Cost     []float64 `json:"cost"`
	Baseline []float64 `json:"baseline"`
	Savings  []float64 `json:"savings"`
}

// TimelineSeries is one model's densified cost-per-bucket line.
type TimelineSeries struct {
	Model  string    `json:"model"`
	Label  string    `json:"label"`
	Slot   int       `json:"slot"`
	Values []float64 `json:"values"`
}

// TimelineChart aligns every model series to the sorted bucket labels.
type TimelineChart struct {
	Labels []string         `json:"labels"`
	Series []TimelineSeries `json:"series"`
}

// LatencyChart pairs the fixed bucket labels with their counts.
type LatencyChart struct {
	Labels []string `json:"labels"`
	Counts []int    `json:"counts"`
}

// ModelRow is one line of the per-model table.
type ModelRow struct {
	Model        string  `json:"model"`
	Short        string  `json:"short"`
	Count        int     `json:"count"`
	Cost         float64 `json:"cost"`
	Baseline     float64 `json:"baseline"`
	Savings      float64 `json:"savings"`
	SavingsPct   float64 `json:"savingsPct"`
	AvgLatency   float64 `json:"avgLatency"`
	InputTokens  int64   `json:"inputTokens"`
	OutputTokens int64   `json:"outputTokens"`
	TotalTokens  int64   `json:"totalTokens"`
	Slot         int     `json:"slot"`
	Color        Swatch  `json:"color"`
}

// TierBadge is one routing tier summary.
type TierBadge struct {
	Name  string  `json:"name"`
	Count int     `json:"count"`
	Cost  float64 `json:"cost"`
	Color Swatch  `json:"color"`
}

// Bundle is everything a renderer needs to draw one period.
type Bundle struct {
	ID            string             `json:"id"`
	JSID          string             `json:"jsId"`
	Label         string             `json:"label"`
	Global        bool               `json:"global"`
	Theme         Theme              `json:"theme"`
	HasTokens     bool               `json:"hasTokens"`
	TotalRequests int                `json:"totalRequests"`
	TotalCost     float64            `json:"totalCost"`
	TotalBaseline float64            `json:"totalBaseline"`
	RealSavings   float64            `json:"realSavings"`
	SavingsRate   float64            `json:"savingsRate"`
	AvgLatency    float64            `json:"avgLatency"`
	Share         ShareSeries        `json:"share"`
	Comparison    ComparisonSeries   `json:"comparison"`
	Timeline      TimelineChart      `json:"timeline"`
	Latency       LatencyChart       `json:"latency"`
	Gauge         GaugeArc           `json:"gauge"`
	Colors        map[Theme][]Swatch `json:"colors"`
	Rows          []ModelRow         `json:"rows"`
	Tiers         []TierBadge        `json:"tiers"`
}

// Mapper turns aggregated periods into bundles. It holds no mutable state.
type Mapper struct {
	cfg Config
}

// NewMapper returns a mapper over cfg.
func NewMapper(cfg Config) *Mapper {
	return &Mapper{cfg: cfg}
}

// Palette returns the palette for theme, falling back to pastel.
func (m *Mapper) Palette(theme Theme) Palette {
	if p, ok := m.cfg.Palettes[theme]; ok {
		return p
	}
	return m.cfg.Palettes[ThemePastel]
}

// Map shapes p for display with theme as the primary palette. Swatches for
// every configured theme are included so a client can switch themes.
func (m *Mapper) Map(p *models.AggregatedPeriod, theme Theme) *Bundle {
	palette := m.Palette(theme)

	b := &Bundle{
		ID:            p.Scope.ID(),
		JSID:          p.Scope.JSID(),
		Label:         p.Label(),
		Global:        p.Scope.Global,
		Theme:         theme,
		HasTokens:     p.HasTokens,
		TotalRequests: p.TotalRequests,
		TotalCost:     p.TotalCost,
		TotalBaseline: p.TotalBaseline,
		RealSavings:   p.RealSavings,
		SavingsRate:   p.SavingsRate,
		AvgLatency:    p.AvgLatency,
		Share:         m.share(p),
		Comparison:    m.comparison(p),
		Timeline:      m.timeline(p),
		Latency:       m.latency(p),
		Gauge:         m.GaugeFor(p.SavingsRate, theme),
		Colors:        make(map[Theme][]Swatch),
		Tiers:         m.tiers(p, palette),
	}

	for _, t := range m.cfg.Themes() {
		pal := m.cfg.Palettes[t]
		swatches := make([]Swatch, len(p.Models))
		for i, ms := range p.Models {
			swatches[i] = pal.Model(ms.ColorSlot)
		}
		b.Colors[t] = swatches
	}

	b.Rows = make([]ModelRow, len(p.Models))
	for i, ms := range p.Models {
		b.Rows[i] = ModelRow{
			Model:        ms.Model,
			Short:        ms.Short,
			Count:        ms.Count,
			Cost:         ms.Cost,
			Baseline:     ms.Baseline,
			Savings:      ms.Savings,
			SavingsPct:   ms.SavingsPct,
			AvgLatency:   ms.AvgLatency,
			InputTokens:  ms.InputTokens,
			OutputTokens: ms.OutputTokens,
			TotalTokens:  ms.TotalTokens,
			Slot:         ms.ColorSlot,
			Color:        palette.Model(ms.ColorSlot),
		}
	}

	return b
}

func (m *Mapper) share(p *models.AggregatedPeriod) ShareSeries {
	s := ShareSeries{
		Labels: make([]string, len(p.Models)),
		Values: make([]float64, len(p.Models)),
		Slots:  make([]int, len(p.Models)),
	}
	for i, ms := range p.Models {
		s.Labels[i] = ms.Short
		s.Values[i] = Round(ms.Cost, seriesPrecision)
		s.Slots[i] = ms.ColorSlot
	}
	return s
}

func (m *Mapper) comparison(p *models.AggregatedPeriod) ComparisonSeries {
	c := ComparisonSeries{
		Labels:   make([]string, len(p.Models)),
		Cost:     make([]float64, len(p.Models)),
		Baseline: make([]float64, len(p.Models)),
		Savings:  make([]float64, len(p.Models)),
	}
	for i, ms := range p.Models {
		c.Labels[i] = ms.Short
		c.Cost[i] = Round(ms.Cost, amountPrecision)
		c.Baseline[i] = Round(ms.Baseline, amountPrecision)
		c.Savings[i] = Round(ms.Savings, amountPrecision)
	}
	return c
}

// timeline densifies the sparse bucket map into one full-length series per
// model; missing (model, bucket) pairs become 0.
func (m *Mapper) timeline(p *models.AggregatedPeriod) TimelineChart {
	buckets := p.BucketKeys()
	chart := TimelineChart{
		Labels: buckets,
		Series: make([]TimelineSeries, len(p.Models)),
	}
	for i, ms := range p.Models {
		values := make([]float64, len(buckets))
		for j, bucket := range buckets {
			values[j] = Round(p.Timeline[bucket][ms.Model], seriesPrecision)
		}
		chart.Series[i] = TimelineSeries{
			Model:  ms.Model,
			Label:  ms.Short,
			Slot:   ms.ColorSlot,
			Values: values,
		}
	}
	return chart
}

func (m *Mapper) latency(p *models.AggregatedPeriod) LatencyChart {
	labels := make([]string, len(m.cfg.LatencyLabels))
	copy(labels, m.cfg.LatencyLabels)
	counts := make([]int, len(p.Latency))
	copy(counts, p.Latency[:])
	return LatencyChart{Labels: labels, Counts: counts}
}

func (m *Mapper) tiers(p *models.AggregatedPeriod, palette Palette) []TierBadge {
	names := p.TierNames()
	badges := make([]TierBadge, len(names))
	for i, name := range names {
		t := p.Tiers[name]
		badges[i] = TierBadge{
			Name:  name,
			Count: t.Count,
			Cost:  t.Cost,
			Color: palette.Tier(name),
		}
	}
	return badges
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
