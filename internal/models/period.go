// Package models defines data structures and domain types.
package models

import (
	"sort"
	"strings"
)

// GlobalLabel is the label of the scope covering every available day.
const GlobalLabel = "global"

// Scope is the time window an aggregation covers: one calendar day or all
// days combined.
type Scope struct {
	Day    string
	Global bool
}

// DayScope returns the scope for a single calendar day (YYYY-MM-DD).
func DayScope(day string) Scope {
	return Scope{Day: day}
}

// GlobalScope returns the scope covering all days.
func GlobalScope() Scope {
	return Scope{Global: true}
}

// Label returns the human label of the scope.
func (s Scope) Label() string {
	if s.Global {
		return GlobalLabel
	}
	return s.Day
}

// ID returns a stable identifier for addressing the scope's charts.
func (s Scope) ID() string {
	if s.Global {
		return GlobalLabel
	}
	return "day-" + s.Day
}

// JSID returns ID with every character outside [A-Za-z0-9_] replaced by an
// underscore, so it is usable as a JavaScript identifier and element ID.
func (s Scope) JSID() string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return '_'
	}, s.ID())
}

// BucketLayout returns the time layout used to bucket the cost timeline:
// minute-of-day for a single day, month-day across all days.
func (s Scope) BucketLayout() string {
	if s.Global {
		return "01-02"
	}
	return "15:04"
}

// LatencyBucketCount is the number of fixed-width latency histogram buckets.
const LatencyBucketCount = 10

// LatencyBucketWidthMs is the width of one latency histogram bucket.
const LatencyBucketWidthMs = 2000

// LatencyHistogram counts requests per 2-second latency bucket. The last
// bucket saturates.
type LatencyHistogram [LatencyBucketCount]int

// Timeline maps a time bucket key to per-model cost inside that bucket.
type Timeline map[string]map[string]float64

// ModelStat aggregates the requests of one model within a period.
type ModelStat struct {
	Model        string
	Short        string
	Count        int
	Cost         float64
	Baseline     float64
	Savings      float64
	SavingsPct   float64
	AvgLatency   float64
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
	ColorSlot    int
}

// TierStat aggregates the requests routed through one tier.
type TierStat struct {
	Count int
	Cost  float64
}

// AggregatedPeriod is the rolled-up view of one scope. It is built once and
// never mutated afterwards.
type AggregatedPeriod struct {
	Scope         Scope
	TotalRequests int
	TotalCost     float64
	TotalBaseline float64
	RealSavings   float64
	SavingsRate   float64
	AvgLatency    float64
	Models        []ModelStat
	Tiers         map[string]TierStat
	HasTokens     bool
	Timeline      Timeline
	Latency       LatencyHistogram
}

// Label returns the scope label of the period.
func (p *AggregatedPeriod) Label() string {
	return p.Scope.Label()
}

// TierNames returns the tier names in ascending order.
func (p *AggregatedPeriod) TierNames() []string {
	names := make([]string, 0, len(p.Tiers))
	for name := range p.Tiers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BucketKeys returns the timeline bucket keys in ascending order.
func (p *AggregatedPeriod) BucketKeys() []string {
	keys := make([]string, 0, len(p.Timeline))
	for k := range p.Timeline {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
