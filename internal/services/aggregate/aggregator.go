// Package aggregate rolls usage records up into per-scope statistics.
package aggregate

import (
	"errors"
	"sort"

	"github.com/j-veylop/blockrun-report/internal/models"
)

// PaletteSize is the number of recurring model color slots.
const PaletteSize = 5

// ErrNoData is returned for a scope without records. Callers render it as an
// explicit empty state instead of a zeroed period.
var ErrNoData = errors.New("no usage records")

type modelAcc struct {
	model        string
	slot         int
	count        int
	cost         float64
	baseline     float64
	latencySum   float64
	inputTokens  int64
	outputTokens int64
}

// Aggregate computes the AggregatedPeriod of records for scope.
func Aggregate(records []models.UsageRecord, scope models.Scope) (*models.AggregatedPeriod, error) {
	if len(records) == 0 {
		return nil, ErrNoData
	}

	p := &models.AggregatedPeriod{
		Scope:         scope,
		TotalRequests: len(records),
		Tiers:         make(map[string]models.TierStat),
		Timeline:      make(models.Timeline),
	}

	var latencySum float64
	for _, r := range records {
		p.TotalCost += r.Cost
		p.TotalBaseline += r.BaselineCost
		latencySum += float64(r.LatencyMs)
	}
	p.AvgLatency = latencySum / float64(max(p.TotalRequests, 1))
	p.RealSavings = max(0, p.TotalBaseline-p.TotalCost)
	p.SavingsRate = SavingsRate(p.RealSavings, p.TotalBaseline)

	p.Models, p.HasTokens = groupByModel(records)

	for _, r := range records {
		t := p.Tiers[r.Tier]
		t.Count++
		t.Cost += r.Cost
		p.Tiers[r.Tier] = t
	}

	layout := scope.BucketLayout()
	for _, r := range records {
		ts, ok := models.ParseTimestamp(r.Timestamp)
		if !ok {
			continue
		}
		bucket := ts.Format(layout)
		if p.Timeline[bucket] == nil {
			p.Timeline[bucket] = make(map[string]float64)
		}
		p.Timeline[bucket][r.Model] += r.Cost
	}

	for _, r := range records {
		p.Latency[LatencyBucket(r.LatencyMs)]++
	}

	return p, nil
}

// SavingsRate returns savings as a percentage of baseline clamped into
// [0, 100]. A non-positive baseline yields 0.
func SavingsRate(savings, baseline float64) float64 {
	if baseline <= 0 {
		return 0
	}
	return min(max(savings/baseline*100, 0), 100)
}

// LatencyBucket returns the histogram bucket for a latency. Values past the
// last boundary saturate into the final bucket.
func LatencyBucket(latencyMs int64) int {
	idx := latencyMs / models.LatencyBucketWidthMs
	if idx < 0 {
		return 0
	}
	if idx >= models.LatencyBucketCount {
		return models.LatencyBucketCount - 1
	}
	return int(idx)
}

func groupByModel(records []models.UsageRecord) ([]models.ModelStat, bool) {
	index := make(map[string]int)
	var accs []*modelAcc

	for _, r := range records {
		i, ok := index[r.Model]
		if !ok {
			i = len(accs)
			index[r.Model] = i
			accs = append(accs, &modelAcc{model: r.Model, slot: i % PaletteSize})
		}
		a := accs[i]
		a.count++
		a.cost += r.Cost
		a.baseline += r.BaselineCost
		a.latencySum += float64(r.LatencyMs)
		a.inputTokens += r.InputTokens
		a.outputTokens += r.OutputTokens
	}

	stats := make([]models.ModelStat, 0, len(accs))
	hasTokens := false
	for _, a := range accs {
		savings := max(0, a.baseline-a.cost)
		// Unlike the period rate, the per-model rate is not capped at 100.
		pct := 0.0
		if a.baseline > 0 {
			pct = savings / a.baseline * 100
		}
		total := a.inputTokens + a.outputTokens
		if total > 0 {
			hasTokens = true
		}
		stats = append(stats, models.ModelStat{
			Model:        a.model,
			Short:        models.ShortModel(a.model),
			Count:        a.count,
			Cost:         a.cost,
			Baseline:     a.baseline,
			Savings:      savings,
			SavingsPct:   pct,
			AvgLatency:   a.latencySum / float64(a.count),
			InputTokens:  a.inputTokens,
			OutputTokens: a.outputTokens,
			TotalTokens:  total,
			ColorSlot:    a.slot,
		})
	}

	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].Cost > stats[j].Cost
	})

	return stats, hasTokens
}
