package aggregate

import (
	"errors"
	"math"
	"testing"

	"github.com/j-veylop/blockrun-report/internal/models"
)

func rec(model string, cost, baseline float64, latency int64, ts string) models.UsageRecord {
	return models.UsageRecord{
		Model:        model,
		Tier:         "SIMPLE",
		Cost:         cost,
		BaselineCost: baseline,
		LatencyMs:    latency,
		Timestamp:    ts,
	}
}

func approx(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}

func TestAggregate_Empty(t *testing.T) {
	p, err := Aggregate(nil, models.DayScope("2024-01-01"))
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
	if p != nil {
		t.Error("expected nil period for empty input")
	}

	_, err = Aggregate([]models.UsageRecord{}, models.GlobalScope())
	if !errors.Is(err, ErrNoData) {
		t.Errorf("expected ErrNoData for empty slice, got %v", err)
	}
}

func TestAggregate_SingleDayOneModel(t *testing.T) {
	records := []models.UsageRecord{
		rec("x/m1", 1.0, 2.0, 500, "2024-01-01T00:00:00Z"),
		rec("x/m1", 1.0, 0.5, 1500, "2024-01-01T00:01:00Z"),
	}

	p, err := Aggregate(records, models.DayScope("2024-01-01"))
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"TotalCost", p.TotalCost, 2.0},
		{"TotalBaseline", p.TotalBaseline, 2.5},
		{"RealSavings", p.RealSavings, 0.5},
		{"SavingsRate", p.SavingsRate, 20.0},
		{"AvgLatency", p.AvgLatency, 1000},
	}
	for _, c := range checks {
		if !approx(c.got, c.want) {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}

	if len(p.Models) != 1 {
		t.Fatalf("expected 1 model, got %d", len(p.Models))
	}
	m := p.Models[0]
	if m.Short != "m1" || m.Model != "x/m1" {
		t.Errorf("model = %q short = %q", m.Model, m.Short)
	}
	if m.Count != 2 {
		t.Errorf("Count = %d, want 2", m.Count)
	}
	if p.TotalRequests != 2 {
		t.Errorf("TotalRequests = %d, want 2", p.TotalRequests)
	}
	if got := p.Timeline["00:01"]["x/m1"]; got != 1.0 {
		t.Errorf("timeline[00:01] = %v, want 1", got)
	}
	if p.Label() != "2024-01-01" {
		t.Errorf("Label = %q", p.Label())
	}
}

func TestAggregate_MalformedTimestampOnlyLeavesTimeline(t *testing.T) {
	records := []models.UsageRecord{
		rec("x/m1", 1.0, 2.0, 500, "2024-01-01T00:00:00Z"),
		rec("x/m1", 1.0, 0.5, 1500, "not-a-date"),
	}

	p, err := Aggregate(records, models.DayScope("2024-01-01"))
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	if !approx(p.TotalCost, 2.0) {
		t.Errorf("TotalCost = %v, want 2", p.TotalCost)
	}
	if p.TotalRequests != 2 {
		t.Errorf("TotalRequests = %d, want 2", p.TotalRequests)
	}
	if !approx(p.AvgLatency, 1000) {
		t.Errorf("AvgLatency = %v, want 1000", p.AvgLatency)
	}
	if len(p.Timeline) != 1 {
		t.Fatalf("expected 1 timeline bucket, got %d: %v", len(p.Timeline), p.Timeline)
	}
	var timelineCost float64
	for _, byModel := range p.Timeline {
		for _, c := range byModel {
			timelineCost += c
		}
	}
	if !approx(timelineCost, 1.0) {
		t.Errorf("timeline cost = %v, want 1", timelineCost)
	}
}

func TestAggregate_SumAndCountInvariants(t *testing.T) {
	records := []models.UsageRecord{
		rec("a", 0.1, 0.3, 100, ""),
		rec("b", 0.2, 0.1, 200, ""),
		rec("c", 0.3, 0.9, 300, ""),
		rec("a", 0.7, 1.0, 400, ""),
		rec("b", 1e-7, 0.0, 500, ""),
		rec("d", 3.3, 3.3, 600, ""),
		rec("e", 0.01, 0.5, 700, ""),
		rec("f", 0.02, 0.5, 800, ""),
	}

	p, err := Aggregate(records, models.GlobalScope())
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	var cost float64
	var count int
	for _, m := range p.Models {
		cost += m.Cost
		count += m.Count
	}
	if !approx(cost, p.TotalCost) {
		t.Errorf("sum of model costs %v != total %v", cost, p.TotalCost)
	}
	if count != p.TotalRequests || count != len(records) {
		t.Errorf("sum of model counts %d, total %d, records %d", count, p.TotalRequests, len(records))
	}

	var tierCount int
	for _, ts := range p.Tiers {
		tierCount += ts.Count
	}
	if tierCount != len(records) {
		t.Errorf("tier counts = %d, want %d", tierCount, len(records))
	}
}

func TestAggregate_SavingsRateClamp(t *testing.T) {
	tests := []struct {
		name    string
		records []models.UsageRecord
		want    float64
	}{
		{
			name: "CostAboveBaseline",
			records: []models.UsageRecord{
				rec("a", 2, 1, 0, ""),
				rec("b", 5, 0.5, 0, ""),
			},
			want: 0,
		},
		{
			name: "ZeroCost",
			records: []models.UsageRecord{
				rec("a", 0, 1, 0, ""),
				rec("a", 0, 3, 0, ""),
			},
			want: 100,
		},
		{
			name: "ZeroBaseline",
			records: []models.UsageRecord{
				rec("a", 1, 0, 0, ""),
			},
			want: 0,
		},
		{
			name: "NegativeBaseline",
			records: []models.UsageRecord{
				rec("a", 1, -4, 0, ""),
			},
			want: 0,
		},
		{
			name: "NegativeCost",
			records: []models.UsageRecord{
				rec("a", -5, 1, 0, ""),
			},
			want: 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Aggregate(tt.records, models.GlobalScope())
			if err != nil {
				t.Fatalf("Aggregate failed: %v", err)
			}
			if p.SavingsRate < 0 || p.SavingsRate > 100 {
				t.Errorf("SavingsRate %v out of [0,100]", p.SavingsRate)
			}
			if p.SavingsRate != tt.want {
				t.Errorf("SavingsRate = %v, want %v", p.SavingsRate, tt.want)
			}
		})
	}
}

func TestAggregate_ModelRateNotClamped(t *testing.T) {
	// A negative cost lets per-model savings exceed the baseline.
	p, err := Aggregate([]models.UsageRecord{rec("a", -1, 1, 0, "")}, models.GlobalScope())
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if p.Models[0].SavingsPct != 200 {
		t.Errorf("model SavingsPct = %v, want 200", p.Models[0].SavingsPct)
	}
	if p.SavingsRate != 100 {
		t.Errorf("period SavingsRate = %v, want 100", p.SavingsRate)
	}
}

func TestAggregate_HistogramSaturation(t *testing.T) {
	records := []models.UsageRecord{
		rec("a", 0, 0, 0, ""),
		rec("a", 0, 0, 1999, ""),
		rec("a", 0, 0, 2000, ""),
		rec("a", 0, 0, 17999, ""),
		rec("a", 0, 0, 18000, ""),
		rec("a", 0, 0, 25000, ""),
		rec("a", 0, 0, -300, ""),
	}

	p, err := Aggregate(records, models.GlobalScope())
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	want := models.LatencyHistogram{3, 1, 0, 0, 0, 0, 0, 0, 1, 2}
	if p.Latency != want {
		t.Errorf("Latency = %v, want %v", p.Latency, want)
	}
}

func TestLatencyBucket(t *testing.T) {
	tests := []struct {
		in   int64
		want int
	}{
		{0, 0}, {1999, 0}, {2000, 1}, {9999, 4}, {18000, 9}, {25000, 9}, {1 << 40, 9}, {-1, 0},
	}
	for _, tt := range tests {
		if got := LatencyBucket(tt.in); got != tt.want {
			t.Errorf("LatencyBucket(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestAggregate_SortStability(t *testing.T) {
	records := []models.UsageRecord{
		rec("C", 5, 0, 0, ""),
		rec("A", 5, 0, 0, ""),
		rec("B", 3, 0, 0, ""),
	}

	p, err := Aggregate(records, models.GlobalScope())
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	var order []string
	for _, m := range p.Models {
		order = append(order, m.Model)
	}
	want := []string{"C", "A", "B"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestAggregate_ColorSlotsFollowFirstAppearance(t *testing.T) {
	names := []string{"m0", "m1", "m2", "m3", "m4", "m5", "m6"}
	var records []models.UsageRecord
	for i, n := range names {
		// Later models cost more so sorting reverses the order.
		records = append(records, rec(n, float64(i+1), 0, 0, ""))
	}

	p, err := Aggregate(records, models.GlobalScope())
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	want := map[string]int{"m0": 0, "m1": 1, "m2": 2, "m3": 3, "m4": 4, "m5": 0, "m6": 1}
	for _, m := range p.Models {
		if m.ColorSlot != want[m.Model] {
			t.Errorf("%s slot = %d, want %d", m.Model, m.ColorSlot, want[m.Model])
		}
	}
	if p.Models[0].Model != "m6" {
		t.Errorf("most expensive model first, got %s", p.Models[0].Model)
	}
}

func TestAggregate_TimelineBucketing(t *testing.T) {
	records := []models.UsageRecord{
		rec("a", 1, 0, 0, "2024-01-01T09:00:10Z"),
		rec("a", 2, 0, 0, "2024-01-01T09:00:50Z"),
		rec("b", 4, 0, 0, "2024-01-02T09:01:00+02:00"),
	}

	day, err := Aggregate(records, models.DayScope("2024-01-01"))
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if got := day.Timeline["09:00"]["a"]; got != 3 {
		t.Errorf("day timeline[09:00][a] = %v, want 3", got)
	}
	if got := day.Timeline["09:01"]["b"]; got != 4 {
		t.Errorf("day timeline[09:01][b] = %v, want 4", got)
	}

	global, err := Aggregate(records, models.GlobalScope())
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if got := global.Timeline["01-01"]["a"]; got != 3 {
		t.Errorf("global timeline[01-01][a] = %v, want 3", got)
	}
	if got := global.Timeline["01-02"]["b"]; got != 4 {
		t.Errorf("global timeline[01-02][b] = %v, want 4", got)
	}
	keys := global.BucketKeys()
	if len(keys) != 2 || keys[0] != "01-01" || keys[1] != "01-02" {
		t.Errorf("BucketKeys = %v", keys)
	}
}

func TestAggregate_HasTokens(t *testing.T) {
	without := []models.UsageRecord{rec("a", 1, 1, 0, ""), rec("b", 1, 1, 0, "")}
	p, err := Aggregate(without, models.GlobalScope())
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if p.HasTokens {
		t.Error("HasTokens should be false without token data")
	}

	with := append(without, models.UsageRecord{Model: "b", Tier: "MEDIUM", InputTokens: 1200, OutputTokens: 300})
	p, err = Aggregate(with, models.GlobalScope())
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if !p.HasTokens {
		t.Error("HasTokens should be true when any record has tokens")
	}
	for _, m := range p.Models {
		if m.Model == "b" && (m.InputTokens != 1200 || m.OutputTokens != 300 || m.TotalTokens != 1500) {
			t.Errorf("token sums for b = %d/%d/%d", m.InputTokens, m.OutputTokens, m.TotalTokens)
		}
	}
	if got := p.Tiers["MEDIUM"].Count; got != 1 {
		t.Errorf("MEDIUM tier count = %d, want 1", got)
	}
}

func TestSavingsRate(t *testing.T) {
	tests := []struct {
		savings, baseline, want float64
	}{
		{0.5, 2.5, 20},
		{1, 0, 0},
		{1, -1, 0},
		{3, 1, 100},
		{-1, 1, 0},
	}
	for _, tt := range tests {
		if got := SavingsRate(tt.savings, tt.baseline); !approx(got, tt.want) {
			t.Errorf("SavingsRate(%v, %v) = %v, want %v", tt.savings, tt.baseline, got, tt.want)
		}
	}
}
