package models

import (
	"encoding/json"
	"testing"
	"time"
)

func decodeFields(t *testing.T, line string) map[string]any {
	t.Helper()
	var fields map[string]any
	if err := json.Unmarshal([]byte(line), &fields); err != nil {
		t.Fatalf("unmarshal %q: %v", line, err)
	}
	return fields
}

func TestRecordFromFields_Complete(t *testing.T) {
	line := `{"timestamp":"2024-01-01T10:00:00Z","model":"openai/gpt-4o","tier":"SIMPLE",` +
		`"cost":0.5,"baselineCost":1.25,"latencyMs":1500,"inputTokens":100,"outputTokens":50}`
	r := RecordFromFields(decodeFields(t, line))

	if r.Timestamp != "2024-01-01T10:00:00Z" {
		t.Errorf("Timestamp = %q", r.Timestamp)
	}
	if r.Model != "openai/gpt-4o" {
		t.Errorf("Model = %q", r.Model)
	}
	if r.Tier != "SIMPLE" {
		t.Errorf("Tier = %q", r.Tier)
	}
	if r.Cost != 0.5 || r.BaselineCost != 1.25 {
		t.Errorf("Cost = %v, BaselineCost = %v", r.Cost, r.BaselineCost)
	}
	if r.LatencyMs != 1500 {
		t.Errorf("LatencyMs = %d", r.LatencyMs)
	}
	if r.TotalTokens() != 150 {
		t.Errorf("TotalTokens() = %d, want 150", r.TotalTokens())
	}
}

func TestRecordFromFields_Defaults(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"Empty", `{}`},
		{"Nulls", `{"model":null,"tier":null,"cost":null,"latencyMs":null,"timestamp":null}`},
		{"WrongTypes", `{"model":42,"tier":true,"cost":"0.5","latencyMs":"fast","inputTokens":[1]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := RecordFromFields(decodeFields(t, tt.line))
			if r.Model != DefaultModel {
				t.Errorf("Model = %q, want %q", r.Model, DefaultModel)
			}
			if r.Tier != DefaultTier {
				t.Errorf("Tier = %q, want %q", r.Tier, DefaultTier)
			}
			if r.Cost != 0 || r.BaselineCost != 0 {
				t.Errorf("Cost = %v, BaselineCost = %v, want 0", r.Cost, r.BaselineCost)
			}
			if r.LatencyMs != 0 || r.InputTokens != 0 || r.OutputTokens != 0 {
				t.Errorf("integers not defaulted: %+v", r)
			}
			if r.Timestamp != "" {
				t.Errorf("Timestamp = %q, want empty", r.Timestamp)
			}
		})
	}
}

func TestShortModel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"openai/gpt-4o", "gpt-4o"},
		{"a/b/c", "c"},
		{"plain", "plain"},
		{"trailing/", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ShortModel(tt.in); got != tt.want {
			t.Errorf("ShortModel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		ok     bool
		minute string
	}{
		{"Zulu", "2024-01-01T09:15:00Z", true, "09:15"},
		{"Fractional", "2024-01-01T09:15:00.123456Z", true, "09:15"},
		{"Offset", "2024-01-01T09:15:00+02:00", true, "09:15"},
		{"Naive", "2024-01-01T09:15:00", true, "09:15"},
		{"SpaceSeparated", "2024-01-01 23:59:59", true, "23:59"},
		{"DateOnly", "2024-01-01", true, "00:00"},
		{"MinuteZulu", "2024-01-01T09:30Z", true, "09:30"},
		{"MinuteOffset", "2024-01-01T09:30+02:00", true, "09:30"},
		{"MinuteSpace", "2024-01-01 09:30", true, "09:30"},
		{"CompactOffset", "2024-01-01T09:30:00+0530", true, "09:30"},
		{"CompactOffsetFractional", "2024-01-01T09:30:00.25-0800", true, "09:30"},
		{"SpaceOffset", "2024-01-01 09:30:00+02:00", true, "09:30"},
		{"Empty", "", false, ""},
		{"Garbage", "yesterday", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, ok := ParseTimestamp(tt.in)
			if ok != tt.ok {
				t.Fatalf("ParseTimestamp(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			}
			if ok && ts.Format("15:04") != tt.minute {
				t.Errorf("minute bucket = %q, want %q", ts.Format("15:04"), tt.minute)
			}
		})
	}
}

func TestParseTimestamp_KeepsOffset(t *testing.T) {
	ts, ok := ParseTimestamp("2024-03-05T01:00:00+05:00")
	if !ok {
		t.Fatal("expected timestamp to parse")
	}
	if ts.Format("01-02") != "03-05" {
		t.Errorf("day bucket = %q, want 03-05", ts.Format("01-02"))
	}
	if ts.UTC().Day() != 4 {
		t.Errorf("UTC day = %d, want 4", ts.UTC().Day())
	}
	_, offset := ts.Zone()
	if offset != int((5 * time.Hour).Seconds()) {
		t.Errorf("offset = %d", offset)
	}
}
