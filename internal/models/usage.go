// Package models defines data structures and domain types.
package models

import (
	"strings"
	"time"
)

// Field defaults applied when a usage record omits a value.
const (
	DefaultModel = "unknown"
	DefaultTier  = "UNKNOWN"
)

// UsageRecord is one logged inference request. Defaults are applied when the
// record is constructed, so aggregation never has to guess.
type UsageRecord struct {
	Timestamp    string
	Model        string
	Tier         string
	Cost         float64
	BaselineCost float64
	LatencyMs    int64
	InputTokens  int64
	OutputTokens int64
}

// RecordFromFields builds a UsageRecord from a decoded JSON object. Missing,
// null or mistyped fields fall back to their declared default.
func RecordFromFields(fields map[string]any) UsageRecord {
	return UsageRecord{
		Cost:         floatField(fields, "cost"),
		BaselineCost: floatField(fields, "baselineCost"),
		LatencyMs:    intField(fields, "latencyMs"),
		Model:        stringField(fields, "model", DefaultModel),
		Tier:         stringField(fields, "tier", DefaultTier),
		Timestamp:    stringField(fields, "timestamp", ""),
		InputTokens:  intField(fields, "inputTokens"),
		OutputTokens: intField(fields, "outputTokens"),
	}
}

// TotalTokens returns input plus output tokens.
func (r UsageRecord) TotalTokens() int64 {
	return r.InputTokens + r.OutputTokens
}

// ShortModel returns the display-significant trailing segment of the model id.
func ShortModel(model string) string {
	if i := strings.LastIndex(model, "/"); i >= 0 {
		return model[i+1:]
	}
	return model
}

var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04Z0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z0700",
	"2006-01-02 15:04Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 timestamp, optionally Z-suffixed. The
// parsed value keeps the offset it was written with.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func floatField(fields map[string]any, key string) float64 {
	switch v := fields[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}

func intField(fields map[string]any, key string) int64 {
	switch v := fields[key].(type) {
	case float64:
		return int64(v)
	case int:
		return int64(v)
	case int64:
		return v
	default:
		return 0
	}
}

func stringField(fields map[string]any, key, defaultValue string) string {
	if v, ok := fields[key].(string); ok {
		return v
	}
	return defaultValue
}
