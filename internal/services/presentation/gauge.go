package presentation

// GaugeArc describes the savings gauge: an arc of Dash length followed by a
// Gap, together spanning the configured circumference.
type GaugeArc struct {
	Rate  float64 `json:"rate"`
	Dash  float64 `json:"dash"`
	Gap   float64 `json:"gap"`
	Color string  `json:"color"`
	Level string  `json:"level"`
}

// Gauge levels.
const (
	GaugeHigh = "high"
	GaugeMid  = "mid"
	GaugeLow  = "low"
)

// GaugeFor computes the gauge arc for a savings rate already clamped into
// [0, 100]. The color comes from the first three swatches of theme.
func (m *Mapper) GaugeFor(rate float64, theme Theme) GaugeArc {
	circ := m.cfg.Gauge.Circumference
	dash := Round(circ*min(max(rate/100, 0), 1), 2)

	level := GaugeLevel(rate, m.cfg.Gauge)
	palette := m.Palette(theme)
	var color string
	switch level {
	case GaugeHigh:
		color = palette.Model(0).Hex
	case GaugeMid:
		color = palette.Model(1).Hex
	default:
		color = palette.Model(2).Hex
	}

	return GaugeArc{
		Rate:  rate,
		Dash:  dash,
		Gap:   Round(circ-dash, 2),
		Color: color,
		Level: level,
	}
}

// GaugeLevel classifies a rate against the gauge thresholds.
func GaugeLevel(rate float64, g Gauge) string {
	switch {
	case rate >= g.High:
		return GaugeHigh
	case rate >= g.Mid:
		return GaugeMid
	default:
		return GaugeLow
	}
}
