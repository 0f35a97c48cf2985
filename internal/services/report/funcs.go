package report

import (
	"fmt"
	"html/template"

	"github.com/dustin/go-humanize"

	"github.com/j-veylop/blockrun-report/internal/services/presentation"
)

var funcMap = template.FuncMap{
	"comma":      comma,
	"usd":        usd,
	"pct":        func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
	"whole":      func(v float64) string { return fmt.Sprintf("%.0f", v) },
	"kilo":       func(n int64) string { return fmt.Sprintf("%dk", n/1000) },
	"modelCount": func(b *presentation.Bundle) int { return len(b.Rows) },
	"dotStyle":   dotStyle,
	"pillStyle":  pillStyle,
	"colorStyle": colorStyle,
	"badgeStyle": badgeStyle,
	"gaugeStyle": gaugeStyle,
	"glowStyle":  glowStyle,
}

// comma formats an integer count with thousands separators.
func comma(n any) string {
	switch v := n.(type) {
	case int:
		return humanize.Comma(int64(v))
	case int64:
		return humanize.Comma(v)
	default:
		return fmt.Sprint(n)
	}
}

// usd formats an amount with a dollar sign and the given decimals.
func usd(v float64, places int) string {
	return fmt.Sprintf("$%.*f", places, v)
}

// The style helpers below build inline CSS from configured swatches. The
// html/template CSS filter rejects parentheses, so rgba() values have to be
// passed as trusted CSS.

func rgba(s presentation.Swatch, alpha float64) string {
	return fmt.Sprintf("rgba(%s,%g)", s.RGB, alpha)
}

func dotStyle(s presentation.Swatch) template.CSS {
	return template.CSS(fmt.Sprintf("background:%s;box-shadow:0 0 6px %s;", s.Hex, rgba(s, 0.7))) //nolint:gosec // configured colors
}

func pillStyle(s presentation.Swatch) template.CSS {
	return template.CSS(fmt.Sprintf("background:%s;color:%s;border:1px solid %s;", //nolint:gosec // configured colors
		rgba(s, 0.12), s.Hex, rgba(s, 0.3)))
}

func colorStyle(s presentation.Swatch) template.CSS {
	return template.CSS("color:" + s.Hex + ";") //nolint:gosec // configured colors
}

func badgeStyle(s presentation.Swatch) template.CSS {
	return template.CSS(fmt.Sprintf("border-color:%s;background:%s;", rgba(s, 0.4), rgba(s, 0.07))) //nolint:gosec // configured colors
}

func gaugeStyle(g presentation.GaugeArc) template.CSS {
	return template.CSS(fmt.Sprintf("stroke:%s;stroke-dasharray:%g %g;filter:drop-shadow(0 0 6px %s90);", //nolint:gosec // computed geometry
		g.Color, g.Dash, g.Gap, g.Color))
}

func glowStyle(g presentation.GaugeArc) template.CSS {
	return template.CSS(fmt.Sprintf("color:%s;text-shadow:0 0 14px %s66;", g.Color, g.Color)) //nolint:gosec // configured colors
}
