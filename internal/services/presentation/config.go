// Package presentation shapes aggregated periods into chart-ready series.
package presentation

import (
	"errors"
	"fmt"
)

// Theme selects a color palette.
type Theme string

const (
	// ThemePastel is the low-saturation default palette.
	ThemePastel Theme = "pastel"
	// ThemeNeon is the full-saturation palette on a black base.
	ThemeNeon Theme = "neon"
)

// ParseTheme maps a name to a Theme, falling back to pastel.
func ParseTheme(name string) Theme {
	if Theme(name) == ThemeNeon {
		return ThemeNeon
	}
	return ThemePastel
}

// Swatch is one display color in the forms the renderers need.
type Swatch struct {
	Hex  string `json:"hex" yaml:"hex"`
	Soft string `json:"soft" yaml:"soft"`
	RGB  string `json:"rgb" yaml:"rgb"`
}

// Palette is the ordered set of model colors plus per-tier colors.
type Palette struct {
	Models   []Swatch          `yaml:"models"`
	Tiers    map[string]Swatch `yaml:"tiers"`
	Fallback Swatch            `yaml:"fallback"`
}

// Model returns the swatch for a color slot, cycling once slots exceed the
// palette size.
func (p Palette) Model(slot int) Swatch {
	if len(p.Models) == 0 {
		return p.Fallback
	}
	n := len(p.Models)
	return p.Models[((slot%n)+n)%n]
}

// Tier returns the swatch for a tier, or the fallback for unknown tiers.
func (p Palette) Tier(name string) Swatch {
	if s, ok := p.Tiers[name]; ok {
		return s
	}
	return p.Fallback
}

// Gauge holds the fixed savings gauge geometry and thresholds.
type Gauge struct {
	Circumference float64 `yaml:"circumference"`
	High          float64 `yaml:"high"`
	Mid           float64 `yaml:"mid"`
}

// Config is the immutable presentation configuration loaded once per run.
type Config struct {
	Palettes      map[Theme]Palette `yaml:"palettes"`
	Gauge         Gauge             `yaml:"gauge"`
	LatencyLabels []string          `yaml:"-"`
}

// PaletteSize is the number of model swatches every palette must define.
const PaletteSize = 5

// Rounding precisions for display stability.
const (
	amountPrecision = 4
	seriesPrecision = 6
)

// DefaultLatencyLabels are the labels of the 10 fixed latency buckets.
var DefaultLatencyLabels = []string{
	"0-2s", "2-4s", "4-6s", "6-8s", "8-10s",
	"10-12s", "12-14s", "14-16s", "16-18s", "18s+",
}

// DefaultConfig returns the built-in pastel and neon palettes and gauge
// settings.
func DefaultConfig() Config {
	fallback := Swatch{Hex: "#8899aa", Soft: "rgba(136,153,170,0.18)", RGB: "136,153,170"}

	pastel := Palette{
		Models: []Swatch{
			{Hex: "#6ee7df", Soft: "rgba(110,231,223,0.18)", RGB: "110,231,223"},
			{Hex: "#f5c97e", Soft: "rgba(245,201,126,0.18)", RGB: "245,201,126"},
			{Hex: "#d4a0c8", Soft: "rgba(212,160,200,0.18)", RGB: "212,160,200"},
			{Hex: "#93c5fd", Soft: "rgba(147,197,253,0.18)", RGB: "147,197,253"},
			{Hex: "#86efac", Soft: "rgba(134,239,172,0.18)", RGB: "134,239,172"},
		},
		Tiers: map[string]Swatch{
			"SIMPLE": {Hex: "#6ee7df", Soft: "rgba(110,231,223,0.07)", RGB: "110,231,223"},
			"MEDIUM": {Hex: "#f5c97e", Soft: "rgba(245,201,126,0.07)", RGB: "245,201,126"},
			"DIRECT": {Hex: "#d4a0c8", Soft: "rgba(212,160,200,0.07)", RGB: "212,160,200"},
		},
		Fallback: fallback,
	}

	neon := Palette{
		Models: []Swatch{
			{Hex: "#00f5d4", Soft: "rgba(0,245,212,0.2)", RGB: "0,245,212"},
			{Hex: "#ffb700", Soft: "rgba(255,183,0,0.2)", RGB: "255,183,0"},
			{Hex: "#ff3cac", Soft: "rgba(255,60,172,0.2)", RGB: "255,60,172"},
			{Hex: "#a78bfa", Soft: "rgba(167,139,250,0.2)", RGB: "167,139,250"},
			{Hex: "#34d399", Soft: "rgba(52,211,153,0.2)", RGB: "52,211,153"},
		},
		Tiers: map[string]Swatch{
			"SIMPLE": {Hex: "#00f5d4", Soft: "rgba(0,245,212,0.07)", RGB: "0,245,212"},
			"MEDIUM": {Hex: "#ffb700", Soft: "rgba(255,183,0,0.07)", RGB: "255,183,0"},
			"DIRECT": {Hex: "#ff3cac", Soft: "rgba(255,60,172,0.07)", RGB: "255,60,172"},
		},
		Fallback: fallback,
	}

	return Config{
		Palettes: map[Theme]Palette{
			ThemePastel: pastel,
			ThemeNeon:   neon,
		},
		Gauge: Gauge{
			Circumference: 339.3,
			High:          70,
			Mid:           40,
		},
		LatencyLabels: append([]string(nil), DefaultLatencyLabels...),
	}
}

// Validate checks that the configuration can drive the mapper.
func (c Config) Validate() error {
	var errs []error
	for _, theme := range []Theme{ThemePastel, ThemeNeon} {
		p, ok := c.Palettes[theme]
		if !ok {
			errs = append(errs, fmt.Errorf("palette %q missing", theme))
			continue
		}
		if len(p.Models) != PaletteSize {
			errs = append(errs, fmt.Errorf("palette %q has %d model colors, want %d", theme, len(p.Models), PaletteSize))
		}
	}
	if c.Gauge.Circumference <= 0 {
		errs = append(errs, errors.New("gauge circumference must be positive"))
	}
	if c.Gauge.High <= c.Gauge.Mid {
		errs = append(errs, fmt.Errorf("gauge high threshold %.1f must exceed mid %.1f", c.Gauge.High, c.Gauge.Mid))
	}
	if len(c.LatencyLabels) != len(DefaultLatencyLabels) {
		errs = append(errs, fmt.Errorf("want %d latency labels, got %d", len(DefaultLatencyLabels), len(c.LatencyLabels)))
	}
	return errors.Join(errs...)
}

// Themes returns the configured themes in a fixed order.
func (c Config) Themes() []Theme {
	var themes []Theme
	for _, t := range []Theme{ThemePastel, ThemeNeon} {
		if _, ok := c.Palettes[t]; ok {
			themes = append(themes, t)
		}
	}
	return themes
}
