// Package effects draws the randomized visual adjustments applied to each
// spoofed output.
package effects

import "math/rand/v2"

// Intensity bounds how far a spoofed output drifts from its source.
type Intensity string

const (
	Light  Intensity = "light"
	Medium Intensity = "medium"
	Heavy  Intensity = "heavy"
)

// Scale is drawn independently of intensity.
const (
	ScaleMin = 1.25
	ScaleMax = 1.35
)

// Range is a closed interval [Min, Max].
type Range struct {
	Min float64
	Max float64
}

func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

func (r Range) draw() float64 {
	return r.Min + rand.Float64()*(r.Max-r.Min)
}

func symmetric(v float64) Range {
	return Range{Min: -v, Max: v}
}

// Bounds holds the per-field ranges of one intensity tier.
type Bounds struct {
	Rotation   Range // degrees
	Brightness Range // percent offset
	Contrast   Range // percent
	Saturation Range // percent
	Hue        Range // degrees
	Scale      Range // factor
}

var tiers = map[Intensity]Bounds{
	Light: {
		Rotation:   symmetric(1),
		Brightness: symmetric(3),
		Contrast:   Range{98, 102},
		Saturation: Range{99, 105},
		Hue:        symmetric(3),
		Scale:      Range{ScaleMin, ScaleMax},
	},
	Medium: {
		Rotation:   symmetric(3),
		Brightness: symmetric(6),
		Contrast:   Range{95, 105},
		Saturation: Range{98, 108},
		Hue:        symmetric(6),
		Scale:      Range{ScaleMin, ScaleMax},
	},
	Heavy: {
		Rotation:   symmetric(5),
		Brightness: symmetric(10),
		Contrast:   Range{90, 110},
		Saturation: Range{95, 115},
		Hue:        symmetric(10),
		Scale:      Range{ScaleMin, ScaleMax},
	},
}

// Normalize maps unrecognized tiers to Medium.
func (i Intensity) Normalize() Intensity {
	if _, ok := tiers[i]; ok {
		return i
	}
	return Medium
}

// BoundsFor returns the ranges for i, falling back to Medium.
func BoundsFor(i Intensity) Bounds {
	return tiers[i.Normalize()]
}

// Params is one realization of the randomized effects. Brightness,
// Contrast and Saturation are percentages; the filter graph converts them.
type Params struct {
	Rotation   float64
	Brightness float64
	Contrast   float64
	Saturation float64
	Hue        float64
	Scale      float64
}

// Generate draws a fresh Params for the tier. Every field is uniform over
// its range and drawn independently.
func Generate(i Intensity) Params {
	b := BoundsFor(i)
	return Params{
		Rotation:   b.Rotation.draw(),
		Brightness: b.Brightness.draw(),
		Contrast:   b.Contrast.draw(),
		Saturation: b.Saturation.draw(),
		Hue:        b.Hue.draw(),
		Scale:      b.Scale.draw(),
	}
}
