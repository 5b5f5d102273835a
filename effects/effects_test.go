package effects

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerate_StaysWithinTierRanges(t *testing.T) {
	for _, tier := range []Intensity{Light, Medium, Heavy} {
		t.Run(string(tier), func(t *testing.T) {
			b := BoundsFor(tier)
			for i := 0; i < 1000; i++ {
				p := Generate(tier)
				assert.True(t, b.Rotation.Contains(p.Rotation), "rotation %v", p.Rotation)
				assert.True(t, b.Brightness.Contains(p.Brightness), "brightness %v", p.Brightness)
				assert.True(t, b.Contrast.Contains(p.Contrast), "contrast %v", p.Contrast)
				assert.True(t, b.Saturation.Contains(p.Saturation), "saturation %v", p.Saturation)
				assert.True(t, b.Hue.Contains(p.Hue), "hue %v", p.Hue)
				assert.GreaterOrEqual(t, p.Scale, ScaleMin)
				assert.LessOrEqual(t, p.Scale, ScaleMax)
			}
		})
	}
}

func TestBoundsFor_DocumentedTiers(t *testing.T) {
	tests := []struct {
		tier     Intensity
		rotation float64
		contrast Range
	}{
		{Light, 1, Range{98, 102}},
		{Medium, 3, Range{95, 105}},
		{Heavy, 5, Range{90, 110}},
	}
	for _, tt := range tests {
		b := BoundsFor(tt.tier)
		assert.Equal(t, Range{-tt.rotation, tt.rotation}, b.Rotation)
		assert.Equal(t, tt.contrast, b.Contrast)
	}
}

func TestNormalize_UnknownFallsBackToMedium(t *testing.T) {
	assert.Equal(t, Medium, Intensity("extreme").Normalize())
	assert.Equal(t, Medium, Intensity("").Normalize())
	assert.Equal(t, Heavy, Heavy.Normalize())
	assert.Equal(t, BoundsFor(Medium), BoundsFor("extreme"))
}

func TestGenerate_DrawsFreshValues(t *testing.T) {
	first := Generate(Heavy)
	for i := 0; i < 10; i++ {
		if Generate(Heavy) != first {
			return
		}
	}
	t.Fatal("ten consecutive draws were identical")
}
