package adjust

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGradeDefaultParamsIsIdentity(t *testing.T) {
	g := Grade(DefaultParams())
	assert.True(t, g.IsIdentity(1e-9))
}

func TestGradeBlackWhitePoint(t *testing.T) {
	p := DefaultParams()
	p.BlackPoint = 0.1
	p.WhitePoint = 0.9
	g := GradeSize(p, 5)

	mid, ok := g.At(2, 2, 2) // node 0.5 maps to itself
	require.True(t, ok)
	assert.InDelta(t, 0.5, mid.R, 1e-9)

	low, _ := g.At(0, 0, 0) // node 0 crushes to black
	assert.InDelta(t, 0.0, low.R, 1e-9)

	q, _ := g.At(1, 1, 1) // node 0.25 -> 0.25*1.25 - 0.125 = 0.1875
	assert.InDelta(t, 0.1875, q.R, 1e-9)
}

func TestGradeChannelGamma(t *testing.T) {
	p := DefaultParams()
	p.Channels = map[string]float64{"red_gamma": 2}
	g := GradeSize(p, 3)
	s, ok := g.At(1, 1, 1)
	require.True(t, ok)
	assert.InDelta(t, 0.25, s.R, 1e-9) // 0.5^2
	assert.InDelta(t, 0.5, s.G, 1e-9)
	assert.InDelta(t, 0.5, s.B, 1e-9)
}

func TestGradeShadowTintOnlyTouchesShadows(t *testing.T) {
	p := DefaultParams()
	p.ShadowTint = RegionTint{Color: "teal", Balance: [3]float64{0.9, 1.0, 1.1}}
	g := GradeSize(p, 11)

	s, _ := g.At(1, 1, 1) // node 0.1, luminance 0.1 < 0.3
	assert.InDelta(t, 0.09, s.R, 1e-9)
	assert.InDelta(t, 0.10, s.G, 1e-9)
	assert.InDelta(t, 0.11, s.B, 1e-9)

	m, _ := g.At(5, 5, 5) // midtone, untouched
	assert.InDelta(t, 0.5, m.R, 1e-9)
}

func TestGradeHighlightTintOnlyTouchesHighlights(t *testing.T) {
	p := DefaultParams()
	p.HighlightTint = RegionTint{Color: "gold", Balance: [3]float64{1.1, 1.05, 0.95}}
	g := GradeSize(p, 11)

	h, _ := g.At(9, 9, 9) // node 0.9, luminance 0.9 > 0.7
	assert.InDelta(t, 0.99, h.R, 1e-9)
	assert.InDelta(t, 0.945, h.G, 1e-9)
	assert.InDelta(t, 0.855, h.B, 1e-9)

	m, _ := g.At(5, 5, 5)
	assert.InDelta(t, 0.5, m.B, 1e-9)
}

func TestGradeUnknownTintColorIsNeutral(t *testing.T) {
	p := DefaultParams()
	// The analysis model occasionally invents shades; treat as neutral.
	p.ShadowTint = RegionTint{Color: "plaid", Balance: [3]float64{0, 0, 0}}
	g := GradeSize(p, 5)
	assert.True(t, g.IsIdentity(1e-9))
}

func TestGradeSaturationZeroDesaturates(t *testing.T) {
	p := DefaultParams()
	p.Saturation = 0
	g := GradeSize(p, 5)
	s, ok := g.At(4, 0, 0) // pure red node
	require.True(t, ok)
	assert.InDelta(t, s.R, s.G, 1e-9)
	assert.InDelta(t, s.G, s.B, 1e-9)
}

func TestGradeSaturationBoost(t *testing.T) {
	p := DefaultParams()
	p.Saturation = 1.5
	g := GradeSize(p, 5)
	s, _ := g.At(3, 1, 1) // reddish node gets redder relative to g/b
	assert.Greater(t, s.R-s.G, 0.75-0.25)
}
