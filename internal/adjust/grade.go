package adjust

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/lutforge/lutforge/internal/lut"
)

// Tint names the analysis service is allowed to emit. Anything else is
// treated as neutral rather than rejected; the upstream model sometimes
// invents shades.
var validTintColors = map[string]bool{
	"cyan": true, "teal": true, "blue": true, "orange": true,
	"gold": true, "red": true, "magenta": true, "green": true,
}

// RegionTint tints one tonal region: a named color for bookkeeping and
// an RGB multiplier triple doing the actual work.
type RegionTint struct {
	Color   string     `json:"color"`
	Balance [3]float64 `json:"balance"`
}

func (t RegionTint) active() bool {
	return t.Color != "" && t.Color != "neutral" && validTintColors[t.Color]
}

// Params is the parameter schema produced by the upstream image
// analysis: tonal endpoints, global contrast/saturation, per-region
// tints and optional per-channel gammas.
type Params struct {
	BlackPoint    float64            `json:"black_point"`
	WhitePoint    float64            `json:"white_point"`
	Contrast      float64            `json:"contrast"`
	Saturation    float64            `json:"saturation"`
	ShadowTint    RegionTint         `json:"shadow_tint"`
	HighlightTint RegionTint         `json:"highlight_tint"`
	Channels      map[string]float64 `json:"channel_adjustments"`
}

// DefaultParams returns the neutral parameter set.
func DefaultParams() Params {
	return Params{
		WhitePoint: 1,
		Contrast:   1,
		Saturation: 1,
		ShadowTint: RegionTint{Color: "neutral", Balance: [3]float64{1, 1, 1}},
		HighlightTint: RegionTint{
			Color: "neutral", Balance: [3]float64{1, 1, 1},
		},
	}
}

// Grade bakes p into a LUT grid at DefaultSize. Stages run in the
// upstream service's order: black/white-point contrast, shadow tint,
// highlight tint, HSV saturation, channel gammas.
func Grade(p Params) *lut.Grid {
	return GradeSize(p, DefaultSize)
}

// GradeSize is Grade at an explicit resolution.
func GradeSize(p Params, n int) *lut.Grid {
	g := lut.NewGrid(n)
	n = g.Size()
	max := float64(n - 1)
	for r := 0; r < n; r++ {
		for gg := 0; gg < n; gg++ {
			for b := 0; b < n; b++ {
				cr, cg, cb := gradeNode(p,
					float64(r)/max, float64(gg)/max, float64(b)/max)
				g.Set(r, gg, b, lut.Sample{R: cr, G: cg, B: cb})
			}
		}
	}
	return g
}

func gradeNode(p Params, r, g, b float64) (float64, float64, float64) {
	// Black/white point remap. Degenerate endpoints fall back to
	// identity instead of dividing by zero.
	if p.WhitePoint > p.BlackPoint && (p.BlackPoint != 0 || p.WhitePoint != 1) {
		scale := 1 / (p.WhitePoint - p.BlackPoint)
		offset := -p.BlackPoint * scale
		r = clamp01(r*scale + offset)
		g = clamp01(g*scale + offset)
		b = clamp01(b*scale + offset)
	}

	r, g, b = applyRegionTint(p.ShadowTint, r, g, b, func(l float64) bool { return l < 0.3 })
	r, g, b = applyRegionTint(p.HighlightTint, r, g, b, func(l float64) bool { return l > 0.7 })

	// Saturation rides the HSV cylinder, matching the original's
	// RGB->HSV->RGB round trip.
	if p.Saturation != 1 && p.Saturation >= 0 {
		h, s, v := colorful.Color{R: r, G: g, B: b}.Hsv()
		s = clamp01(s * p.Saturation)
		c := colorful.Hsv(h, s, v)
		r, g, b = c.R, c.G, c.B
	}

	if gamma, ok := p.Channels["red_gamma"]; ok && gamma > 0 {
		r = math.Pow(r, gamma)
	}
	if gamma, ok := p.Channels["green_gamma"]; ok && gamma > 0 {
		g = math.Pow(g, gamma)
	}
	if gamma, ok := p.Channels["blue_gamma"]; ok && gamma > 0 {
		b = math.Pow(b, gamma)
	}

	return clamp01(r), clamp01(g), clamp01(b)
}

// applyRegionTint multiplies the channels by the tint balance when the
// node's luminance falls inside the region.
func applyRegionTint(t RegionTint, r, g, b float64, in func(float64) bool) (float64, float64, float64) {
	if !t.active() || !in(luma(r, g, b)) {
		return r, g, b
	}
	return r * t.Balance[0], g * t.Balance[1], b * t.Balance[2]
}
