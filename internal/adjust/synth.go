package adjust

import (
	"math"

	"github.com/lutforge/lutforge/internal/lut"
)

// DefaultSize is the synthesis resolution. 33 keeps exported .cube
// files aligned with what grading tools produce.
const DefaultSize = 33

// Synthesize evaluates the slider pipeline at every node of a
// DefaultSize identity lattice. It always succeeds; all-zero sliders
// yield the identity grid.
func Synthesize(a Adjustments) *lut.Grid {
	return SynthesizeSize(a, DefaultSize)
}

// SynthesizeSize is Synthesize at an explicit grid resolution.
func SynthesizeSize(a Adjustments, n int) *lut.Grid {
	a = a.Clamped()
	g := lut.NewGrid(n)
	n = g.Size()
	max := float64(n - 1)
	for r := 0; r < n; r++ {
		for gg := 0; gg < n; gg++ {
			for b := 0; b < n; b++ {
				cr, cg, cb := evalNode(a,
					float64(r)/max, float64(gg)/max, float64(b)/max)
				g.Set(r, gg, b, lut.Sample{R: cr, G: cg, B: cb})
			}
		}
	}
	return g
}

// evalNode runs one color through the slider pipeline. The stage order
// is fixed; reordering changes results and breaks reproducibility with
// previously exported LUTs.
func evalNode(a Adjustments, r, g, b float64) (float64, float64, float64) {
	// Exposure: stop-based, +100 doubles each channel.
	if a.Exposure != 0 {
		m := math.Pow(2, a.Exposure/100)
		r, g, b = r*m, g*m, b*m
	}

	// Contrast: pivot around mid-gray so 0.5 is a fixed point.
	if a.Contrast != 0 {
		k := 1 + a.Contrast/100
		r = (r-0.5)*k + 0.5
		g = (g-0.5)*k + 0.5
		b = (b-0.5)*k + 0.5
	}

	// Highlights/shadows: additive, gated by luminance band. Tones
	// outside the band are untouched on purpose; highlights never
	// reach into shadows and vice versa.
	if a.Highlights != 0 || a.Shadows != 0 {
		l := luma(r, g, b)
		if a.Highlights != 0 && l > 0.7 {
			d := (a.Highlights / 400) * ((l - 0.7) / 0.3)
			r, g, b = r+d, g+d, b+d
		}
		if a.Shadows != 0 && l < 0.3 {
			d := (a.Shadows / 300) * ((0.3 - l) / 0.3)
			r, g, b = r+d, g+d, b+d
		}
	}

	// Whites pull toward 1, blacks scale toward 0.
	if a.Whites != 0 {
		w := a.Whites / 400
		r += (1 - r) * w
		g += (1 - g) * w
		b += (1 - b) * w
	}
	if a.Blacks != 0 {
		k := a.Blacks / 400
		r += r * k
		g += g * k
		b += b * k
	}

	// Saturation: scale distance from luminance.
	if a.Saturation != 0 {
		l := luma(r, g, b)
		k := 1 + a.Saturation/100
		r = l + (r-l)*k
		g = l + (g-l)*k
		b = l + (b-l)*k
	}

	// Vibrance: like saturation but damped for already-colorful nodes.
	if a.Vibrance != 0 {
		hi := math.Max(r, math.Max(g, b))
		lo := math.Min(r, math.Min(g, b))
		k := 1 + (a.Vibrance/100)*(1-(hi-lo))
		l := luma(r, g, b)
		r = l + (r-l)*k
		g = l + (g-l)*k
		b = l + (b-l)*k
	}

	// Temperature: slider -> Kelvin -> blackbody RGB, applied as a
	// damped delta from neutral daylight.
	if a.Temperature != 0 {
		kr, kg, kb := kelvinToRGB(sliderToKelvin(a.Temperature))
		nr, ng, nb := kelvinToRGB(neutralKelvin)
		r += (kr - nr) * tempDamp
		g += (kg - ng) * tempDamp
		b += (kb - nb) * tempDamp
	}

	// Tint: magenta/green axis. The green delta is deliberately larger
	// than red/blue; the constants are calibration values, not derived.
	if a.Tint != 0 {
		t := a.Tint / 100
		r += t * 0.05
		g -= t * 0.10
		b += t * 0.05
	}

	return clamp01(r), clamp01(g), clamp01(b)
}
