package apply

import (
	"image"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/lutforge/lutforge/internal/lut"
)

// Preview is a fast low-fidelity variant of Apply: nearest grid node
// instead of trilinear interpolation. Good enough for live slider
// feedback, never for export.
func Preview(g *lut.Grid, src *image.RGBA, intensity float64) *image.RGBA {
	intensity = clamp01(intensity)
	out := image.NewRGBA(src.Bounds())
	if intensity == 0 {
		copy(out.Pix, src.Pix)
		return out
	}
	max := float64(g.Size() - 1)
	for i := 0; i+3 < len(src.Pix); i += 4 {
		r := float64(src.Pix[i]) / 255
		gg := float64(src.Pix[i+1]) / 255
		bb := float64(src.Pix[i+2]) / 255

		s, ok := g.At(nearest(r, max), nearest(gg, max), nearest(bb, max))
		if !ok {
			s = lut.Sample{R: r, G: gg, B: bb}
		}

		out.Pix[i] = to8(s.R*intensity + r*(1-intensity))
		out.Pix[i+1] = to8(s.G*intensity + gg*(1-intensity))
		out.Pix[i+2] = to8(s.B*intensity + bb*(1-intensity))
		out.Pix[i+3] = src.Pix[i+3]
	}
	return out
}

func nearest(x, max float64) int {
	return int(clamp01(x)*max + 0.5)
}

// Swatches runs a full-saturation hue sweep through the grid and
// returns hex colors, a lightweight way to show a LUT's character
// without shipping a rendered image.
func Swatches(g *lut.Grid, n int) []string {
	if n <= 0 {
		n = 12
	}
	out := make([]string, n)
	for i := 0; i < n; i++ {
		c := colorful.Hsv(float64(i)/float64(n)*360, 1, 1)
		r, gg, b := lookup(g, c.R, c.G, c.B)
		out[i] = colorful.Color{R: clamp01(r), G: clamp01(gg), B: clamp01(b)}.Hex()
	}
	return out
}
