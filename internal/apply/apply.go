// Package apply maps images through a 3D LUT grid with trilinear
// interpolation and intensity blending. The per-pixel transform is
// pure and order-independent, so rows are fanned out across workers.
package apply

import (
	"image"
	"math"
	"runtime"
	"sync"

	"github.com/lutforge/lutforge/internal/lut"
)

// maxDeviation is the runaway guard: if a transformed color strays
// further than this from the input on any channel, the transform is
// discarded for that pixel. Protects against corrupt or adversarial
// LUTs producing interpolation artifacts. Intentional, keep it.
const maxDeviation = 0.8

// Options tunes Apply. Zero values pick defaults.
type Options struct {
	// Workers caps the row-worker count; 0 means GOMAXPROCS.
	Workers int
}

// Apply runs src through g and blends the result with the original by
// intensity (clamped to [0,1]). src is read only; a new image is
// returned. Alpha passes through unchanged.
func Apply(g *lut.Grid, src *image.RGBA, intensity float64) *image.RGBA {
	return ApplyWith(g, src, intensity, Options{})
}

// ApplyWith is Apply with explicit options.
func ApplyWith(g *lut.Grid, src *image.RGBA, intensity float64, opts Options) *image.RGBA {
	intensity = clamp01(intensity)
	out := image.NewRGBA(src.Bounds())
	if intensity == 0 {
		copy(out.Pix, src.Pix)
		return out
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	rows := src.Bounds().Dy()
	if workers > rows {
		workers = rows
	}
	if workers < 1 {
		workers = 1
	}

	var wg sync.WaitGroup
	chunk := (rows + workers - 1) / workers
	for w := 0; w < workers; w++ {
		y0 := src.Bounds().Min.Y + w*chunk
		y1 := y0 + chunk
		if y1 > src.Bounds().Max.Y {
			y1 = src.Bounds().Max.Y
		}
		if y0 >= y1 {
			break
		}
		wg.Add(1)
		go func(y0, y1 int) {
			defer wg.Done()
			applyRows(g, src, out, y0, y1, intensity)
		}(y0, y1)
	}
	wg.Wait()
	return out
}

func applyRows(g *lut.Grid, src, out *image.RGBA, y0, y1 int, intensity float64) {
	b := src.Bounds()
	for y := y0; y < y1; y++ {
		i := src.PixOffset(b.Min.X, y)
		o := out.PixOffset(b.Min.X, y)
		for x := b.Min.X; x < b.Max.X; x++ {
			r := float64(src.Pix[i]) / 255
			gg := float64(src.Pix[i+1]) / 255
			bb := float64(src.Pix[i+2]) / 255

			tr, tg, tb := lookup(g, r, gg, bb)

			// Runaway guard: wildly divergent results mean a broken
			// grid, not a creative look.
			if absf(tr-r) > maxDeviation || absf(tg-gg) > maxDeviation || absf(tb-bb) > maxDeviation {
				tr, tg, tb = r, gg, bb
			}

			tr = tr*intensity + r*(1-intensity)
			tg = tg*intensity + gg*(1-intensity)
			tb = tb*intensity + bb*(1-intensity)

			out.Pix[o] = to8(tr)
			out.Pix[o+1] = to8(tg)
			out.Pix[o+2] = to8(tb)
			out.Pix[o+3] = src.Pix[i+3]

			i += 4
			o += 4
		}
	}
}

// lookup trilinearly interpolates the grid at a normalized color.
// Absent corners fall back to the input color, so sparse grids degrade
// toward identity instead of failing.
func lookup(g *lut.Grid, r, gg, bb float64) (float64, float64, float64) {
	n := g.Size()
	max := float64(n - 1)

	fr := clamp01(r) * max
	fg := clamp01(gg) * max
	fb := clamp01(bb) * max

	r0, g0, b0 := int(fr), int(fg), int(fb)
	r1, g1, b1 := mini(r0+1, n-1), mini(g0+1, n-1), mini(b0+1, n-1)
	dr, dg, db := fr-float64(r0), fg-float64(g0), fb-float64(b0)

	in := lut.Sample{R: r, G: gg, B: bb}
	c000 := corner(g, r0, g0, b0, in)
	c100 := corner(g, r1, g0, b0, in)
	c010 := corner(g, r0, g1, b0, in)
	c110 := corner(g, r1, g1, b0, in)
	c001 := corner(g, r0, g0, b1, in)
	c101 := corner(g, r1, g0, b1, in)
	c011 := corner(g, r0, g1, b1, in)
	c111 := corner(g, r1, g1, b1, in)

	// 7-lerp cascade: R axis, then G, then B.
	c00 := lerp(c000, c100, dr)
	c10 := lerp(c010, c110, dr)
	c01 := lerp(c001, c101, dr)
	c11 := lerp(c011, c111, dr)
	c0 := lerp(c00, c10, dg)
	c1 := lerp(c01, c11, dg)
	s := lerp(c0, c1, db)
	return s.R, s.G, s.B
}

func corner(g *lut.Grid, r, gg, b int, fallback lut.Sample) lut.Sample {
	if s, ok := g.At(r, gg, b); ok {
		return s
	}
	return fallback
}

func lerp(a, b lut.Sample, t float64) lut.Sample {
	return lut.Sample{
		R: a.R + t*(b.R-a.R),
		G: a.G + t*(b.G-a.G),
		B: a.B + t*(b.B-a.B),
	}
}

func to8(x float64) uint8 {
	v := math.Round(clamp01(x) * 255)
	return uint8(v)
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

func absf(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func mini(a, b int) int {
	if a < b {
		return a
	}
	return b
}
