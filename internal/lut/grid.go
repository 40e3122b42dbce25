package lut

// Sample is one grid cell: an RGB triple with channels in [0,1].
type Sample struct {
	R, G, B float64
}

// Grid is a 3D color lookup table sampled at Size points per axis.
// Cells are stored blue-fastest: flat index = (r*Size + g)*Size + b,
// matching the .cube data-line convention. A cell may be absent (short
// or partially malformed source data); lookups report presence so
// callers can substitute the input color.
//
// A Grid is built once by Parse, Identity or a synthesizer and treated
// as read-only afterwards.
type Grid struct {
	Title string

	size    int
	samples []Sample
	present []bool
}

// NewGrid allocates an empty n^3 grid with every cell absent.
func NewGrid(n int) *Grid {
	if n < 2 {
		n = 2
	}
	return &Grid{
		size:    n,
		samples: make([]Sample, n*n*n),
		present: make([]bool, n*n*n),
	}
}

// Identity builds the identity lattice: cell (r,g,b) holds
// (r/(n-1), g/(n-1), b/(n-1)).
func Identity(n int) *Grid {
	g := NewGrid(n)
	max := float64(g.size - 1)
	for r := 0; r < g.size; r++ {
		for gg := 0; gg < g.size; gg++ {
			for b := 0; b < g.size; b++ {
				g.Set(r, gg, b, Sample{
					R: float64(r) / max,
					G: float64(gg) / max,
					B: float64(b) / max,
				})
			}
		}
	}
	return g
}

// Size returns the per-axis resolution N.
func (g *Grid) Size() int { return g.size }

// Index maps grid coordinates to the flat blue-fastest index.
func (g *Grid) Index(r, gg, b int) int {
	return (r*g.size+gg)*g.size + b
}

// At returns the cell at (r,g,b) and whether it is populated.
// Out-of-range coordinates report absent.
func (g *Grid) At(r, gg, b int) (Sample, bool) {
	if r < 0 || gg < 0 || b < 0 || r >= g.size || gg >= g.size || b >= g.size {
		return Sample{}, false
	}
	i := g.Index(r, gg, b)
	return g.samples[i], g.present[i]
}

// Set stores a cell and marks it populated. Out-of-range coordinates
// are ignored.
func (g *Grid) Set(r, gg, b int, s Sample) {
	if r < 0 || gg < 0 || b < 0 || r >= g.size || gg >= g.size || b >= g.size {
		return
	}
	i := g.Index(r, gg, b)
	g.samples[i] = s
	g.present[i] = true
}

// SetByIndex stores a cell by its flat blue-fastest index.
func (g *Grid) SetByIndex(k int, s Sample) {
	if k < 0 || k >= len(g.samples) {
		return
	}
	g.samples[k] = s
	g.present[k] = true
}

// Clear marks a cell absent. Used by tests to model sparse source data.
func (g *Grid) Clear(r, gg, b int) {
	if r < 0 || gg < 0 || b < 0 || r >= g.size || gg >= g.size || b >= g.size {
		return
	}
	i := g.Index(r, gg, b)
	g.samples[i] = Sample{}
	g.present[i] = false
}

// Populated counts cells that hold data.
func (g *Grid) Populated() int {
	n := 0
	for _, ok := range g.present {
		if ok {
			n++
		}
	}
	return n
}

// identityAt returns the identity coordinate of cell (r,g,b).
func (g *Grid) identityAt(r, gg, b int) Sample {
	max := float64(g.size - 1)
	return Sample{
		R: float64(r) / max,
		G: float64(gg) / max,
		B: float64(b) / max,
	}
}

// IsIdentity reports whether every populated cell sits within tol of
// its identity coordinate. An all-identity LUT transforms nothing.
func (g *Grid) IsIdentity(tol float64) bool {
	for r := 0; r < g.size; r++ {
		for gg := 0; gg < g.size; gg++ {
			for b := 0; b < g.size; b++ {
				s, ok := g.At(r, gg, b)
				if !ok {
					continue
				}
				id := g.identityAt(r, gg, b)
				if absf(s.R-id.R) >= tol || absf(s.G-id.G) >= tol || absf(s.B-id.B) >= tol {
					return false
				}
			}
		}
	}
	return true
}

func absf(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
