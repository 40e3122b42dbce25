// Package adjust synthesizes 3D LUT grids from named color controls:
// either the ten Lightroom-style slider values a user drags, or the
// parameter schema the upstream analysis service emits.
package adjust

// Adjustments is the flat record of slider values, each nominally in
// [-100,100] with 0 meaning no-op. Equal Adjustments synthesize equal
// grids; the synthesis is deterministic and total.
type Adjustments struct {
	Exposure    float64 `json:"exposure"`
	Contrast    float64 `json:"contrast"`
	Highlights  float64 `json:"highlights"`
	Shadows     float64 `json:"shadows"`
	Whites      float64 `json:"whites"`
	Blacks      float64 `json:"blacks"`
	Saturation  float64 `json:"saturation"`
	Vibrance    float64 `json:"vibrance"`
	Temperature float64 `json:"temperature"`
	Tint        float64 `json:"tint"`
}

// IsZero reports whether every slider sits at neutral.
func (a Adjustments) IsZero() bool {
	return a == Adjustments{}
}

// Clamped returns a copy with every slider bounded to [-100,100].
// Out-of-range dials are caller sloppiness, not errors.
func (a Adjustments) Clamped() Adjustments {
	c := a
	for _, p := range []*float64{
		&c.Exposure, &c.Contrast, &c.Highlights, &c.Shadows, &c.Whites,
		&c.Blacks, &c.Saturation, &c.Vibrance, &c.Temperature, &c.Tint,
	} {
		*p = clamp(*p, -100, 100)
	}
	return c
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func clamp01(x float64) float64 { return clamp(x, 0, 1) }

// luma is the Rec.601 luminance weighting used by the tonal gates.
func luma(r, g, b float64) float64 {
	return 0.299*r + 0.587*g + 0.114*b
}
