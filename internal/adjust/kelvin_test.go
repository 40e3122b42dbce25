package adjust

import "testing"

func TestSliderToKelvinAnchors(t *testing.T) {
	cases := []struct {
		slider float64
		want   float64
	}{
		{-100, warmKelvin},
		{0, neutralKelvin},
		{100, coolKelvin},
		{-50, 3750},
		{50, 7750},
	}
	for _, c := range cases {
		if got := sliderToKelvin(c.slider); got != c.want {
			t.Fatalf("sliderToKelvin(%v) = %v, want %v", c.slider, got, c.want)
		}
	}
}

func TestKelvinToRGBCharacter(t *testing.T) {
	wr, _, wb := kelvinToRGB(2000)
	if wr <= wb {
		t.Fatalf("2000K should be red-heavy: r=%v b=%v", wr, wb)
	}
	cr, _, cb := kelvinToRGB(10000)
	if cb <= cr {
		t.Fatalf("10000K should be blue-heavy: r=%v b=%v", cr, cb)
	}
	nr, ng, nb := kelvinToRGB(neutralKelvin)
	for _, ch := range []float64{nr, ng, nb} {
		if ch <= 0 || ch > 1 {
			t.Fatalf("neutral channel out of range: %v %v %v", nr, ng, nb)
		}
	}
}

func TestKelvinToRGBBounds(t *testing.T) {
	for _, k := range []float64{500, 1000, 1900, 6600, 20000, 40000, 99999} {
		r, g, b := kelvinToRGB(k)
		for _, ch := range []float64{r, g, b} {
			if ch < 0 || ch > 1 {
				t.Fatalf("kelvinToRGB(%v) out of range: %v %v %v", k, r, g, b)
			}
		}
	}
}
