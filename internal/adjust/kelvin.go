package adjust

import "math"

// Slider-to-Kelvin anchors: -100 is warm tungsten-ish 2000K, 0 is
// neutral daylight, +100 is cool 10000K.
const (
	warmKelvin    = 2000
	neutralKelvin = 5500
	coolKelvin    = 10000

	// tempDamp scales the blackbody delta onto the channels. Tuned to
	// match slider feel; a calibration constant, do not re-derive.
	tempDamp = 0.8
)

// sliderToKelvin maps a -100..100 temperature slider onto the Kelvin
// scale, piecewise linear through the neutral point.
func sliderToKelvin(t float64) float64 {
	if t < 0 {
		return neutralKelvin + t/100*(neutralKelvin-warmKelvin)
	}
	return neutralKelvin + t/100*(coolKelvin-neutralKelvin)
}

// kelvinToRGB approximates the RGB tint of a blackbody radiator at the
// given temperature, via Tanner Helland's polynomial/log fit. Channels
// are returned normalized to [0,1].
func kelvinToRGB(kelvin float64) (r, g, b float64) {
	t := clamp(kelvin, 1000, 40000) / 100

	if t <= 66 {
		r = 255
	} else {
		r = 329.698727446 * math.Pow(t-60, -0.1332047592)
	}

	if t <= 66 {
		g = 99.4708025861*math.Log(t) - 161.1195681661
	} else {
		g = 288.1221695283 * math.Pow(t-60, -0.0755148492)
	}

	switch {
	case t >= 66:
		b = 255
	case t <= 19:
		b = 0
	default:
		b = 138.5177312231*math.Log(t-10) - 305.0447927307
	}

	return clamp(r, 0, 255) / 255, clamp(g, 0, 255) / 255, clamp(b, 0, 255) / 255
}
