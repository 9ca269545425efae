package camera

import (
	"fmt"
	"math"
)

// Lens selects which physical camera to open.
type Lens string

const (
	LensBack  Lens = "back"
	LensFront Lens = "front"
)

func ParseLens(s string) (Lens, error) {
	switch Lens(s) {
	case LensBack, LensFront:
		return Lens(s), nil
	case "":
		return LensBack, nil
	default:
		return "", fmt.Errorf("invalid lens: %s (valid lenses: back, front)", s)
	}
}

// Other returns the opposite lens, the first fallback during device
// selection.
func (l Lens) Other() Lens {
	if l == LensBack {
		return LensFront
	}
	return LensBack
}

// SharpnessTier is one of the coarse edge-enhancement modes a device may
// support.
type SharpnessTier int

const (
	SharpnessOff SharpnessTier = iota
	SharpnessFast
	SharpnessHighQuality
)

func (t SharpnessTier) String() string {
	switch t {
	case SharpnessFast:
		return "fast"
	case SharpnessHighQuality:
		return "high-quality"
	default:
		return "off"
	}
}

// Params are the user-requested capture parameters. ExposureBias is a
// percentage in [-100, 100]; Sharpness is a percentage in [0, 100]. Two
// Params values are comparable with ==, which is what session idempotency
// relies on.
type Params struct {
	Lens         Lens
	ExposureBias int
	Sharpness    int
}

// MapExposure scales a ±100 percentage linearly into the device's supported
// compensation step range [min, max], clamping out-of-range requests.
func MapExposure(pct, min, max int) int {
	if pct > 100 {
		pct = 100
	}
	if pct < -100 {
		pct = -100
	}

	if pct >= 0 {
		if max <= 0 {
			return 0
		}
		return int(math.Round(float64(pct) * float64(max) / 100))
	}
	if min >= 0 {
		return 0
	}
	return int(math.Round(float64(-pct) * float64(min) / 100))
}

// MapSharpness maps a 0-100 percentage onto the coarsest tier ladder:
// <=10 off, <=60 fast, else high-quality. The desired tier is downgraded to
// the nearest supported one; if nothing below is supported the nearest
// supported tier above is used instead.
func MapSharpness(pct int, supported []SharpnessTier) SharpnessTier {
	var desired SharpnessTier
	switch {
	case pct <= 10:
		desired = SharpnessOff
	case pct <= 60:
		desired = SharpnessFast
	default:
		desired = SharpnessHighQuality
	}

	has := func(t SharpnessTier) bool {
		for _, s := range supported {
			if s == t {
				return true
			}
		}
		return false
	}

	for t := desired; t >= SharpnessOff; t-- {
		if has(t) {
			return t
		}
	}
	for t := desired + 1; t <= SharpnessHighQuality; t++ {
		if has(t) {
			return t
		}
	}
	return SharpnessOff
}
