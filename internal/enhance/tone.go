package enhance

import (
	"math"

	"github.com/astropaint/moonshine/internal/plane"
)

// toneMap normalizes luma to a percentile white point measured inside the
// moon mask, rolls highlights off through a tanh shoulder, applies an
// S-shaped midtone contrast curve, and blends the result back through the
// moon mask so the sky is untouched.
func toneMap(l *plane.Plane, moonMask *plane.Mask, p ToneParams) *plane.Plane {
	var inside []float64
	for i, v := range l.Pix {
		if moonMask.Pix[i] > 0.5 {
			inside = append(inside, v)
		}
	}
	white := plane.Percentile(inside, p.WhitePercentile)
	if white < 1e-6 {
		white = 1.0
	}

	out := plane.New(l.W, l.H)
	for i, v := range l.Pix {
		mapped := v / white
		mapped = shoulder(mapped, p.ShoulderStart)
		mapped = sCurve(mapped, p.MidtonePivot, p.MidtoneContrast)

		m := moonMask.Pix[i]
		out.Pix[i] = v*(1-m) + mapped*m
	}
	out.Clamp01()
	return out
}

// shoulder compresses values above start through a hyperbolic tangent, so
// highlights roll off smoothly instead of hitting a hard knee.
func shoulder(v, start float64) float64 {
	if v <= start {
		return v
	}
	span := math.Max(1-start, 1e-9)
	return start + span*math.Tanh((v-start)/span)
}

// sCurve applies a normalized logistic contrast curve pivoted at pivot.
// gain 0 is the identity; endpoints always map 0→0 and 1→1.
func sCurve(v, pivot, gain float64) float64 {
	if gain <= 0 {
		return v
	}
	k := 4 * gain
	f := func(x float64) float64 { return 1 / (1 + math.Exp(-k*(x-pivot))) }
	lo, hi := f(0), f(1)
	denom := math.Max(hi-lo, 1e-9)
	return (f(v) - lo) / denom
}
