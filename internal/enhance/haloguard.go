package enhance

import (
	"math"

	"github.com/astropaint/moonshine/internal/detect"
	"github.com/astropaint/moonshine/internal/plane"
)

// haloSampleOffsetPx is how far inside/outside the fitted radius the halo
// guard samples luma.
const haloSampleOffsetPx = 2.0

// HaloCheck is the result of one radial overshoot measurement.
type HaloCheck struct {
	// Overshoot is the worst relative luminance excess just outside the
	// limb versus just inside, over all sampled angles.
	Overshoot float64 `json:"overshoot"`

	// Passed is true when the overshoot stays at or under the preset
	// threshold.
	Passed bool `json:"passed"`

	// Angles is the number of samples taken.
	Angles int `json:"angles"`
}

// MeasureHalo samples luma at radius±2px at evenly spaced angles around
// the fitted circle and scores the worst overshoot:
//
//	overshoot = max over angles of max(outside − inside, 0) / inside
//
// Sampling is bilinear; the inside denominator is floored so a black limb
// cannot divide by zero.
func MeasureHalo(l *plane.Plane, circle detect.FittedCircle, p HaloGuardParams) HaloCheck {
	angles := p.Angles
	if angles <= 0 {
		angles = 36
	}

	worst := 0.0
	for k := 0; k < angles; k++ {
		theta := 2 * math.Pi * float64(k) / float64(angles)
		cos, sin := math.Cos(theta), math.Sin(theta)

		rIn := circle.Radius - haloSampleOffsetPx
		rOut := circle.Radius + haloSampleOffsetPx
		inside := l.Sample(circle.CenterX+rIn*cos, circle.CenterY+rIn*sin)
		outside := l.Sample(circle.CenterX+rOut*cos, circle.CenterY+rOut*sin)

		excess := outside - inside
		if excess <= 0 {
			continue
		}
		overshoot := excess / math.Max(inside, 1e-6)
		if overshoot > worst {
			worst = overshoot
		}
	}

	return HaloCheck{
		Overshoot: worst,
		Passed:    worst <= p.OvershootThreshold,
		Angles:    angles,
	}
}

// HaloMitigation is the Params modifier applied before the single
// mitigation replay: fine wavelet gain drops by the preset fraction and the
// deconvolution iteration count drops by the preset amount (reaching zero
// disables the stage). The limb mask dilation happens alongside in the
// pipeline, since masks are not part of Params.
func HaloMitigation(p Params) Params {
	out := p
	out.Wavelet.FineGain *= 1 - p.HaloGuard.FineGainReduction
	out.Deconvolution.Iterations -= p.HaloGuard.IterationReduction
	if out.Deconvolution.Iterations < 0 {
		out.Deconvolution.Iterations = 0
	}
	return out
}
