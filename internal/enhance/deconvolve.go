package enhance

import (
	"math"

	"github.com/astropaint/moonshine/internal/plane"
)

const (
	// rlEpsilon floors every denominator and every correction ratio in
	// the Richardson–Lucy loop.
	rlEpsilon = 1e-6

	// rlEstimateCeiling bounds the running estimate relative to the
	// brightest observed sample. Raising a floored correction ratio to a
	// large confidence-derived exponent is otherwise unbounded.
	rlEstimateCeiling = 4.0
)

// shouldDeconvolve checks the stage's preconditions: detection confidence,
// median map confidence and clipped-highlight fraction must each clear the
// preset thresholds, and the iteration count must be positive. On failure
// the stage is skipped entirely, not attenuated.
func shouldDeconvolve(p DeconvolutionParams, detectionConfidence, medianC, clippedFraction float64) bool {
	if p.Iterations <= 0 {
		return false
	}
	if detectionConfidence < p.MinDetectionConfidence {
		return false
	}
	if medianC < p.MinMedianConfidence {
		return false
	}
	if clippedFraction > p.MaxClippedFraction {
		return false
	}
	return true
}

// deconvolve runs Richardson–Lucy deconvolution with a separable Gaussian
// PSF. The correction at each pixel is raised to a confidence-derived
// exponent, base + scale·C, further attenuated by the limb mask — so the
// *rate* of correction is confidence-gated per pixel, not just whether the
// stage runs.
//
// # Algorithm
//
// Per iteration, with ⊛ the Gaussian PSF convolution:
//
//	ratio    = observed / max(estimate ⊛ PSF, ε)
//	corr     = ratio ⊛ PSF
//	exponent = (base + scale·C) · (1 − limb)
//	estimate = estimate · corr^exponent
//
// The estimate is clamped to [0, 4·max(observed)] every iteration and to
// [0,1] at stage exit, keeping the floored-ratio/large-exponent corner
// bounded.
func deconvolve(l *plane.Plane, cm *ConfidenceMap, limb *plane.Mask, p DeconvolutionParams) *plane.Plane {
	observed := l
	estimate := l.Clone()
	ceiling := math.Max(observed.Max()*rlEstimateCeiling, rlEpsilon)

	ratio := plane.New(l.W, l.H)
	for iter := 0; iter < p.Iterations; iter++ {
		conv := plane.GaussianBlur(estimate, p.PSFSigma)
		for i := range ratio.Pix {
			ratio.Pix[i] = observed.Pix[i] / math.Max(conv.Pix[i], rlEpsilon)
		}
		corr := plane.GaussianBlur(ratio, p.PSFSigma)

		for i := range estimate.Pix {
			exponent := p.CorrectionBase + p.CorrectionScale*cm.C.Pix[i]
			exponent *= 1 - limb.Pix[i]
			if exponent < 0 {
				exponent = 0
			}
			c := math.Max(corr.Pix[i], rlEpsilon)
			v := estimate.Pix[i] * math.Pow(c, exponent)
			if math.IsNaN(v) || v < 0 {
				v = 0
			}
			if v > ceiling {
				v = ceiling
			}
			estimate.Pix[i] = v
		}
	}

	estimate.Clamp01()
	return estimate
}
