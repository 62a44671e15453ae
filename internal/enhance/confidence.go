package enhance

import (
	"math"

	"github.com/astropaint/moonshine/internal/plane"
)

// ConfidenceMap is the per-pixel "how much real detail is here" signal that
// gates every restoration stage. Recomputed once per enhancement run from
// the current luma and masks; never persisted.
type ConfidenceMap struct {
	// C holds per-pixel confidence in [0,1].
	C *plane.Plane

	// SNR is the per-pixel signal-to-noise estimate C was derived from.
	SNR *plane.Plane

	// Median is the median confidence over moon-mask pixels (all pixels
	// if the mask is empty).
	Median float64

	// NoiseSigma is the background noise estimate used for the SNR.
	NoiseSigma float64
}

// Confidence map shape constants: SNR 2 maps to C=0, SNR 8 to C=1, and the
// limb ring suppresses confidence by 75%.
const (
	snrRampLow      = 2.0
	snrRampHigh     = 8.0
	limbSuppression = 0.75

	// minBackgroundSamples is the sample count below which noise
	// estimation falls back to whole-frame statistics.
	minBackgroundSamples = 64
)

// BuildConfidenceMap derives the confidence map from a luma plane and the
// detection masks. Both masks must match the luma resolution.
func BuildConfidenceMap(luma *plane.Plane, moonMask, limbRing *plane.Mask) *ConfidenceMap {
	sigma := estimateNoiseSigma(luma, moonMask)
	gradient := plane.SobelMagnitude(luma)

	snr := plane.New(luma.W, luma.H)
	c := plane.New(luma.W, luma.H)
	var maskValues []float64

	for i := range luma.Pix {
		s := gradient.Pix[i] / math.Max(sigma, 1e-9)
		snr.Pix[i] = s

		v := plane.Clamp01((s - snrRampLow) / (snrRampHigh - snrRampLow))
		v *= 1 - limbSuppression*limbRing.Pix[i]
		if moonMask.Pix[i] == 0 {
			v = 0
		}
		c.Pix[i] = v

		if moonMask.Pix[i] > 0 {
			maskValues = append(maskValues, v)
		}
	}

	var median float64
	if len(maskValues) > 0 {
		median = plane.Median(maskValues)
	} else {
		median = plane.Median(c.Pix)
	}

	return &ConfidenceMap{C: c, SNR: snr, Median: median, NoiseSigma: sigma}
}

// estimateNoiseSigma measures luma standard deviation outside the moon
// mask. With too few background samples (a disk filling the crop) it falls
// back to whole-frame statistics.
func estimateNoiseSigma(luma *plane.Plane, moonMask *plane.Mask) float64 {
	var background []float64
	for i, v := range luma.Pix {
		if moonMask.Pix[i] == 0 {
			background = append(background, v)
		}
	}
	if len(background) < minBackgroundSamples {
		background = luma.Pix
	}
	_, sigma := plane.MeanStd(background)
	if sigma < 1e-6 {
		sigma = 1e-6
	}
	return sigma
}
