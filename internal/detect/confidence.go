package detect

import (
	"math"

	"github.com/astropaint/moonshine/internal/plane"
)

// DetectionConfidence is the composite detection score with its named
// sub-scores. All values are in [0,1]. Derived once, never mutated.
type DetectionConfidence struct {
	// Composite = 0.35·FitQuality + 0.25·Circularity + 0.20·SizeScore
	// + 0.20·BrightnessConsistency.
	Composite float64 `json:"composite"`

	// FitQuality decays exponentially with the fit residual relative to
	// the radius: a clean limb scores near 1.
	FitQuality float64 `json:"fit_quality"`

	// SizeScore penalizes disks implausibly small or large for a lunar
	// photo relative to the image width.
	SizeScore float64 `json:"size_score"`

	// BrightnessConsistency scores the coefficient of variation of luma
	// inside the disk. Near-zero variation suggests a clipped disk; high
	// variation suggests the blob is not the moon.
	BrightnessConsistency float64 `json:"brightness_consistency"`

	// Circularity is the selected blob's circularity.
	Circularity float64 `json:"circularity"`
}

// Confidence scoring weights and shape constants.
const (
	weightFit        = 0.35
	weightCircle     = 0.25
	weightSize       = 0.20
	weightBrightness = 0.20

	// fitDecay controls how fast fit quality falls off with the
	// residual-to-radius ratio. A 1% RMS residual scores ≈0.90.
	fitDecay = 10.0

	sizeFloor       = 0.2
	brightLowFloor  = 0.3
	brightHighFloor = 0.2
)

// ScoreDetection computes the composite confidence for a fitted circle.
// imageWidth is the full image width in pixels; luma is the full-resolution
// luma plane the disk statistics are read from.
func ScoreDetection(circle FittedCircle, blob Blob, luma *plane.Plane, imageWidth int) DetectionConfidence {
	fit := math.Exp(-fitDecay * circle.Residual / math.Max(circle.Radius, 1e-9))
	size := sizeScore(2*circle.Radius, float64(imageWidth))
	bright := brightnessConsistency(circle, luma)

	c := DetectionConfidence{
		FitQuality:            plane.Clamp01(fit),
		SizeScore:             size,
		BrightnessConsistency: bright,
		Circularity:           plane.Clamp01(blob.Circularity),
	}
	c.Composite = plane.Clamp01(weightFit*c.FitQuality +
		weightCircle*c.Circularity +
		weightSize*c.SizeScore +
		weightBrightness*c.BrightnessConsistency)
	return c
}

// sizeScore maps disk diameter relative to image width into [0,1].
// Full score inside [5%, 60%]; linear ramps down to a hard floor of 0.2
// outside [3%, 80%].
func sizeScore(diameter, imageWidth float64) float64 {
	if imageWidth <= 0 {
		return sizeFloor
	}
	d := diameter / imageWidth
	switch {
	case d >= 0.05 && d <= 0.60:
		return 1.0
	case d >= 0.03 && d < 0.05:
		return sizeFloor + (1.0-sizeFloor)*(d-0.03)/0.02
	case d > 0.60 && d <= 0.80:
		return 1.0 - (1.0-sizeFloor)*(d-0.60)/0.20
	default:
		return sizeFloor
	}
}

// brightnessConsistency scores the coefficient of variation of luma inside
// the fitted disk. The ideal band is [0.10, 0.40]: a real lunar surface has
// visible mare/highland variation, a clipped disk has almost none, and a
// cloud or lamp has far more.
func brightnessConsistency(circle FittedCircle, luma *plane.Plane) float64 {
	var values []float64
	minX := int(circle.CenterX - circle.Radius)
	maxX := int(circle.CenterX + circle.Radius)
	minY := int(circle.CenterY - circle.Radius)
	maxY := int(circle.CenterY + circle.Radius)
	r2 := circle.Radius * circle.Radius

	for y := minY; y <= maxY; y++ {
		if y < 0 || y >= luma.H {
			continue
		}
		for x := minX; x <= maxX; x++ {
			if x < 0 || x >= luma.W {
				continue
			}
			dx := float64(x) - circle.CenterX
			dy := float64(y) - circle.CenterY
			if dx*dx+dy*dy <= r2 {
				values = append(values, luma.Pix[y*luma.W+x])
			}
		}
	}
	if len(values) < 4 {
		return brightLowFloor
	}

	mean, std := plane.MeanStd(values)
	cov := std / math.Max(mean, 1e-9)

	switch {
	case cov >= 0.10 && cov <= 0.40:
		return 1.0
	case cov < 0.10:
		return brightLowFloor + (1.0-brightLowFloor)*cov/0.10
	case cov <= 1.0:
		return 1.0 - (1.0-brightHighFloor)*(cov-0.40)/0.60
	default:
		return brightHighFloor
	}
}
