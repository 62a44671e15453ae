package detect

import (
	"image"

	"github.com/astropaint/moonshine/internal/colorspace"
	"github.com/astropaint/moonshine/internal/plane"
)

// FailureReason tags why a detection did not produce a usable result.
type FailureReason string

const (
	// FailureNone means detection succeeded with usable confidence.
	FailureNone FailureReason = ""

	// FailureNoCandidate means no blob survived the area/circularity
	// filters.
	FailureNoCandidate FailureReason = "no_candidate"

	// FailureDegenerateFit means the circle fit could not produce a
	// finite positive-radius circle.
	FailureDegenerateFit FailureReason = "degenerate_fit"

	// FailureLowConfidence means a circle was fit but its composite
	// confidence is below the usability threshold. The result still
	// carries the circle and masks for diagnostic use; the caller must
	// fall back to conservative global edits or a manual crop.
	FailureLowConfidence FailureReason = "low_confidence"
)

// MinUsableConfidence is the product-level contract line: detections below
// it must not drive the confidence-gated enhancement pipeline.
const MinUsableConfidence = 0.5

// Config controls the detection pipeline. Zero value is not usable; start
// from DefaultConfig.
type Config struct {
	Filter   BlobFilter
	Geometry MaskGeometry

	// ClipLuma is the luma level at or above which a pixel counts as a
	// clipped highlight.
	ClipLuma float64
}

// DefaultConfig returns the tuned defaults.
func DefaultConfig() Config {
	return Config{
		Filter: BlobFilter{
			MinAreaFraction: 0.001,
			MaxAreaFraction: 0.80,
			MinCircularity:  0.6,
		},
		Geometry: DefaultMaskGeometry(),
		ClipLuma: 0.98,
	}
}

// Result is the immutable snapshot a detection run produces. It is created
// once, read by the enhancement pipeline, and discarded after the run (or
// cached by the caller for reuse at a different strength or preset).
type Result struct {
	// Detected is true only when a circle was fit with usable confidence.
	Detected bool `json:"detected"`

	// Reason explains a failed detection; empty on success.
	Reason FailureReason `json:"reason,omitempty"`

	// Circle is the fitted lunar boundary in full-image coordinates.
	// Populated for both successful and low-confidence results.
	Circle FittedCircle `json:"circle"`

	// CropRect is the padded crop around the disk, clamped to the image.
	CropRect image.Rectangle `json:"-"`

	// MoonMask and LimbRingMask are produced together at crop resolution.
	MoonMask     *plane.Mask `json:"-"`
	LimbRingMask *plane.Mask `json:"-"`

	// Confidence carries the composite score and its sub-scores.
	Confidence DetectionConfidence `json:"confidence"`

	// ClippedHighlightFraction is the fraction of pixels inside the disk
	// at or above the clip level.
	ClippedHighlightFraction float64 `json:"clipped_highlight_fraction"`
}

// CircleInCrop returns the fitted circle translated into crop-local
// coordinates, which is what the enhancement stages and halo guard work in.
func (r *Result) CircleInCrop() FittedCircle {
	c := r.Circle
	c.CenterX -= float64(r.CropRect.Min.X)
	c.CenterY -= float64(r.CropRect.Min.Y)
	return c
}

// Detect runs the full detection pipeline over a luma plane.
//
// The returned Result never carries NaN geometry: degenerate fits are
// reported via Reason instead of propagating. Detect itself never returns
// an error for image-content reasons.
func Detect(luma *plane.Plane, cfg Config) *Result {
	th := BrightnessThreshold(luma)
	blobs := LabelComponents(th.Mask, luma.W, luma.H)

	blob, ok := SelectCandidate(blobs, luma.W*luma.H, cfg.Filter)
	if !ok {
		return &Result{Reason: FailureNoCandidate}
	}

	circle, err := FitCircleTaubin(blob.EdgePoints)
	if err != nil {
		return &Result{Reason: FailureDegenerateFit}
	}

	confidence := ScoreDetection(circle, blob, luma, luma.W)

	crop := CropRect(circle, cfg.Geometry.PaddingFactor, luma.W, luma.H)
	if crop.Empty() {
		return &Result{Reason: FailureDegenerateFit}
	}

	moonMask, err := MoonMask(circle, crop, cfg.Geometry.FeatherPx)
	if err != nil {
		return &Result{Reason: FailureDegenerateFit}
	}
	limbMask, err := LimbRingMask(circle, crop, cfg.Geometry.LimbBandPx, cfg.Geometry.LimbTransitionPx)
	if err != nil {
		return &Result{Reason: FailureDegenerateFit}
	}

	result := &Result{
		Circle:                   circle,
		CropRect:                 crop,
		MoonMask:                 moonMask,
		LimbRingMask:             limbMask,
		Confidence:               confidence,
		ClippedHighlightFraction: clippedFraction(luma, circle, cfg.ClipLuma),
	}

	if confidence.Composite < MinUsableConfidence {
		result.Reason = FailureLowConfidence
		return result
	}
	result.Detected = true
	return result
}

// DetectImage decodes the image into planes and runs Detect. The error is
// only for conversion failures, never for "moon not found".
func DetectImage(img image.Image, cfg Config) (*Result, error) {
	planes, err := colorspace.Decompose(img)
	if err != nil {
		return nil, err
	}
	return Detect(planes.Luma, cfg), nil
}

// clippedFraction counts near-white pixels inside the fitted disk.
func clippedFraction(luma *plane.Plane, c FittedCircle, clipLuma float64) float64 {
	total, clipped := 0, 0
	minX := int(c.CenterX - c.Radius)
	maxX := int(c.CenterX + c.Radius)
	minY := int(c.CenterY - c.Radius)
	maxY := int(c.CenterY + c.Radius)
	r2 := c.Radius * c.Radius

	for y := minY; y <= maxY; y++ {
		if y < 0 || y >= luma.H {
			continue
		}
		for x := minX; x <= maxX; x++ {
			if x < 0 || x >= luma.W {
				continue
			}
			dx := float64(x) - c.CenterX
			dy := float64(y) - c.CenterY
			if dx*dx+dy*dy > r2 {
				continue
			}
			total++
			if luma.Pix[y*luma.W+x] >= clipLuma {
				clipped++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(clipped) / float64(total)
}
