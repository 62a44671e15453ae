package enhance

import (
	"time"

	"github.com/google/uuid"

	"github.com/astropaint/moonshine/internal/detect"
)

// EnhancementMetrics is the reproducibility record for one pipeline run:
// enough to reproduce the run (preset, strength, effective parameter
// deltas via warnings) and to judge its quality without the raster.
type EnhancementMetrics struct {
	// RunID uniquely identifies this run in logs and sidecar files.
	RunID string `json:"run_id"`

	// Timestamp is when the run finished, UTC.
	Timestamp time.Time `json:"timestamp"`

	Preset   Preset  `json:"preset"`
	Strength float64 `json:"strength"`

	Detection detect.DetectionConfidence `json:"detection"`

	// MedianConfidence and NoiseSigma summarize the confidence map the
	// run was gated by.
	MedianConfidence float64 `json:"median_confidence"`
	NoiseSigma       float64 `json:"noise_sigma"`

	ClippedHighlightFraction float64 `json:"clipped_highlight_fraction"`

	Perceptual PerceptualMetrics `json:"perceptual"`

	Halo HaloCheck `json:"halo"`

	// DeconvolutionRan records whether RL actually executed after all
	// guardrails, which the iteration count alone does not show.
	DeconvolutionRan bool `json:"deconvolution_ran"`

	Warnings []string `json:"warnings,omitempty"`
}

func newEnhancementMetrics(det *detect.Result, cm *ConfidenceMap, params Params,
	perceptual PerceptualMetrics, halo HaloCheck, warnings []string) EnhancementMetrics {
	return EnhancementMetrics{
		RunID:                    uuid.NewString(),
		Timestamp:                time.Now().UTC(),
		Preset:                   params.Preset,
		Strength:                 params.Strength,
		Detection:                det.Confidence,
		MedianConfidence:         cm.Median,
		NoiseSigma:               cm.NoiseSigma,
		ClippedHighlightFraction: det.ClippedHighlightFraction,
		Perceptual:               perceptual,
		Halo:                     halo,
		DeconvolutionRan: shouldDeconvolve(params.Deconvolution,
			det.Confidence.Composite, cm.Median, det.ClippedHighlightFraction),
		Warnings: warnings,
	}
}
