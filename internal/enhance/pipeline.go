package enhance

import (
	"errors"
	"image"
	"log"

	"github.com/disintegration/imaging"

	"github.com/astropaint/moonshine/internal/colorspace"
	"github.com/astropaint/moonshine/internal/detect"
	"github.com/astropaint/moonshine/internal/plane"
)

var (
	// ErrUnusableDetection is returned when the detection result is not
	// good enough to drive confidence-gated restoration. Callers should
	// fall back to conservative global edits instead.
	ErrUnusableDetection = errors.New("enhance: detection confidence below usable floor")

	// ErrInvalidCrop is returned when the detection crop is empty or does
	// not match the mask geometry. This is fatal, not degradable: every
	// later stage depends on crop-local coordinates being right.
	ErrInvalidCrop = errors.New("enhance: invalid detection crop")

	// ErrEmptyConversion is returned when color decomposition of the crop
	// yields no pixels.
	ErrEmptyConversion = errors.New("enhance: empty color conversion")
)

// Stage names reported through ProgressFunc, in execution order.
var stageNames = []string{
	"crop",
	"confidence_map",
	"perceptual_tuning",
	"tone_map",
	"denoise",
	"highlight_compensate",
	"deconvolve",
	"sharpen",
	"micro_contrast",
	"halo_guard",
	"finalize",
}

// ProgressFunc receives stage completion events. The fraction is
// non-decreasing and reaches 1.0 at finalize. Skipped stages still report,
// so the fraction sequence is the same shape for every run. Called
// synchronously from the pipeline goroutine; implementations must not block.
type ProgressFunc func(stage string, fraction float64)

// Options configures one enhancement run.
type Options struct {
	// Params is the full parameter set, normally a preset already scaled
	// via WithStrength.
	Params Params

	// Executor runs the per-pixel stages. Nil selects CPUExecutor.
	Executor Executor

	// Geometry must match the detection config that produced the masks.
	// Zero value selects detect.DefaultMaskGeometry.
	Geometry detect.MaskGeometry

	// Progress is optional.
	Progress ProgressFunc

	// DisableTuner skips perceptual measurement and uses Params verbatim.
	DisableTuner bool

	// VideoFrame marks the input as a single extracted video frame, which
	// raises the luma denoise base to match the higher sensor noise.
	VideoFrame bool
}

// Enhancement is the output of one pipeline run.
type Enhancement struct {
	// Image is the enhanced crop.
	Image *image.NRGBA

	// Params are the effective parameters after tuning and any halo
	// mitigation, not the ones passed in.
	Params Params

	// Halo is the final (post-mitigation, if any) overshoot check.
	Halo HaloCheck

	// Warnings lists every guardrail adjustment made during the run.
	Warnings []string

	// Metrics is the run's reproducibility and quality record.
	Metrics EnhancementMetrics
}

// Enhance runs the full restoration pipeline over the detected crop.
//
// The stage order is fixed: tone map, denoise, conditional highlight
// compensation, conditional deconvolution, wavelet sharpening,
// micro-contrast, halo guard. When the halo guard fails, deconvolution (if
// its reduced iteration count is still positive), sharpening and
// micro-contrast are replayed exactly once from the pre-deconvolution
// baseline with mitigated parameters and a dilated limb mask. The run is
// deterministic: identical inputs produce identical rasters.
func Enhance(img image.Image, det *detect.Result, opts Options) (*Enhancement, error) {
	if det == nil || !det.Detected {
		return nil, ErrUnusableDetection
	}
	exec := opts.Executor
	if exec == nil {
		exec = CPUExecutor{}
	}
	geometry := opts.Geometry
	if geometry == (detect.MaskGeometry{}) {
		geometry = detect.DefaultMaskGeometry()
	}

	progress := newProgressTracker(opts.Progress)
	var warnings []string

	// Crop.
	if det.CropRect.Empty() {
		return nil, ErrInvalidCrop
	}
	crop := imaging.Crop(img, det.CropRect)
	planes, err := colorspace.Decompose(crop)
	if err != nil {
		return nil, errors.Join(ErrEmptyConversion, err)
	}
	moonMask, limbMask := det.MoonMask, det.LimbRingMask
	if len(moonMask.Pix) != len(planes.Luma.Pix) || len(limbMask.Pix) != len(planes.Luma.Pix) {
		return nil, ErrInvalidCrop
	}
	circle := det.CircleInCrop()
	progress.step()

	// Confidence map.
	cm := BuildConfidenceMap(planes.Luma, moonMask, limbMask)
	progress.step()

	// Parameter adjustment. The hard clipped-highlight guardrail comes
	// first so the tuner cannot re-enable a stage the data rules out.
	params := opts.Params
	if opts.VideoFrame {
		params = Apply(params, videoFrameAdjustment)
	}
	if det.ClippedHighlightFraction > params.Deconvolution.MaxClippedFraction &&
		params.Deconvolution.Iterations > 0 {
		params = Apply(params, clippedGuardrail)
		warnings = append(warnings, WarnClippedForRL)
	}
	var perceptual PerceptualMetrics
	if !opts.DisableTuner {
		perceptual, err = EvaluatePerceptual(planes.Luma, moonMask)
		if err != nil {
			return nil, err
		}
		tuned := TuneParams(params, perceptual)
		params = tuned.Params
		warnings = append(warnings, tuned.Warnings...)
	}
	progress.step()

	// Tone map.
	planes.Luma = exec.ToneMap(planes.Luma, moonMask, params.Tone)
	progress.step()

	// Denoise.
	planes = exec.Denoise(planes, cm, params.Denoise)
	progress.step()

	// Highlight compensation, only when enough of the disk is clipped.
	if det.ClippedHighlightFraction > params.Highlight.TriggerFraction {
		planes.Luma = exec.CompensateHighlights(planes.Luma, params.Highlight)
	}
	progress.step()

	// The pre-deconvolution luma is kept so a failed halo check can replay
	// deconvolution and sharpening instead of stacking a second pass on top.
	baseline := planes.Luma.Clone()

	// Deconvolution.
	if shouldDeconvolve(params.Deconvolution, det.Confidence.Composite, cm.Median, det.ClippedHighlightFraction) {
		planes.Luma = exec.Deconvolve(planes.Luma, cm, limbMask, params.Deconvolution)
	}
	progress.step()

	planes.Luma = exec.Sharpen(planes.Luma, cm, limbMask, params.Wavelet)
	progress.step()

	planes.Luma = exec.MicroContrast(planes.Luma, cm, circle, params.MicroContrast)
	progress.step()

	// Halo guard, with at most one mitigation replay.
	halo := MeasureHalo(planes.Luma, circle, params.HaloGuard)
	if !halo.Passed {
		log.Printf("halo guard: overshoot %.4f over threshold %.4f, mitigating",
			halo.Overshoot, params.HaloGuard.OvershootThreshold)

		params = Apply(params, HaloMitigation)
		dilated, derr := detect.DilateLimbRing(det.Circle, det.CropRect, geometry, params.HaloGuard.LimbDilatePx)
		if derr == nil {
			limbMask = dilated
		}

		replay := baseline
		if shouldDeconvolve(params.Deconvolution, det.Confidence.Composite, cm.Median, det.ClippedHighlightFraction) {
			replay = exec.Deconvolve(baseline, cm, limbMask, params.Deconvolution)
		}
		planes.Luma = exec.Sharpen(replay, cm, limbMask, params.Wavelet)
		planes.Luma = exec.MicroContrast(planes.Luma, cm, circle, params.MicroContrast)
		halo = MeasureHalo(planes.Luma, circle, params.HaloGuard)
		warnings = append(warnings, WarnHaloMitigated)
	}
	progress.step()

	// Finalize.
	out, err := colorspace.Recompose(planes)
	if err != nil {
		return nil, err
	}
	progress.step()

	metrics := newEnhancementMetrics(det, cm, params, perceptual, halo, warnings)
	return &Enhancement{
		Image:    out,
		Params:   params,
		Halo:     halo,
		Warnings: warnings,
		Metrics:  metrics,
	}, nil
}

// EnhanceLowConfidencePlanes applies only the conservative, mask-free
// stages (tone mapping disabled, mild flat denoise) for callers that want a
// degraded result from an unusable detection. Most callers should instead
// use the imaging package's global fallback; this exists for pipelines that
// already hold decomposed planes.
func EnhanceLowConfidencePlanes(planes *colorspace.Planes, p DenoiseParams) *colorspace.Planes {
	flat := &ConfidenceMap{
		C:   plane.New(planes.W, planes.H),
		SNR: plane.New(planes.W, planes.H),
	}
	return denoise(planes, flat, p)
}

// progressTracker serializes stage completion events and guarantees a
// non-decreasing fraction.
type progressTracker struct {
	fn   ProgressFunc
	idx  int
	last float64
}

func newProgressTracker(fn ProgressFunc) *progressTracker {
	return &progressTracker{fn: fn}
}

func (t *progressTracker) step() {
	if t.idx >= len(stageNames) {
		return
	}
	name := stageNames[t.idx]
	t.idx++
	fraction := float64(t.idx) / float64(len(stageNames))
	if fraction < t.last {
		fraction = t.last
	}
	t.last = fraction
	if t.fn != nil {
		t.fn(name, fraction)
	}
}
