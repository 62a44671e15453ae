package enhance

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/astropaint/moonshine/internal/colorspace"
	"github.com/astropaint/moonshine/internal/detect"
	"github.com/astropaint/moonshine/internal/plane"
)

// countingExecutor wraps the CPU stages and records how often the stages
// the halo guard can replay actually run.
type countingExecutor struct {
	CPUExecutor
	deconvolveCalls int
	sharpenCalls    int
}

func (e *countingExecutor) Deconvolve(l *plane.Plane, cm *ConfidenceMap, limb *plane.Mask, p DeconvolutionParams) *plane.Plane {
	e.deconvolveCalls++
	return e.CPUExecutor.Deconvolve(l, cm, limb, p)
}

func (e *countingExecutor) Sharpen(l *plane.Plane, cm *ConfidenceMap, limb *plane.Mask, p WaveletParams) *plane.Plane {
	e.sharpenCalls++
	return e.CPUExecutor.Sharpen(l, cm, limb, p)
}

// moonPhoto renders a grayscale lunar disk with mare-like variation on a
// dark sky, as an image the full pipeline can consume.
func moonPhoto(size int, cx, cy, r float64) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			v := 0.04
			dx, dy := float64(x)-cx, float64(y)-cy
			if dx*dx+dy*dy <= r*r {
				v = 0.70 + 0.18*math.Sin(float64(x)*0.35)*math.Sin(float64(y)*0.35)
			}
			g := uint8(v*255 + 0.5)
			img.SetNRGBA(x, y, color.NRGBA{R: g, G: g, B: g, A: 255})
		}
	}
	return img
}

// detectMoonPhoto runs detection the same way callers do, failing the test
// if the synthetic frame is not detected.
func detectMoonPhoto(t *testing.T, img image.Image) *detect.Result {
	t.Helper()
	res, err := detect.DetectImage(img, detect.DefaultConfig())
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if !res.Detected {
		t.Fatalf("synthetic moon not detected: %q %+v", res.Reason, res.Confidence)
	}
	return res
}

func TestEnhanceProducesCropSizedImage(t *testing.T) {
	img := moonPhoto(200, 100, 100, 40)
	det := detectMoonPhoto(t, img)

	out, err := Enhance(img, det, Options{Params: Natural()})
	if err != nil {
		t.Fatalf("enhance: %v", err)
	}
	if out.Image.Bounds().Dx() != det.CropRect.Dx() || out.Image.Bounds().Dy() != det.CropRect.Dy() {
		t.Errorf("output %v does not match crop %v", out.Image.Bounds(), det.CropRect)
	}
	if out.Metrics.RunID == "" {
		t.Error("metrics missing run id")
	}
	if out.Metrics.Preset != PresetNatural {
		t.Errorf("metrics preset: got %q", out.Metrics.Preset)
	}
}

func TestEnhanceDeterministic(t *testing.T) {
	img := moonPhoto(200, 100, 100, 40)
	det := detectMoonPhoto(t, img)

	a, err := Enhance(img, det, Options{Params: Crisp()})
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	b, err := Enhance(img, det, Options{Params: Crisp()})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !bytes.Equal(a.Image.Pix, b.Image.Pix) {
		t.Error("identical inputs produced different rasters")
	}
	if len(a.Warnings) != len(b.Warnings) {
		t.Errorf("warning counts differ: %v vs %v", a.Warnings, b.Warnings)
	}
}

func TestEnhanceProgressMonotonic(t *testing.T) {
	img := moonPhoto(200, 100, 100, 40)
	det := detectMoonPhoto(t, img)

	var stages []string
	var fractions []float64
	_, err := Enhance(img, det, Options{
		Params: Natural(),
		Progress: func(stage string, fraction float64) {
			stages = append(stages, stage)
			fractions = append(fractions, fraction)
		},
	})
	if err != nil {
		t.Fatalf("enhance: %v", err)
	}

	if len(stages) != len(stageNames) {
		t.Fatalf("got %d progress events, want %d", len(stages), len(stageNames))
	}
	if stages[0] != "crop" || stages[len(stages)-1] != "finalize" {
		t.Errorf("stage order: first %q, last %q", stages[0], stages[len(stages)-1])
	}
	prev := 0.0
	for i, f := range fractions {
		if f < prev {
			t.Fatalf("fraction decreased at %d: %v after %v", i, f, prev)
		}
		prev = f
	}
	if fractions[len(fractions)-1] != 1.0 {
		t.Errorf("final fraction: got %v, want 1.0", fractions[len(fractions)-1])
	}
}

func TestEnhanceRejectsUnusableDetection(t *testing.T) {
	img := moonPhoto(200, 100, 100, 40)
	det := detectMoonPhoto(t, img)

	bad := *det
	bad.Detected = false
	bad.Reason = detect.FailureLowConfidence

	if _, err := Enhance(img, &bad, Options{Params: Natural()}); !errors.Is(err, ErrUnusableDetection) {
		t.Errorf("got %v, want ErrUnusableDetection", err)
	}
	if _, err := Enhance(img, nil, Options{Params: Natural()}); !errors.Is(err, ErrUnusableDetection) {
		t.Errorf("nil detection: got %v, want ErrUnusableDetection", err)
	}
}

func TestEnhanceClippedGuardrailDisablesDeconvolution(t *testing.T) {
	img := moonPhoto(200, 100, 100, 40)
	det := detectMoonPhoto(t, img)

	clipped := *det
	clipped.ClippedHighlightFraction = 0.5

	out, err := Enhance(img, &clipped, Options{Params: Natural(), DisableTuner: true})
	if err != nil {
		t.Fatalf("enhance: %v", err)
	}
	if !containsWarning(out.Warnings, WarnClippedForRL) {
		t.Errorf("missing clipped-deconvolution warning in %v", out.Warnings)
	}
	if out.Metrics.DeconvolutionRan {
		t.Error("deconvolution reported as run despite the clipped guardrail")
	}
	if out.Params.Deconvolution.Iterations != 0 {
		t.Errorf("iterations: got %d, want 0", out.Params.Deconvolution.Iterations)
	}

	// The guardrail also pre-reduces tone and sharpening gains before the
	// tuner would see them.
	n := Natural()
	if want := n.Tone.MidtoneContrast * (1 - clippedGainReduction); out.Params.Tone.MidtoneContrast != want {
		t.Errorf("midtone contrast: got %v, want %v", out.Params.Tone.MidtoneContrast, want)
	}
	if out.Params.Wavelet.FineGain >= n.Wavelet.FineGain {
		t.Errorf("fine gain not reduced: %v", out.Params.Wavelet.FineGain)
	}
	if out.Params.Wavelet.MidGain >= n.Wavelet.MidGain {
		t.Errorf("mid gain not reduced: %v", out.Params.Wavelet.MidGain)
	}
	if out.Params.Wavelet.CoarseGain >= n.Wavelet.CoarseGain {
		t.Errorf("coarse gain not reduced: %v", out.Params.Wavelet.CoarseGain)
	}
}

func TestEnhanceHaloMitigationRunsAtMostOnce(t *testing.T) {
	img := moonPhoto(200, 100, 100, 40)
	det := detectMoonPhoto(t, img)

	// An impossible threshold forces the check to fail both before and
	// after mitigation; the replay must still happen exactly once.
	p := Natural()
	p.HaloGuard.OvershootThreshold = -1

	out, err := Enhance(img, det, Options{Params: p, DisableTuner: true})
	if err != nil {
		t.Fatalf("enhance: %v", err)
	}
	count := 0
	for _, w := range out.Warnings {
		if w == WarnHaloMitigated {
			count++
		}
	}
	if count != 1 {
		t.Errorf("halo mitigation warnings: got %d, want 1", count)
	}
	if out.Params.Wavelet.FineGain >= p.Wavelet.FineGain {
		t.Error("fine gain not reduced by mitigation")
	}
	if out.Halo.Passed {
		t.Error("halo check passed an impossible threshold")
	}
}

func TestEnhanceHaloMitigationReplaysDeconvolution(t *testing.T) {
	img := moonPhoto(200, 100, 100, 40)
	det := detectMoonPhoto(t, img)

	// Relax the RL preconditions so the stage runs, and force the halo
	// check to fail so mitigation replays it at the reduced count.
	p := Natural()
	p.HaloGuard.OvershootThreshold = -1
	p.Deconvolution.Iterations = 6
	p.Deconvolution.MinDetectionConfidence = 0
	p.Deconvolution.MinMedianConfidence = 0
	p.Deconvolution.MaxClippedFraction = 1

	exec := &countingExecutor{}
	out, err := Enhance(img, det, Options{Params: p, Executor: exec, DisableTuner: true})
	if err != nil {
		t.Fatalf("enhance: %v", err)
	}
	if exec.deconvolveCalls != 2 {
		t.Errorf("deconvolve calls: got %d, want 2 (initial + mitigation replay)", exec.deconvolveCalls)
	}
	if exec.sharpenCalls != 2 {
		t.Errorf("sharpen calls: got %d, want 2", exec.sharpenCalls)
	}
	if want := p.Deconvolution.Iterations - p.HaloGuard.IterationReduction; out.Params.Deconvolution.Iterations != want {
		t.Errorf("iterations after mitigation: got %d, want %d", out.Params.Deconvolution.Iterations, want)
	}
}

func TestEnhanceHaloMitigationSkipsDisabledDeconvolution(t *testing.T) {
	img := moonPhoto(200, 100, 100, 40)
	det := detectMoonPhoto(t, img)

	// An iteration count at or below the mitigation reduction bottoms out
	// at zero, so the replay must not run the stage again.
	p := Natural()
	p.HaloGuard.OvershootThreshold = -1
	p.Deconvolution.Iterations = 2
	p.Deconvolution.MinDetectionConfidence = 0
	p.Deconvolution.MinMedianConfidence = 0
	p.Deconvolution.MaxClippedFraction = 1

	exec := &countingExecutor{}
	out, err := Enhance(img, det, Options{Params: p, Executor: exec, DisableTuner: true})
	if err != nil {
		t.Fatalf("enhance: %v", err)
	}
	if exec.deconvolveCalls != 1 {
		t.Errorf("deconvolve calls: got %d, want 1", exec.deconvolveCalls)
	}
	if out.Params.Deconvolution.Iterations != 0 {
		t.Errorf("iterations after mitigation: got %d, want 0", out.Params.Deconvolution.Iterations)
	}
}

func TestEnhanceVideoFrameRaisesDenoiseBase(t *testing.T) {
	img := moonPhoto(200, 100, 100, 40)
	det := detectMoonPhoto(t, img)

	still, err := Enhance(img, det, Options{Params: Natural(), DisableTuner: true})
	if err != nil {
		t.Fatalf("still run: %v", err)
	}
	video, err := Enhance(img, det, Options{Params: Natural(), DisableTuner: true, VideoFrame: true})
	if err != nil {
		t.Fatalf("video run: %v", err)
	}
	if video.Params.Denoise.LumaBase <= still.Params.Denoise.LumaBase {
		t.Errorf("video luma base %v not above still %v",
			video.Params.Denoise.LumaBase, still.Params.Denoise.LumaBase)
	}
	// The flag only touches denoising.
	if video.Params.Wavelet != still.Params.Wavelet {
		t.Error("video flag changed sharpening parameters")
	}
}

func TestEnhanceLowConfidencePlanesSmoothsOnly(t *testing.T) {
	img := moonPhoto(64, 32, 32, 20)
	planes, err := colorspace.Decompose(img)
	if err != nil {
		t.Fatalf("decompose: %v", err)
	}

	out := EnhanceLowConfidencePlanes(planes, Natural().Denoise)
	if out.W != planes.W || out.H != planes.H {
		t.Fatalf("dimensions changed: %dx%d -> %dx%d", planes.W, planes.H, out.W, out.H)
	}
	// Zero confidence everywhere means maximum smoothing: high-frequency
	// energy cannot increase.
	var before, after float64
	for y := 1; y < planes.H-1; y++ {
		for x := 1; x < planes.W-1; x++ {
			before += math.Abs(planes.Luma.At(x, y) - planes.Luma.At(x+1, y))
			after += math.Abs(out.Luma.At(x, y) - out.Luma.At(x+1, y))
		}
	}
	if after > before {
		t.Errorf("high-frequency energy increased: %v -> %v", before, after)
	}
}
