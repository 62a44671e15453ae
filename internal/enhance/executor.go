package enhance

import (
	"github.com/astropaint/moonshine/internal/colorspace"
	"github.com/astropaint/moonshine/internal/detect"
	"github.com/astropaint/moonshine/internal/plane"
)

// Executor runs the per-pixel restoration stages. The pipeline is
// constructed with one explicitly, so an accelerated backend can replace
// the CPU reference implementation. Any replacement must match CPUExecutor
// output within numerical tolerance; the stage contracts (confidence
// gating, clamping, determinism) are defined by the CPU implementation.
type Executor interface {
	ToneMap(l *plane.Plane, moonMask *plane.Mask, p ToneParams) *plane.Plane
	Denoise(ps *colorspace.Planes, cm *ConfidenceMap, p DenoiseParams) *colorspace.Planes
	CompensateHighlights(l *plane.Plane, p HighlightParams) *plane.Plane
	Deconvolve(l *plane.Plane, cm *ConfidenceMap, limb *plane.Mask, p DeconvolutionParams) *plane.Plane
	Sharpen(l *plane.Plane, cm *ConfidenceMap, limb *plane.Mask, p WaveletParams) *plane.Plane
	MicroContrast(l *plane.Plane, cm *ConfidenceMap, circle detect.FittedCircle, p MicroContrastParams) *plane.Plane
}

// CPUExecutor is the single-threaded reference implementation.
type CPUExecutor struct{}

func (CPUExecutor) ToneMap(l *plane.Plane, moonMask *plane.Mask, p ToneParams) *plane.Plane {
	return toneMap(l, moonMask, p)
}

func (CPUExecutor) Denoise(ps *colorspace.Planes, cm *ConfidenceMap, p DenoiseParams) *colorspace.Planes {
	return denoise(ps, cm, p)
}

func (CPUExecutor) CompensateHighlights(l *plane.Plane, p HighlightParams) *plane.Plane {
	return compensateHighlights(l, p)
}

func (CPUExecutor) Deconvolve(l *plane.Plane, cm *ConfidenceMap, limb *plane.Mask, p DeconvolutionParams) *plane.Plane {
	return deconvolve(l, cm, limb, p)
}

func (CPUExecutor) Sharpen(l *plane.Plane, cm *ConfidenceMap, limb *plane.Mask, p WaveletParams) *plane.Plane {
	return waveletSharpen(l, cm, limb, p)
}

func (CPUExecutor) MicroContrast(l *plane.Plane, cm *ConfidenceMap, circle detect.FittedCircle, p MicroContrastParams) *plane.Plane {
	return microContrast(l, cm, circle, p)
}
