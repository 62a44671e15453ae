// Package enhance restores detail in a detected lunar disk without ever
// inventing texture.
//
// Every stage — tone mapping, denoising, Richardson–Lucy deconvolution,
// multi-band wavelet sharpening, micro-contrast — is a pure function of
// (input planes, parameters, confidence map, limb mask) and is modulated by
// a per-pixel detail-confidence signal: where the confidence map says there
// is no real detail, no stage applies a visible change. Output pixels are
// always a bounded function of measured input pixels.
//
// The Pipeline type sequences the stages, applies the global
// highlight-clip guardrail, runs the perceptual tuner before restoration,
// and closes with the halo guard: a radial overshoot check across the
// fitted limb that triggers at most one mitigation replay of the
// sharpening stages with reduced gains and an expanded limb mask.
//
// Processing is single-threaded and deterministic: identical inputs,
// preset and strength produce bit-identical output rasters. The per-pixel
// work is delegated to an Executor so an accelerated backend can be swapped
// in; CPUExecutor is the reference implementation any alternative must
// match within numerical tolerance.
package enhance
