package enhance

import "math"

// Preset names the two tuned base parameter sets.
type Preset string

const (
	// PresetNatural favors a restrained, print-like rendering.
	PresetNatural Preset = "natural"

	// PresetCrisp pushes sharpening and local contrast harder and
	// tolerates slightly more limb overshoot.
	PresetCrisp Preset = "crisp"
)

// ToneParams shapes global tone inside the moon mask.
type ToneParams struct {
	// WhitePercentile picks the luma quantile inside the moon mask used
	// as the normalization white point.
	WhitePercentile float64 `yaml:"white_percentile"`

	// ShoulderStart is the luma fraction above which the tanh highlight
	// shoulder engages.
	ShoulderStart float64 `yaml:"shoulder_start"`

	// MidtoneContrast is the S-curve gain; gain-like, scaled by strength.
	MidtoneContrast float64 `yaml:"midtone_contrast"`

	// MidtonePivot is the luma value the S-curve pivots around.
	MidtonePivot float64 `yaml:"midtone_pivot"`
}

// DenoiseParams controls the confidence-gated blur blend.
type DenoiseParams struct {
	// Radius of the box blur, in pixels.
	Radius int `yaml:"radius"`

	// LumaBase is the maximum luma blend weight, reached where
	// confidence is zero. Gain-like, scaled by strength.
	LumaBase float64 `yaml:"luma_base"`

	// LumaExponent shapes how fast smoothing falls off as confidence
	// rises: weight = LumaBase · (1−C)^LumaExponent.
	LumaExponent float64 `yaml:"luma_exponent"`

	// ChromaBlend is the flat blend weight for the chroma planes.
	// Chroma artifacts read worse than slight chroma softness, so this
	// is not confidence-gated. Gain-like, scaled by strength.
	ChromaBlend float64 `yaml:"chroma_blend"`
}

// HighlightParams controls the conditional clipped-highlight compensator.
type HighlightParams struct {
	// ClipStart is the luma fraction compression pulls values toward.
	ClipStart float64 `yaml:"clip_start"`

	// Strength is the compression amount. Gain-like, scaled by strength.
	Strength float64 `yaml:"strength"`

	// TriggerFraction is the clipped-highlight fraction above which the
	// stage runs at all.
	TriggerFraction float64 `yaml:"trigger_fraction"`
}

// DeconvolutionParams controls Richardson–Lucy deconvolution.
type DeconvolutionParams struct {
	// Iterations is the RL iteration count. Scaled by strength; a
	// strength low enough to round it to zero disables the stage.
	Iterations int `yaml:"iterations"`

	// PSFSigma is the Gaussian blur-model sigma in pixels.
	PSFSigma float64 `yaml:"psf_sigma"`

	// CorrectionBase and CorrectionScale set the per-pixel correction
	// exponent: base + scale·C, further attenuated by the limb mask.
	CorrectionBase  float64 `yaml:"correction_base"`
	CorrectionScale float64 `yaml:"correction_scale"`

	// Preconditions: the stage is skipped entirely (not attenuated)
	// unless detection confidence and median map confidence clear these
	// floors and the clipped fraction stays under the ceiling.
	MinDetectionConfidence float64 `yaml:"min_detection_confidence"`
	MinMedianConfidence    float64 `yaml:"min_median_confidence"`
	MaxClippedFraction     float64 `yaml:"max_clipped_fraction"`
}

// WaveletParams controls three-band difference-of-Gaussians sharpening.
type WaveletParams struct {
	// FineGain, MidGain and CoarseGain boost the three detail bands.
	// Gain-like, scaled by strength.
	FineGain   float64 `yaml:"fine_gain"`
	MidGain    float64 `yaml:"mid_gain"`
	CoarseGain float64 `yaml:"coarse_gain"`

	// Sigmas are the band boundaries (fine, mid, coarse).
	Sigmas [3]float64 `yaml:"sigmas"`

	// ConfidenceExponent shapes the per-pixel gain: gain · C^exponent.
	ConfidenceExponent float64 `yaml:"confidence_exponent"`

	// MaxLuma smoothly zeroes gain above this level to keep the bright
	// limb from turning crunchy.
	MaxLuma float64 `yaml:"max_luma"`

	// SNRFloor skips a pixel entirely when its local SNR is below it.
	SNRFloor float64 `yaml:"snr_floor"`
}

// MicroContrastParams controls the large-radius local contrast boost.
type MicroContrastParams struct {
	// Strength is the detail-band gain. Gain-like, scaled by strength.
	Strength float64 `yaml:"strength"`

	// Radius of the wide box blur, in pixels.
	Radius int `yaml:"radius"`

	// MinConfidence gates the boost per pixel.
	MinConfidence float64 `yaml:"min_confidence"`

	// MaxLuma is the ceiling above which the boost never applies.
	MaxLuma float64 `yaml:"max_luma"`

	// LimbMarginPx keeps the boost away from the limb on both sides.
	LimbMarginPx float64 `yaml:"limb_margin_px"`

	// DownsampleAbove is the crop dimension above which the stage runs
	// on a downsampled copy — an explicit quality/performance fork.
	DownsampleAbove int `yaml:"downsample_above"`
}

// HaloGuardParams controls the post-sharpen limb overshoot check.
type HaloGuardParams struct {
	// Angles is the number of evenly spaced limb samples.
	Angles int `yaml:"angles"`

	// OvershootThreshold fails the check when exceeded.
	OvershootThreshold float64 `yaml:"overshoot_threshold"`

	// FineGainReduction is the fraction removed from the fine wavelet
	// gain during mitigation.
	FineGainReduction float64 `yaml:"fine_gain_reduction"`

	// IterationReduction is subtracted from the RL iteration count
	// during mitigation; reaching zero disables deconvolution.
	IterationReduction int `yaml:"iteration_reduction"`

	// LimbDilatePx expands the limb ring outward during mitigation.
	LimbDilatePx float64 `yaml:"limb_dilate_px"`
}

// VideoStackParams is a reserved configuration group for video frame
// stacking. It is fully specified here so presets and override files can
// carry it, but the current pipeline has no consumer: it is an extension
// point, not behavior.
type VideoStackParams struct {
	FrameCount        int     `yaml:"frame_count"`
	DrizzleScale      float64 `yaml:"drizzle_scale"`
	AlignSearchRadius int     `yaml:"align_search_radius"`
	RejectSigma       float64 `yaml:"reject_sigma"`
}

// Params is the complete immutable parameter set for one enhancement run.
// Guardrails never mutate a Params in place; they apply Modifier functions
// that return adjusted copies.
type Params struct {
	Preset   Preset  `yaml:"preset"`
	Strength float64 `yaml:"strength"`

	Tone          ToneParams          `yaml:"tone"`
	Denoise       DenoiseParams       `yaml:"denoise"`
	Highlight     HighlightParams     `yaml:"highlight"`
	Deconvolution DeconvolutionParams `yaml:"deconvolution"`
	Wavelet       WaveletParams       `yaml:"wavelet"`
	MicroContrast MicroContrastParams `yaml:"micro_contrast"`
	HaloGuard     HaloGuardParams     `yaml:"halo_guard"`
	VideoStack    VideoStackParams    `yaml:"video_stack"`
}

// Natural returns the "Natural" base preset at full strength.
func Natural() Params {
	return Params{
		Preset:   PresetNatural,
		Strength: 100,
		Tone: ToneParams{
			WhitePercentile: 0.99,
			ShoulderStart:   0.82,
			MidtoneContrast: 1.8,
			MidtonePivot:    0.45,
		},
		Denoise: DenoiseParams{
			Radius:       2,
			LumaBase:     0.55,
			LumaExponent: 2.0,
			ChromaBlend:  0.35,
		},
		Highlight: HighlightParams{
			ClipStart:       0.90,
			Strength:        0.6,
			TriggerFraction: 0.02,
		},
		Deconvolution: DeconvolutionParams{
			Iterations:             6,
			PSFSigma:               1.1,
			CorrectionBase:         0.25,
			CorrectionScale:        0.75,
			MinDetectionConfidence: 0.65,
			MinMedianConfidence:    0.12,
			MaxClippedFraction:     0.08,
		},
		Wavelet: WaveletParams{
			FineGain:           0.9,
			MidGain:            0.6,
			CoarseGain:         0.25,
			Sigmas:             [3]float64{1.0, 2.5, 5.0},
			ConfidenceExponent: 1.4,
			MaxLuma:            0.92,
			SNRFloor:           1.5,
		},
		MicroContrast: MicroContrastParams{
			Strength:        0.35,
			Radius:          24,
			MinConfidence:   0.25,
			MaxLuma:         0.90,
			LimbMarginPx:    12,
			DownsampleAbove: 1600,
		},
		HaloGuard: HaloGuardParams{
			Angles:             36,
			OvershootThreshold: 0.015,
			FineGainReduction:  0.5,
			IterationReduction: 3,
			LimbDilatePx:       4,
		},
		VideoStack: VideoStackParams{
			FrameCount:        32,
			DrizzleScale:      1.5,
			AlignSearchRadius: 16,
			RejectSigma:       2.5,
		},
	}
}

// Crisp returns the "Crisp" base preset at full strength.
func Crisp() Params {
	p := Natural()
	p.Preset = PresetCrisp
	p.Tone.MidtoneContrast = 2.4
	p.Denoise.LumaBase = 0.45
	p.Deconvolution.Iterations = 10
	p.Deconvolution.CorrectionScale = 0.9
	p.Wavelet.FineGain = 1.4
	p.Wavelet.MidGain = 0.9
	p.Wavelet.CoarseGain = 0.35
	p.MicroContrast.Strength = 0.5
	p.HaloGuard.OvershootThreshold = 0.022
	return p
}

// ByPreset returns the named base preset; unknown names fall back to
// Natural.
func ByPreset(name Preset) Params {
	if name == PresetCrisp {
		return Crisp()
	}
	return Natural()
}

// WithStrength returns a copy with all gain-like fields scaled by
// strength/100. Thresholds, geometry and preconditions are left alone:
// weakening an enhancement must not also weaken its safety rails.
func (p Params) WithStrength(strength float64) Params {
	s := math.Min(math.Max(strength, 0), 100) / 100.0
	out := p
	out.Strength = s * 100

	out.Tone.MidtoneContrast *= s
	out.Denoise.LumaBase *= s
	out.Denoise.ChromaBlend *= s
	out.Highlight.Strength *= s
	out.Deconvolution.Iterations = int(math.Round(float64(p.Deconvolution.Iterations) * s))
	out.Wavelet.FineGain *= s
	out.Wavelet.MidGain *= s
	out.Wavelet.CoarseGain *= s
	out.MicroContrast.Strength *= s
	return out
}

// Modifier is a pure Params transformation. Guardrails (highlight-clip
// pre-reduction, halo mitigation, perceptual tuning) are expressed as
// modifiers composed in a fixed order instead of field-by-field edits at
// call sites.
type Modifier func(Params) Params

// Apply runs the modifiers left to right.
func Apply(p Params, mods ...Modifier) Params {
	for _, m := range mods {
		p = m(p)
	}
	return p
}
