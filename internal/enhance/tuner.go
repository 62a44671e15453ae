package enhance

// Warning strings emitted by the perceptual tuner and pipeline guardrails.
// They are stable API text: callers surface them verbatim and tests match
// them exactly.
const (
	WarnRinging       = "visible ringing detected near edges; reduced sharpening gains"
	WarnNoise         = "noise is visible at current settings; softened sharpening and raised denoising"
	WarnHighContrast  = "local contrast is already high; reduced midtone contrast boost"
	WarnFullDisk      = "full disk with flat illumination; eased local contrast to protect maria"
	WarnTooSoftForRL  = "image too soft for deconvolution to help; stage disabled"
	WarnClippedForRL  = "clipped highlight area too large for deconvolution; stage disabled"
	WarnHaloMitigated = "limb halo exceeded threshold; reran sharpening with reduced gains"
	WarnLowConfidence = "detection confidence below usable floor; conservative fallback applied"
)

// Tuner gate boundaries. Each gate is a smoothstep from 0 at the low bound
// to 1 at the high bound, so adjustments fade in rather than snap.
const (
	ringingGateLo = 0.10
	ringingGateHi = 0.35

	noiseGateLo = 0.30
	noiseGateHi = 0.80

	contrastGateLo = 0.060
	contrastGateHi = 0.120

	// Full-disk gate: engaged as phase contrast drops.
	phaseGateLo = 0.04
	phaseGateHi = 0.12

	blurGateLo = 0.55
	blurGateHi = 0.85

	sparseEdgeDensity = 0.03

	// warningGateFloor is the gate level below which an adjustment is too
	// small to bother warning about.
	warningGateFloor = 0.25
)

// TuneResult is the tuner's output: the adjusted parameters and the
// warnings describing what was changed and why.
type TuneResult struct {
	Params   Params
	Metrics  PerceptualMetrics
	Warnings []string
}

// TuneParams adjusts a parameter set from the measured perceptual metrics.
// Adjustments are expressed as Modifiers and applied in a fixed order
// (ringing, noise, contrast, phase, deconvolution viability) so two runs
// with identical inputs produce identical parameters and warnings.
func TuneParams(p Params, m PerceptualMetrics) TuneResult {
	var mods []Modifier
	var warnings []string

	if g := smoothGate(m.RingingScore, ringingGateLo, ringingGateHi); g > 0 {
		mods = append(mods, ringingAdjustment(g))
		if g >= warningGateFloor {
			warnings = append(warnings, WarnRinging)
		}
	}

	if g := smoothGate(m.NoiseVisibility, noiseGateLo, noiseGateHi); g > 0 {
		mods = append(mods, noiseAdjustment(g))
		if g >= warningGateFloor {
			warnings = append(warnings, WarnNoise)
		}
	}

	if g := smoothGate(m.LocalContrast, contrastGateLo, contrastGateHi); g > 0 {
		mods = append(mods, contrastAdjustment(g))
		if g >= warningGateFloor {
			warnings = append(warnings, WarnHighContrast)
		}
	}

	// Low phase contrast means a full disk: flat maria are easy to turn
	// plasticky with local contrast.
	if g := 1 - smoothGate(m.PhaseContrast, phaseGateLo, phaseGateHi); g > 0 {
		mods = append(mods, fullDiskAdjustment(g))
		if g >= warningGateFloor {
			warnings = append(warnings, WarnFullDisk)
		}
	}

	// Deconvolution viability: a blurred capture with almost no surviving
	// edge structure gives RL nothing to latch onto, and heavy ringing
	// means it is already overcorrecting.
	blurGate := smoothGate(m.BlurProbability, blurGateLo, blurGateHi)
	tooSoft := blurGate >= 1 && m.EdgeDensity < sparseEdgeDensity
	overRinging := m.RingingScore >= ringingGateHi
	if tooSoft || overRinging {
		mods = append(mods, disableDeconvolution)
		if tooSoft {
			warnings = append(warnings, WarnTooSoftForRL)
		}
	}

	return TuneResult{
		Params:   Apply(p, mods...),
		Metrics:  m,
		Warnings: warnings,
	}
}

func ringingAdjustment(g float64) Modifier {
	return func(p Params) Params {
		out := p
		out.Wavelet.FineGain *= 1 - 0.5*g
		out.Wavelet.MidGain *= 1 - 0.3*g
		return out
	}
}

func noiseAdjustment(g float64) Modifier {
	return func(p Params) Params {
		out := p
		out.Wavelet.FineGain *= 1 - 0.4*g
		out.Wavelet.MidGain *= 1 - 0.2*g
		out.MicroContrast.Strength *= 1 - 0.3*g
		out.Denoise.LumaBase = min1(out.Denoise.LumaBase * (1 + 0.5*g))
		return out
	}
}

func contrastAdjustment(g float64) Modifier {
	return func(p Params) Params {
		out := p
		out.Tone.MidtoneContrast *= 1 - 0.6*g
		out.MicroContrast.Strength *= 1 - 0.4*g
		return out
	}
}

func fullDiskAdjustment(g float64) Modifier {
	return func(p Params) Params {
		out := p
		out.MicroContrast.Strength *= 1 - 0.5*g
		return out
	}
}

func disableDeconvolution(p Params) Params {
	out := p
	out.Deconvolution.Iterations = 0
	return out
}

// clippedGainReduction is the fraction removed from the tone and wavelet
// gains by the clipped-highlight guardrail: blown highlights starve
// deconvolution of signal and make contrast boosts bloom at the limb.
const clippedGainReduction = 0.3

func clippedGuardrail(p Params) Params {
	out := disableDeconvolution(p)
	out.Tone.MidtoneContrast *= 1 - clippedGainReduction
	out.Wavelet.FineGain *= 1 - clippedGainReduction
	out.Wavelet.MidGain *= 1 - clippedGainReduction
	out.Wavelet.CoarseGain *= 1 - clippedGainReduction
	return out
}

// videoDenoiseBoost is applied to the luma denoise base for single video
// frames, which carry more sensor noise than a still exposure. This is the
// only behavior the video flag has; frame stacking is a reserved config
// group with no pipeline consumer.
const videoDenoiseBoost = 1.25

func videoFrameAdjustment(p Params) Params {
	out := p
	out.Denoise.LumaBase = min1(out.Denoise.LumaBase * videoDenoiseBoost)
	return out
}

func min1(v float64) float64 {
	if v > 1 {
		return 1
	}
	return v
}
