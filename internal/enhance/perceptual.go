package enhance

import (
	"math"

	"github.com/astropaint/moonshine/internal/plane"
)

// PerceptualMetrics are the pre-restoration image measurements the tuner
// shapes preset parameters with. All values are in [0,1] except
// LocalContrast, which is a mean absolute deviation.
type PerceptualMetrics struct {
	// BlurProbability estimates how likely the capture is blurred,
	// from edge-profile widths against a just-noticeable-blur model.
	BlurProbability float64 `json:"blur_probability"`

	// RingingScore measures bright/dark overshoot adjacent to strong
	// edges, normalized by local edge amplitude.
	RingingScore float64 `json:"ringing_score"`

	// NoiseVisibility compares high-pass residual deviation against a
	// luminance-dependent just-noticeable-difference threshold.
	NoiseVisibility float64 `json:"noise_visibility"`

	// LocalContrast is the mean absolute deviation from a wide blur
	// over moon-mask pixels.
	LocalContrast float64 `json:"local_contrast"`

	// EdgeDensity is the fraction of moon-mask pixels with significant
	// gradient.
	EdgeDensity float64 `json:"edge_density"`

	// PhaseContrast is the left/right mean-luma asymmetry about the
	// mask centroid: low for a full disk, high near a terminator.
	PhaseContrast float64 `json:"phase_contrast"`
}

// Evaluator constants.
const (
	perceptualMaxDim = 512

	edgeGradientFloor  = 0.08
	edgeDensityFloor   = 0.10
	ringSampleFar      = 5.0
	maxEdgeProfileWalk = 8

	// Just-noticeable-blur widths in pixels, picked by local contrast.
	jnbWidthLowContrast  = 5.0
	jnbWidthHighContrast = 3.0

	// sampleStride thins the per-pixel metric loops; the evaluator runs
	// on a ≤512px copy so a stride of 2 keeps plenty of samples.
	sampleStride = 2
)

// EvaluatePerceptual measures the six perceptual metrics on a downsampled
// copy of the luma plane (max dimension 512) for cost control.
func EvaluatePerceptual(luma *plane.Plane, moonMask *plane.Mask) (PerceptualMetrics, error) {
	l, mask, err := downsampleForAnalysis(luma, moonMask)
	if err != nil {
		return PerceptualMetrics{}, err
	}

	gradient := plane.SobelMagnitude(l)
	edgeThreshold := strongEdgeThreshold(gradient, mask)

	m := PerceptualMetrics{
		BlurProbability: blurProbability(l, gradient, mask, edgeThreshold),
		RingingScore:    ringingScore(l, gradient, mask, edgeThreshold),
		NoiseVisibility: noiseVisibility(l, gradient, mask, edgeThreshold),
		LocalContrast:   localContrast(l, mask),
		EdgeDensity:     edgeDensity(gradient, mask),
		PhaseContrast:   phaseContrast(l, mask),
	}
	return m, nil
}

func downsampleForAnalysis(luma *plane.Plane, mask *plane.Mask) (*plane.Plane, *plane.Mask, error) {
	maxDim := luma.W
	if luma.H > maxDim {
		maxDim = luma.H
	}
	if maxDim <= perceptualMaxDim {
		return luma, mask, nil
	}
	scale := float64(perceptualMaxDim) / float64(maxDim)
	w := int(math.Max(float64(luma.W)*scale, 1))
	h := int(math.Max(float64(luma.H)*scale, 1))
	small, err := luma.ResizeBilinear(w, h)
	if err != nil {
		return nil, nil, err
	}
	smallMask, err := mask.ResizeNearest(w, h)
	if err != nil {
		return nil, nil, err
	}
	return small, smallMask, nil
}

// strongEdgeThreshold picks the gradient level separating "strong edges"
// from texture: the 90th percentile over moon-mask pixels, floored so a
// featureless disk does not call its noise floor an edge.
func strongEdgeThreshold(gradient *plane.Plane, mask *plane.Mask) float64 {
	var values []float64
	for i, g := range gradient.Pix {
		if mask.Pix[i] > 0.5 {
			values = append(values, g)
		}
	}
	t := plane.Percentile(values, 0.90)
	return math.Max(t, edgeGradientFloor)
}

// blurProbability walks the luma profile perpendicular to sampled strong
// edges and compares the measured edge width against a just-noticeable-blur
// width that depends on local contrast.
func blurProbability(l, gradient *plane.Plane, mask *plane.Mask, edgeThreshold float64) float64 {
	var sum float64
	var n int
	for y := 1; y < l.H-1; y += sampleStride {
		for x := 1; x < l.W-1; x += sampleStride {
			i := y*l.W + x
			if mask.Pix[i] < 0.5 || gradient.Pix[i] < edgeThreshold {
				continue
			}
			nx, ny, ok := gradientDirection(l, x, y)
			if !ok {
				continue
			}

			width := edgeProfileWidth(l, float64(x), float64(y), nx, ny)
			contrast := math.Abs(l.Sample(float64(x)+3*nx, float64(y)+3*ny) -
				l.Sample(float64(x)-3*nx, float64(y)-3*ny))
			jnb := jnbWidthLowContrast
			if contrast >= 0.5 {
				jnb = jnbWidthHighContrast
			}

			sum += smoothGate(width/jnb, 0.8, 1.6)
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// edgeProfileWidth counts how many pixels the luma keeps rising along the
// gradient direction plus how many it keeps falling against it.
func edgeProfileWidth(l *plane.Plane, x, y, nx, ny float64) float64 {
	width := 1.0
	prev := l.Sample(x, y)
	for d := 1.0; d <= maxEdgeProfileWalk; d++ {
		v := l.Sample(x+d*nx, y+d*ny)
		if v <= prev {
			break
		}
		prev = v
		width++
	}
	prev = l.Sample(x, y)
	for d := 1.0; d <= maxEdgeProfileWalk; d++ {
		v := l.Sample(x-d*nx, y-d*ny)
		if v >= prev {
			break
		}
		prev = v
		width++
	}
	return width
}

// ringingScore samples luma 1–3px to each side of strong edges and scores
// bright/dark overshoot beyond the edge's settled levels, normalized by
// the edge amplitude. The final score is the mean of the top 10% of
// samples — ringing is a worst-offender artifact, not an average one.
func ringingScore(l, gradient *plane.Plane, mask *plane.Mask, edgeThreshold float64) float64 {
	var samples []float64
	for y := 1; y < l.H-1; y += sampleStride {
		for x := 1; x < l.W-1; x += sampleStride {
			i := y*l.W + x
			if mask.Pix[i] < 0.5 || gradient.Pix[i] < edgeThreshold {
				continue
			}
			nx, ny, ok := gradientDirection(l, x, y)
			if !ok {
				continue
			}
			fx, fy := float64(x), float64(y)

			settledBright := l.Sample(fx+ringSampleFar*nx, fy+ringSampleFar*ny)
			settledDark := l.Sample(fx-ringSampleFar*nx, fy-ringSampleFar*ny)
			amplitude := math.Max(math.Abs(settledBright-settledDark), 1e-6)

			overshoot, undershoot := 0.0, 0.0
			for d := 1.0; d <= 3.0; d++ {
				if v := l.Sample(fx+d*nx, fy+d*ny); v-settledBright > overshoot {
					overshoot = v - settledBright
				}
				if v := l.Sample(fx-d*nx, fy-d*ny); settledDark-v > undershoot {
					undershoot = settledDark - v
				}
			}
			samples = append(samples, (overshoot+undershoot)/amplitude)
		}
	}
	if len(samples) == 0 {
		return 0
	}
	top := plane.Percentile(samples, 0.90)
	var sum float64
	var n int
	for _, s := range samples {
		if s >= top {
			sum += s
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return plane.Clamp01(sum / float64(n))
}

// noiseVisibility compares the high-pass residual deviation, sampled away
// from edges, against a luminance-dependent just-noticeable-difference
// threshold.
func noiseVisibility(l, gradient *plane.Plane, mask *plane.Mask, edgeThreshold float64) float64 {
	lowpass := plane.BoxBlur(l, 1)
	var residuals []float64
	var lumaSum float64
	for i := range l.Pix {
		if mask.Pix[i] < 0.5 || gradient.Pix[i] > edgeThreshold*0.5 {
			continue
		}
		residuals = append(residuals, l.Pix[i]-lowpass.Pix[i])
		lumaSum += l.Pix[i]
	}
	if len(residuals) < minBackgroundSamples {
		return 0
	}
	_, std := plane.MeanStd(residuals)
	meanLuma := lumaSum / float64(len(residuals))

	// Weber-like JND: noise hides better in brighter regions.
	jnd := 0.004 + 0.01*meanLuma
	return smoothGate(std/jnd, 0.8, 2.0)
}

// localContrast is the mean absolute deviation from a wide blur over
// moon-mask pixels.
func localContrast(l *plane.Plane, mask *plane.Mask) float64 {
	wide := plane.BoxBlur(l, 16)
	var sum float64
	var n int
	for i := range l.Pix {
		if mask.Pix[i] < 0.5 {
			continue
		}
		sum += math.Abs(l.Pix[i] - wide.Pix[i])
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// edgeDensity is the fraction of moon-mask pixels carrying a significant
// gradient.
func edgeDensity(gradient *plane.Plane, mask *plane.Mask) float64 {
	var edges, total int
	for i, g := range gradient.Pix {
		if mask.Pix[i] < 0.5 {
			continue
		}
		total++
		if g > edgeDensityFloor {
			edges++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(edges) / float64(total)
}

// phaseContrast measures left/right mean-luma asymmetry about the mask
// centroid. A full disk is symmetric (low), a terminator is not (high).
func phaseContrast(l *plane.Plane, mask *plane.Mask) float64 {
	var cx, weight float64
	for y := 0; y < l.H; y++ {
		for x := 0; x < l.W; x++ {
			m := mask.Pix[y*l.W+x]
			cx += float64(x) * m
			weight += m
		}
	}
	if weight == 0 {
		return 0
	}
	cx /= weight

	var sumL, sumR float64
	var nL, nR int
	for y := 0; y < l.H; y++ {
		for x := 0; x < l.W; x++ {
			i := y*l.W + x
			if mask.Pix[i] < 0.5 {
				continue
			}
			if float64(x) < cx {
				sumL += l.Pix[i]
				nL++
			} else {
				sumR += l.Pix[i]
				nR++
			}
		}
	}
	if nL == 0 || nR == 0 {
		return 0
	}
	meanL := sumL / float64(nL)
	meanR := sumR / float64(nR)
	return plane.Clamp01(math.Abs(meanL-meanR) / math.Max(math.Max(meanL, meanR), 1e-6))
}

// gradientDirection returns the unit gradient vector at (x,y) via central
// differences, pointing toward the brighter side. Returns ok=false in flat
// regions.
func gradientDirection(l *plane.Plane, x, y int) (nx, ny float64, ok bool) {
	gx := l.At(x+1, y) - l.At(x-1, y)
	gy := l.At(x, y+1) - l.At(x, y-1)
	mag := math.Hypot(gx, gy)
	if mag < 1e-6 {
		return 0, 0, false
	}
	return gx / mag, gy / mag, true
}

// smoothGate maps x through a smoothstep from 0 at lo to 1 at hi.
func smoothGate(x, lo, hi float64) float64 {
	if hi <= lo {
		return 0
	}
	t := plane.Clamp01((x - lo) / (hi - lo))
	return t * t * (3 - 2*t)
}
