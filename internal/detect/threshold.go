package detect

import (
	"github.com/astropaint/moonshine/internal/plane"
)

// ThresholdResult is the output of bright-region threshold analysis.
type ThresholdResult struct {
	// Threshold is the selected luma bin (0-255). Pixels at or above it
	// are marked bright.
	Threshold int

	// Mask marks bright pixels, row-major at the luma plane's resolution.
	Mask []bool

	// BrightFraction is the fraction of pixels marked bright.
	BrightFraction float64
}

// BrightnessThreshold selects a luma threshold separating the moon from the
// sky and returns the resulting binary mask.
//
// # Algorithm
//
// A 256-bin histogram is built over the luma plane. The starting bin is the
// one where cumulative mass counted from the top of the histogram reaches
// 15% (the 85th percentile). Otsu's between-class-variance maximization is
// then run restricted to thresholds at or above half the starting bin.
// Restricting the search keeps a dominant dark sky from dragging the
// threshold into the noise floor.
func BrightnessThreshold(luma *plane.Plane) *ThresholdResult {
	hist := plane.Histogram256(luma)
	total := len(luma.Pix)
	if total == 0 {
		return &ThresholdResult{Threshold: 255, Mask: nil}
	}

	startBin := percentileBinFromTop(hist, total, 0.15)
	lo := startBin / 2

	threshold := otsuRestricted(hist, total, lo)

	mask := make([]bool, total)
	bright := 0
	cut := float64(threshold) / 255.0
	for i, v := range luma.Pix {
		if v >= cut {
			mask[i] = true
			bright++
		}
	}

	return &ThresholdResult{
		Threshold:      threshold,
		Mask:           mask,
		BrightFraction: float64(bright) / float64(total),
	}
}

// percentileBinFromTop walks the histogram from bin 255 downward and returns
// the bin at which cumulative mass reaches the given fraction.
func percentileBinFromTop(hist []int, total int, fraction float64) int {
	target := int(float64(total) * fraction)
	cum := 0
	for bin := 255; bin >= 0; bin-- {
		cum += hist[bin]
		if cum >= target {
			return bin
		}
	}
	return 0
}

// otsuRestricted maximizes between-class variance over thresholds in
// [lo, 255]. Class statistics still cover the full histogram; only the
// threshold search range is restricted.
//
// A well-separated bimodal histogram makes the variance plateau across the
// empty gap between the modes: every threshold in the gap yields the same
// class split. Ties across such a flat maximum are broken by averaging the
// first and last threshold that achieve it, so the cut lands mid-gap instead
// of hugging the dark mode.
func otsuRestricted(hist []int, total int, lo int) int {
	const eps = 1e-12

	var sumAll float64
	for bin, n := range hist {
		sumAll += float64(bin) * float64(n)
	}

	// Accumulate background stats for bins below lo so the scan can start
	// mid-histogram.
	var wB, sumB float64
	for bin := 0; bin < lo; bin++ {
		wB += float64(hist[bin])
		sumB += float64(bin) * float64(hist[bin])
	}

	bestLo, bestHi := lo, lo
	bestVar := -1.0
	totalF := float64(total)

	for t := lo; t <= 255; t++ {
		wF := totalF - wB
		if wB > 0 && wF > 0 {
			muB := sumB / maxFloat(wB, eps)
			muF := (sumAll - sumB) / maxFloat(wF, eps)
			between := wB * wF * (muB - muF) * (muB - muF)
			if between > bestVar {
				bestVar = between
				bestLo, bestHi = t, t
			} else if between == bestVar {
				// Empty bins leave the class stats untouched, so the
				// plateau values compare bit-for-bit equal.
				bestHi = t
			}
		}
		wB += float64(hist[t])
		sumB += float64(t) * float64(hist[t])
	}

	if bestVar < 0 {
		// Degenerate histogram (all mass below lo, or single bin):
		// fall back to the restriction point itself.
		return lo
	}
	return (bestLo + bestHi) / 2
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
