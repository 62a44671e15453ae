package enhance

import (
	"math"

	"github.com/astropaint/moonshine/internal/plane"
)

// waveletLumaGateWidth is the luma span over which band gain fades to zero
// approaching MaxLuma.
const waveletLumaGateWidth = 0.08

// waveletSharpen boosts detail through a three-band difference-of-Gaussians
// decomposition. The per-pixel gain for each band is
//
//	bandGain · C^exponent · (1 − limb) · lumaGate
//
// where the luma gate smoothly zeroes gain near the bright ceiling
// (preventing a crunchy bright limb) and pixels whose local SNR is below
// the preset floor are skipped outright. Where C = 0 the output equals the
// input exactly.
func waveletSharpen(l *plane.Plane, cm *ConfidenceMap, limb *plane.Mask, p WaveletParams) *plane.Plane {
	g1 := plane.GaussianBlur(l, p.Sigmas[0])
	g2 := plane.GaussianBlur(l, p.Sigmas[1])
	g3 := plane.GaussianBlur(l, p.Sigmas[2])

	out := plane.New(l.W, l.H)
	for i, v := range l.Pix {
		if cm.SNR.Pix[i] < p.SNRFloor {
			out.Pix[i] = v
			continue
		}

		conf := math.Pow(cm.C.Pix[i], p.ConfidenceExponent)
		gate := conf * (1 - limb.Pix[i]) * lumaGate(v, p.MaxLuma)
		if gate == 0 {
			out.Pix[i] = v
			continue
		}

		fine := v - g1.Pix[i]
		mid := g1.Pix[i] - g2.Pix[i]
		coarse := g2.Pix[i] - g3.Pix[i]

		out.Pix[i] = v + gate*(p.FineGain*fine+p.MidGain*mid+p.CoarseGain*coarse)
	}
	out.Clamp01()
	return out
}

// lumaGate fades from 1 to 0 as v approaches maxLuma, and stays 0 above it.
func lumaGate(v, maxLuma float64) float64 {
	if v >= maxLuma {
		return 0
	}
	start := maxLuma - waveletLumaGateWidth
	if v <= start {
		return 1
	}
	t := (maxLuma - v) / waveletLumaGateWidth
	return t * t * (3 - 2*t) // smoothstep
}
