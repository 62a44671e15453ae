package enhance

import (
	"math"

	"github.com/astropaint/moonshine/internal/colorspace"
	"github.com/astropaint/moonshine/internal/plane"
)

// denoise blends each plane toward a box-blurred copy. Luma blending is
// confidence-gated — weight = base·(1−C)^exponent, so low-confidence pixels
// get the most smoothing and confident detail is preserved. Chroma uses a
// flat weight: chroma noise is visually worse than slight chroma softness.
func denoise(ps *colorspace.Planes, cm *ConfidenceMap, p DenoiseParams) *colorspace.Planes {
	if p.Radius <= 0 || (p.LumaBase <= 0 && p.ChromaBlend <= 0) {
		return ps.Clone()
	}

	blurLuma := plane.BoxBlur(ps.Luma, p.Radius)
	out := &colorspace.Planes{W: ps.W, H: ps.H}

	luma := plane.New(ps.W, ps.H)
	for i, v := range ps.Luma.Pix {
		w := p.LumaBase * math.Pow(1-cm.C.Pix[i], p.LumaExponent)
		w = plane.Clamp01(w)
		luma.Pix[i] = v*(1-w) + blurLuma.Pix[i]*w
	}
	luma.Clamp01()
	out.Luma = luma

	out.ChromaA = blendFlat(ps.ChromaA, p.Radius, p.ChromaBlend)
	out.ChromaB = blendFlat(ps.ChromaB, p.Radius, p.ChromaBlend)
	return out
}

func blendFlat(p *plane.Plane, radius int, weight float64) *plane.Plane {
	weight = plane.Clamp01(weight)
	if weight == 0 {
		return p.Clone()
	}
	blurred := plane.BoxBlur(p, radius)
	out := plane.New(p.W, p.H)
	for i, v := range p.Pix {
		out.Pix[i] = v*(1-weight) + blurred.Pix[i]*weight
	}
	return out
}
