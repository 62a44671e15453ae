package enhance

import (
	"math"

	"github.com/astropaint/moonshine/internal/plane"
)

// highlightMaskBlurRadius softens the clip mask so the compression blends
// in with no hard edge.
const highlightMaskBlurRadius = 4

// compensateHighlights smoothly compresses luma above the clip-start level
// back toward it. The compression is blended through a blurred clip mask so
// the transition between compressed and untouched regions has no seam.
//
// The pipeline invokes this stage only when the detection's
// clipped-highlight fraction exceeds the preset trigger.
func compensateHighlights(l *plane.Plane, p HighlightParams) *plane.Plane {
	clipStart := plane.Clamp01(p.ClipStart)
	strength := math.Max(p.Strength, 0)
	if strength == 0 {
		return l.Clone()
	}

	// Soft membership: 0 at clipStart, 1 at pure white.
	clipMask := plane.New(l.W, l.H)
	span := math.Max(1-clipStart, 1e-9)
	for i, v := range l.Pix {
		if v > clipStart {
			clipMask.Pix[i] = plane.Clamp01((v - clipStart) / span)
		}
	}
	blurred := plane.BoxBlur(clipMask, highlightMaskBlurRadius)

	out := plane.New(l.W, l.H)
	for i, v := range l.Pix {
		compressed := v
		if v > clipStart {
			excess := v - clipStart
			compressed = clipStart + excess/(1+strength*excess/span)
		}
		m := plane.Clamp01(blurred.Pix[i])
		out.Pix[i] = v*(1-m) + compressed*m
	}
	out.Clamp01()
	return out
}
