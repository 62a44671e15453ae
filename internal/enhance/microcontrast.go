package enhance

import (
	"math"

	"github.com/astropaint/moonshine/internal/detect"
	"github.com/astropaint/moonshine/internal/plane"
)

// microContrast applies an unsharp-mask style local contrast boost using a
// large-radius box blur. The boost only applies where confidence clears the
// preset minimum, never within the limb margin band, and never above the
// luma ceiling.
//
// For crops larger than DownsampleAbove the detail band is computed on a
// bilinearly downsampled copy and resized back up — an explicit
// quality/performance fork, not a hidden approximation.
func microContrast(l *plane.Plane, cm *ConfidenceMap, circle detect.FittedCircle, p MicroContrastParams) *plane.Plane {
	if p.Strength <= 0 || p.Radius <= 0 {
		return l.Clone()
	}

	detail, err := detailBand(l, p)
	if err != nil {
		return l.Clone()
	}

	out := plane.New(l.W, l.H)
	for y := 0; y < l.H; y++ {
		for x := 0; x < l.W; x++ {
			i := y*l.W + x
			v := l.Pix[i]
			out.Pix[i] = v

			if cm.C.Pix[i] < p.MinConfidence {
				continue
			}
			if v > p.MaxLuma {
				continue
			}
			// Keep the boost away from the limb on both sides.
			d := math.Hypot(float64(x)-circle.CenterX, float64(y)-circle.CenterY)
			if math.Abs(d-circle.Radius) < p.LimbMarginPx {
				continue
			}

			out.Pix[i] = v + p.Strength*detail.Pix[i]
		}
	}
	out.Clamp01()
	return out
}

// detailBand returns luma minus its wide box blur, optionally computed at
// reduced resolution for large crops.
func detailBand(l *plane.Plane, p MicroContrastParams) (*plane.Plane, error) {
	maxDim := l.W
	if l.H > maxDim {
		maxDim = l.H
	}
	if p.DownsampleAbove <= 0 || maxDim <= p.DownsampleAbove {
		blurred := plane.BoxBlur(l, p.Radius)
		detail := plane.New(l.W, l.H)
		for i, v := range l.Pix {
			detail.Pix[i] = v - blurred.Pix[i]
		}
		return detail, nil
	}

	factor := float64(maxDim) / float64(p.DownsampleAbove)
	smallW := int(math.Max(float64(l.W)/factor, 1))
	smallH := int(math.Max(float64(l.H)/factor, 1))
	small, err := l.ResizeBilinear(smallW, smallH)
	if err != nil {
		return nil, err
	}

	radius := int(math.Max(float64(p.Radius)/factor, 1))
	blurred := plane.BoxBlur(small, radius)
	detailSmall := plane.New(smallW, smallH)
	for i, v := range small.Pix {
		detailSmall.Pix[i] = v - blurred.Pix[i]
	}
	return detailSmall.ResizeBilinear(l.W, l.H)
}
