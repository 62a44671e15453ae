package detect

import (
	"image"
	"math"

	"github.com/astropaint/moonshine/internal/plane"
)

// MaskGeometry configures crop padding and mask band widths, in pixels at
// full image resolution. Geometry fields are never scaled by strength.
type MaskGeometry struct {
	// PaddingFactor scales the crop half-size relative to the radius.
	PaddingFactor float64

	// FeatherPx is the width of the cosine falloff band centered on the
	// limb in the moon mask.
	FeatherPx float64

	// LimbBandPx is the width of the limb-ring band just inside the limb.
	LimbBandPx float64

	// LimbTransitionPx is the linear ramp length at both edges of the
	// limb ring.
	LimbTransitionPx float64
}

// DefaultMaskGeometry matches the values the presets were tuned against.
func DefaultMaskGeometry() MaskGeometry {
	return MaskGeometry{
		PaddingFactor:    1.3,
		FeatherPx:        3,
		LimbBandPx:       9,
		LimbTransitionPx: 2,
	}
}

// CropRect computes the padded square crop around the fitted circle,
// clamped to the image bounds. The result can be empty if the circle lies
// entirely outside the image; callers must check.
func CropRect(c FittedCircle, padding float64, imageW, imageH int) image.Rectangle {
	half := c.Radius * padding
	rect := image.Rect(
		int(math.Floor(c.CenterX-half)),
		int(math.Floor(c.CenterY-half)),
		int(math.Ceil(c.CenterX+half)),
		int(math.Ceil(c.CenterY+half)),
	)
	return rect.Intersect(image.Rect(0, 0, imageW, imageH))
}

// MoonMask builds the feathered disk mask at crop resolution. Weights are 1
// deep inside the disk, 0 outside, with a cosine falloff across featherPx
// centered on the radius.
func MoonMask(c FittedCircle, crop image.Rectangle, featherPx float64) (*plane.Mask, error) {
	w, h := crop.Dx(), crop.Dy()
	pix := make([]float64, w*h)
	cx := c.CenterX - float64(crop.Min.X)
	cy := c.CenterY - float64(crop.Min.Y)
	half := featherPx / 2

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			d := math.Hypot(float64(x)-cx, float64(y)-cy)
			var v float64
			switch {
			case d <= c.Radius-half:
				v = 1
			case d >= c.Radius+half:
				v = 0
			default:
				// Cosine falloff from 1 to 0 across the feather band.
				t := (d - (c.Radius - half)) / math.Max(featherPx, 1e-9)
				v = 0.5 * (1 + math.Cos(math.Pi*t))
			}
			pix[y*w+x] = v
		}
	}
	return plane.NewMask(w, h, pix)
}

// LimbRingMask builds the limb-protection ring at crop resolution: weight 1
// across a band of bandPx just inside the limb, with linear transitions of
// transitionPx at the band's inner and outer boundaries, 0 elsewhere.
func LimbRingMask(c FittedCircle, crop image.Rectangle, bandPx, transitionPx float64) (*plane.Mask, error) {
	w, h := crop.Dx(), crop.Dy()
	pix := make([]float64, w*h)
	cx := c.CenterX - float64(crop.Min.X)
	cy := c.CenterY - float64(crop.Min.Y)

	outer := c.Radius
	inner := c.Radius - bandPx
	t := math.Max(transitionPx, 1e-9)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			d := math.Hypot(float64(x)-cx, float64(y)-cy)
			var v float64
			switch {
			case d < inner || d > outer:
				v = 0
			case d < inner+t:
				v = (d - inner) / t
			case d > outer-t:
				v = (outer - d) / t
			default:
				v = 1
			}
			pix[y*w+x] = v
		}
	}
	return plane.NewMask(w, h, pix)
}

// DilateLimbRing rebuilds a limb ring expanded outward by dilatePx: the
// band's outer edge moves past the fitted radius so halo mitigation also
// suppresses sharpening just outside the limb.
func DilateLimbRing(c FittedCircle, crop image.Rectangle, geometry MaskGeometry, dilatePx float64) (*plane.Mask, error) {
	expanded := c
	expanded.Radius += dilatePx
	return LimbRingMask(expanded, crop, geometry.LimbBandPx+dilatePx, geometry.LimbTransitionPx)
}
