// Package colorspace converts decoded images to and from the plane
// representation the pipeline operates on.
//
// Decomposition uses the CIE Lab color space via go-colorful: L* becomes the
// normalized luma plane in [0,1], a* and b* become the two chroma planes.
// Working in a perceptual space keeps the chroma planes stable while the
// restoration stages rework luma, so recomposition does not shift hue.
package colorspace

import (
	"errors"
	"image"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/astropaint/moonshine/internal/plane"
)

// ErrEmptyImage is returned when the input image (or a crop of it) has no
// pixels. Color conversion failures are fatal to an enhancement run.
var ErrEmptyImage = errors.New("colorspace: empty image")

// Planes holds the decomposed channels of an image at a single resolution.
// Luma is in [0,1]; ChromaA and ChromaB carry the signed Lab a*/b*
// components.
type Planes struct {
	W, H    int
	Luma    *plane.Plane
	ChromaA *plane.Plane
	ChromaB *plane.Plane
}

// Clone returns a deep copy of all three channels.
func (p *Planes) Clone() *Planes {
	return &Planes{
		W: p.W, H: p.H,
		Luma:    p.Luma.Clone(),
		ChromaA: p.ChromaA.Clone(),
		ChromaB: p.ChromaB.Clone(),
	}
}

// Decompose splits an image into luma and chroma planes.
//
// Fully transparent pixels decompose as black; alpha is otherwise ignored
// since night-sky captures carry no meaningful transparency.
func Decompose(img image.Image) (*Planes, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return nil, ErrEmptyImage
	}

	out := &Planes{
		W: w, H: h,
		Luma:    plane.New(w, h),
		ChromaA: plane.New(w, h),
		ChromaB: plane.New(w, h),
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := img.At(x+bounds.Min.X, y+bounds.Min.Y)
			_, _, _, a := c.RGBA()
			if a == 0 {
				continue // zeroed planes already mean black
			}
			cf, ok := colorful.MakeColor(c)
			if !ok {
				continue
			}
			l, ca, cb := cf.Lab()
			i := y*w + x
			out.Luma.Pix[i] = plane.Clamp01(l)
			out.ChromaA.Pix[i] = ca
			out.ChromaB.Pix[i] = cb
		}
	}
	return out, nil
}

// Recompose rebuilds an NRGBA image from the planes. Luma is clamped to
// [0,1] and the Lab color is clamped into the RGB gamut before encoding.
func Recompose(p *Planes) (*image.NRGBA, error) {
	if p.W <= 0 || p.H <= 0 {
		return nil, ErrEmptyImage
	}
	img := image.NewNRGBA(image.Rect(0, 0, p.W, p.H))
	for y := 0; y < p.H; y++ {
		for x := 0; x < p.W; x++ {
			i := y*p.W + x
			c := colorful.Lab(plane.Clamp01(p.Luma.Pix[i]), p.ChromaA.Pix[i], p.ChromaB.Pix[i])
			r, g, b := c.Clamped().RGB255()
			img.SetNRGBA(x, y, color.NRGBA{R: r, G: g, B: b, A: 255})
		}
	}
	return img, nil
}
