package plane

import "fmt"

// Mask is a dense width×height grid of weights in [0,1].
//
// Masks are immutable once produced: every derived mask (a resize, a
// dilation) is a new buffer. Producers build the pixel slice and hand it to
// NewMask; consumers only read.
type Mask struct {
	W, H int
	Pix  []float64
}

// NewMask wraps a pixel slice as a mask. The slice length must be w*h;
// values are clamped into [0,1] on the way in so no consumer ever sees an
// out-of-range weight.
func NewMask(w, h int, pix []float64) (*Mask, error) {
	if len(pix) != w*h {
		return nil, fmt.Errorf("mask pixel count %d does not match %dx%d", len(pix), w, h)
	}
	clamped := make([]float64, len(pix))
	for i, v := range pix {
		clamped[i] = Clamp01(v)
	}
	return &Mask{W: w, H: h, Pix: clamped}, nil
}

// At returns the weight at (x,y), clamping coordinates to the mask edge.
func (m *Mask) At(x, y int) float64 {
	x = clampInt(x, 0, m.W-1)
	y = clampInt(y, 0, m.H-1)
	return m.Pix[y*m.W+x]
}

// ResizeNearest resamples the mask to w×h with nearest-neighbor lookup and
// returns a new mask. Nearest-neighbor keeps hard-zero regions hard zero,
// which the confidence map relies on.
func (m *Mask) ResizeNearest(w, h int) (*Mask, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid mask resize target %dx%d", w, h)
	}
	if w == m.W && h == m.H {
		out := make([]float64, len(m.Pix))
		copy(out, m.Pix)
		return &Mask{W: w, H: h, Pix: out}, nil
	}
	out := make([]float64, w*h)
	for y := 0; y < h; y++ {
		srcY := clampInt(y*m.H/h, 0, m.H-1)
		for x := 0; x < w; x++ {
			srcX := clampInt(x*m.W/w, 0, m.W-1)
			out[y*w+x] = m.Pix[srcY*m.W+srcX]
		}
	}
	return &Mask{W: w, H: h, Pix: out}, nil
}

// CoverageCount returns the number of mask samples strictly above the
// threshold. Used to decide whether enough background pixels exist for
// noise estimation.
func (m *Mask) CoverageCount(threshold float64) int {
	n := 0
	for _, v := range m.Pix {
		if v > threshold {
			n++
		}
	}
	return n
}
