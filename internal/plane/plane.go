package plane

import (
	"fmt"
	"math"
)

// Plane is a dense width×height grid of float64 samples stored in row-major
// order. Luma planes keep values in [0,1]; chroma planes may go negative.
//
// Planes are value-like: stage functions take a plane and return a new one.
// Methods that mutate (Set, Fill, Clamp01) are only used while a stage is
// assembling its own output buffer.
type Plane struct {
	W, H int
	Pix  []float64
}

// New allocates a zeroed plane of the given dimensions.
func New(w, h int) *Plane {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return &Plane{W: w, H: h, Pix: make([]float64, w*h)}
}

// Clone returns a deep copy of the plane.
func (p *Plane) Clone() *Plane {
	out := &Plane{W: p.W, H: p.H, Pix: make([]float64, len(p.Pix))}
	copy(out.Pix, p.Pix)
	return out
}

// At returns the sample at (x,y). Coordinates outside the plane are clamped
// to the nearest edge sample, matching the replicated-border convention used
// by the convolution routines.
func (p *Plane) At(x, y int) float64 {
	x = clampInt(x, 0, p.W-1)
	y = clampInt(y, 0, p.H-1)
	return p.Pix[y*p.W+x]
}

// Set writes the sample at (x,y). Out-of-range coordinates are ignored.
func (p *Plane) Set(x, y int, v float64) {
	if x < 0 || x >= p.W || y < 0 || y >= p.H {
		return
	}
	p.Pix[y*p.W+x] = v
}

// Fill sets every sample to v.
func (p *Plane) Fill(v float64) {
	for i := range p.Pix {
		p.Pix[i] = v
	}
}

// Clamp01 clamps every sample into [0,1] in place and maps NaN to 0.
// Stage outputs are clamped before they are handed to the next stage.
func (p *Plane) Clamp01() {
	for i, v := range p.Pix {
		switch {
		case math.IsNaN(v):
			p.Pix[i] = 0
		case v < 0:
			p.Pix[i] = 0
		case v > 1:
			p.Pix[i] = 1
		}
	}
}

// Max returns the largest sample value, or 0 for an empty plane.
func (p *Plane) Max() float64 {
	max := 0.0
	for i, v := range p.Pix {
		if i == 0 || v > max {
			max = v
		}
	}
	return max
}

// Sample returns a bilinearly interpolated value at fractional coordinates.
// Coordinates are clamped to the plane bounds.
func (p *Plane) Sample(x, y float64) float64 {
	if p.W == 0 || p.H == 0 {
		return 0
	}
	x = clampFloat(x, 0, float64(p.W-1))
	y = clampFloat(y, 0, float64(p.H-1))
	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	fx := x - float64(x0)
	fy := y - float64(y0)
	v00 := p.At(x0, y0)
	v10 := p.At(x0+1, y0)
	v01 := p.At(x0, y0+1)
	v11 := p.At(x0+1, y0+1)
	top := v00 + (v10-v00)*fx
	bot := v01 + (v11-v01)*fx
	return top + (bot-top)*fy
}

// ResizeBilinear resamples the plane to w×h using bilinear interpolation.
// Returns an error if the target dimensions are not positive.
func (p *Plane) ResizeBilinear(w, h int) (*Plane, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid resize target %dx%d", w, h)
	}
	if w == p.W && h == p.H {
		return p.Clone(), nil
	}
	out := New(w, h)
	sx := float64(p.W) / float64(w)
	sy := float64(p.H) / float64(h)
	for y := 0; y < h; y++ {
		srcY := (float64(y)+0.5)*sy - 0.5
		for x := 0; x < w; x++ {
			srcX := (float64(x)+0.5)*sx - 0.5
			out.Pix[y*w+x] = p.Sample(srcX, srcY)
		}
	}
	return out, nil
}

// clampInt constrains an integer value to the range [min, max].
func clampInt(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// clampFloat constrains a float value to the range [min, max].
func clampFloat(val, min, max float64) float64 {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// Clamp01 clamps a single value into [0,1], mapping NaN to 0.
func Clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
