package plane

import "math"

// SobelMagnitude computes the gradient magnitude of the plane using the
// standard 3×3 Sobel operators:
//
//	Gx = [-1 0 1; -2 0 2; -1 0 1]    Gy = [-1 -2 -1; 0 0 0; 1 2 1]
//	magnitude = sqrt(Gx² + Gy²)
//
// Border samples use edge replication, the same convention as the blurs.
func SobelMagnitude(p *Plane) *Plane {
	out := New(p.W, p.H)
	for y := 0; y < p.H; y++ {
		for x := 0; x < p.W; x++ {
			gx := -p.At(x-1, y-1) + p.At(x+1, y-1) +
				-2*p.At(x-1, y) + 2*p.At(x+1, y) +
				-p.At(x-1, y+1) + p.At(x+1, y+1)
			gy := -p.At(x-1, y-1) - 2*p.At(x, y-1) - p.At(x+1, y-1) +
				p.At(x-1, y+1) + 2*p.At(x, y+1) + p.At(x+1, y+1)
			out.Pix[y*p.W+x] = math.Sqrt(gx*gx + gy*gy)
		}
	}
	return out
}
