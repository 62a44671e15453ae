package plane

import (
	"fmt"
	"math"
	"sync"
)

// kernelCache memoizes 1-D Gaussian kernel weights keyed by sigma. Building
// a kernel is cheap but the deconvolution loop asks for the same sigma many
// times per run, and concurrent runs on different images share the cache.
// Read-heavy, so an RWMutex.
type kernelCache struct {
	mu      sync.RWMutex
	kernels map[string][]float64
}

var kernels = &kernelCache{kernels: make(map[string][]float64)}

// GaussianKernel returns the normalized 1-D Gaussian kernel for sigma.
// The radius is ceil(3*sigma) so the tails carry negligible weight.
// Results are memoized process-wide.
func GaussianKernel(sigma float64) []float64 {
	if sigma < 0.1 {
		sigma = 0.1
	}
	key := fmt.Sprintf("g:%.4f", sigma)

	kernels.mu.RLock()
	if k, ok := kernels.kernels[key]; ok {
		kernels.mu.RUnlock()
		return k
	}
	kernels.mu.RUnlock()

	radius := int(math.Ceil(3 * sigma))
	k := make([]float64, 2*radius+1)
	sum := 0.0
	for i := -radius; i <= radius; i++ {
		w := math.Exp(-float64(i*i) / (2 * sigma * sigma))
		k[i+radius] = w
		sum += w
	}
	for i := range k {
		k[i] /= sum
	}

	kernels.mu.Lock()
	kernels.kernels[key] = k
	kernels.mu.Unlock()
	return k
}

// GaussianBlur convolves the plane with a separable Gaussian of the given
// sigma. Borders are handled by edge replication.
func GaussianBlur(p *Plane, sigma float64) *Plane {
	k := GaussianKernel(sigma)
	return convolveSeparable(p, k)
}

// convolveSeparable applies a symmetric 1-D kernel horizontally then
// vertically, replicating edge samples at the border.
func convolveSeparable(p *Plane, k []float64) *Plane {
	radius := len(k) / 2
	tmp := New(p.W, p.H)
	for y := 0; y < p.H; y++ {
		for x := 0; x < p.W; x++ {
			var sum float64
			for i := -radius; i <= radius; i++ {
				sum += p.At(x+i, y) * k[i+radius]
			}
			tmp.Pix[y*p.W+x] = sum
		}
	}
	out := New(p.W, p.H)
	for y := 0; y < p.H; y++ {
		for x := 0; x < p.W; x++ {
			var sum float64
			for i := -radius; i <= radius; i++ {
				sum += tmp.At(x, y+i) * k[i+radius]
			}
			out.Pix[y*p.W+x] = sum
		}
	}
	return out
}

// BoxBlur averages each sample over a (2*radius+1)² window using running
// row/column sums, so cost is independent of the radius. Borders replicate
// the edge sample.
func BoxBlur(p *Plane, radius int) *Plane {
	if radius <= 0 {
		return p.Clone()
	}
	tmp := boxBlurHorizontal(p, radius)
	return boxBlurVertical(tmp, radius)
}

func boxBlurHorizontal(p *Plane, radius int) *Plane {
	out := New(p.W, p.H)
	window := float64(2*radius + 1)
	for y := 0; y < p.H; y++ {
		sum := 0.0
		for i := -radius; i <= radius; i++ {
			sum += p.At(i, y)
		}
		for x := 0; x < p.W; x++ {
			out.Pix[y*p.W+x] = sum / window
			sum += p.At(x+radius+1, y) - p.At(x-radius, y)
		}
	}
	return out
}

func boxBlurVertical(p *Plane, radius int) *Plane {
	out := New(p.W, p.H)
	window := float64(2*radius + 1)
	for x := 0; x < p.W; x++ {
		sum := 0.0
		for i := -radius; i <= radius; i++ {
			sum += p.At(x, i)
		}
		for y := 0; y < p.H; y++ {
			out.Pix[y*p.W+x] = sum / window
			sum += p.At(x, y+radius+1) - p.At(x, y-radius)
		}
	}
	return out
}
