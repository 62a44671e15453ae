package enhance

import (
	"testing"

	"github.com/astropaint/moonshine/internal/detect"
	"github.com/astropaint/moonshine/internal/plane"
)

func testCircle(cx, cy, r float64) detect.FittedCircle {
	return detect.FittedCircle{CenterX: cx, CenterY: cy, Radius: r}
}

// brightDisk renders a uniform disk on a dark background, optionally with a
// bright halo annulus just outside the limb.
func brightDisk(size int, cx, cy, r float64, halo bool) *plane.Plane {
	p := plane.New(size, size)
	p.Fill(0.02)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx, dy := float64(x)-cx, float64(y)-cy
			d2 := dx*dx + dy*dy
			if d2 <= r*r {
				p.Set(x, y, 0.6)
			} else if halo && d2 <= (r+3)*(r+3) {
				p.Set(x, y, 0.9)
			}
		}
	}
	return p
}

func TestMeasureHaloCleanLimbPasses(t *testing.T) {
	l := brightDisk(64, 32, 32, 20, false)
	check := MeasureHalo(l, testCircle(32, 32, 20), Natural().HaloGuard)

	if !check.Passed {
		t.Errorf("clean limb failed halo check: overshoot %v", check.Overshoot)
	}
	if check.Angles != 36 {
		t.Errorf("angles: got %d, want 36", check.Angles)
	}
}

func TestMeasureHaloDetectsOvershoot(t *testing.T) {
	l := brightDisk(64, 32, 32, 20, true)
	check := MeasureHalo(l, testCircle(32, 32, 20), Natural().HaloGuard)

	if check.Passed {
		t.Fatalf("halo annulus passed the check: overshoot %v", check.Overshoot)
	}
	// Outside ≈0.9 against inside ≈0.6 is a ~0.5 relative excess; bilinear
	// sampling erodes it a little.
	if check.Overshoot < 0.2 {
		t.Errorf("overshoot %v, want at least 0.2", check.Overshoot)
	}
}

func TestHaloMitigationReducesGainAndIterations(t *testing.T) {
	p := Natural()
	once := HaloMitigation(p)

	if want := p.Wavelet.FineGain * 0.5; once.Wavelet.FineGain != want {
		t.Errorf("fine gain: got %v, want %v", once.Wavelet.FineGain, want)
	}
	if want := p.Deconvolution.Iterations - p.HaloGuard.IterationReduction; once.Deconvolution.Iterations != want {
		t.Errorf("iterations: got %d, want %d", once.Deconvolution.Iterations, want)
	}

	// Repeated application bottoms out at zero iterations instead of going
	// negative.
	twice := HaloMitigation(once)
	thrice := HaloMitigation(twice)
	if twice.Deconvolution.Iterations != 0 || thrice.Deconvolution.Iterations != 0 {
		t.Errorf("iterations after repeated mitigation: %d, %d; want 0, 0",
			twice.Deconvolution.Iterations, thrice.Deconvolution.Iterations)
	}
}
