package detect

import (
	"testing"

	"github.com/astropaint/moonshine/internal/plane"
)

func TestOtsuRestrictedBimodal(t *testing.T) {
	// 90% of mass spread over bins [0,90), 10% over [230,256).
	hist := make([]int, 256)
	total := 0
	for bin := 0; bin < 90; bin++ {
		hist[bin] = 100
		total += 100
	}
	for bin := 230; bin < 256; bin++ {
		hist[bin] = 1000 / 26
		total += 1000 / 26
	}

	got := otsuRestricted(hist, total, 40)
	if got <= 90 || got >= 230 {
		t.Errorf("threshold: got %d, want strictly between 90 and 230", got)
	}
}

func TestOtsuRestrictedLandsMidGap(t *testing.T) {
	// Two modes with an empty gap between them: the variance maximum is
	// flat from the end of the dark mode through the gap, and the tie
	// break must land in the middle rather than at the first plateau bin.
	hist := make([]int, 256)
	total := 0
	for bin := 0; bin < 90; bin++ {
		hist[bin] = 100
		total += 100
	}
	for bin := 230; bin < 256; bin++ {
		hist[bin] = 38
		total += 38
	}

	if got := otsuRestricted(hist, total, 40); got != 160 {
		t.Errorf("threshold: got %d, want 160 (midpoint of the 90-230 plateau)", got)
	}
}

func TestOtsuRestrictedDegenerateHistogram(t *testing.T) {
	// All mass in one bin: no class split exists, fall back to lo.
	hist := make([]int, 256)
	hist[128] = 5000

	if got := otsuRestricted(hist, 5000, 200); got != 200 {
		t.Errorf("single-bin histogram above lo: got %d, want 200", got)
	}
}

func TestBrightnessThresholdSeparatesMoon(t *testing.T) {
	// Dark sky with a bright square; the mask must cover the square and
	// exclude the sky.
	luma := plane.New(50, 50)
	luma.Fill(0.05)
	for y := 20; y < 30; y++ {
		for x := 20; x < 30; x++ {
			luma.Set(x, y, 0.9)
		}
	}

	res := BrightnessThreshold(luma)
	if !res.Mask[25*50+25] {
		t.Error("bright region center not marked bright")
	}
	if res.Mask[5*50+5] {
		t.Error("dark sky marked bright")
	}
	if res.BrightFraction < 0.03 || res.BrightFraction > 0.06 {
		t.Errorf("bright fraction: got %v, want ≈0.04", res.BrightFraction)
	}
}

func TestBrightnessThresholdEmptyPlane(t *testing.T) {
	res := BrightnessThreshold(plane.New(0, 0))
	if len(res.Mask) != 0 {
		t.Errorf("empty plane produced a %d-sample mask", len(res.Mask))
	}
}
