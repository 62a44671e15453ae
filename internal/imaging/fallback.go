package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/effect"
)

// Fallback tuning. These are intentionally timid: the fallback runs when
// detection could not find a trustworthy disk, so there is no mask or
// confidence map to keep an aggressive edit away from the sky.
const (
	fallbackUnsharpRadius = 1.5
	fallbackUnsharpAmount = 0.4
	fallbackGamma         = 1.06
)

// ConservativeEnhance applies mild global edits with no moon-specific
// knowledge: a gentle unsharp mask and a slight gamma lift. Strength in
// [0,100] scales the unsharp amount; the gamma lift is fixed.
//
// This is the product-level answer to a low-confidence detection. It must
// never produce halos, crunchy limbs, or amplified noise, so every value
// here trades visible improvement away for safety.
func ConservativeEnhance(img image.Image, strength float64) *image.RGBA {
	if strength < 0 {
		strength = 0
	}
	if strength > 100 {
		strength = 100
	}
	amount := fallbackUnsharpAmount * strength / 100

	out := effect.UnsharpMask(img, fallbackUnsharpRadius, amount)
	return adjust.Gamma(out, fallbackGamma)
}
