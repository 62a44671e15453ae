package detect

import (
	"errors"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// FittedCircle is a circle fit to a set of boundary points.
// Producers guarantee Radius > 0 and finite fields; a fit that cannot meet
// that returns an error instead.
type FittedCircle struct {
	CenterX float64 `json:"center_x"`
	CenterY float64 `json:"center_y"`
	Radius  float64 `json:"radius"`

	// Residual is the root-mean-square distance error of the points
	// against the fitted circle, in pixels. Always non-negative.
	Residual float64 `json:"residual"`
}

// ErrDegenerateFit is returned when no valid circle can be produced from
// the input points (too few points, collinear points, non-finite result).
var ErrDegenerateFit = errors.New("detect: degenerate circle fit")

// taubinSingularDet is the determinant magnitude below which the algebraic
// system is treated as near-singular and the centroid fallback is used.
const taubinSingularDet = 1e-10

// FitCircleTaubin fits a circle with Taubin's algebraic method.
//
// # Algorithm
//
// The point cloud is centered on its mean, then the 2×2 moment system
//
//	| Suu Suv | |uc|   1 | Suuu + Suvv |
//	| Suv Svv | |vc| = 2 | Svvv + Svuu |
//
// is solved for the center offset (uc, vc); the radius follows from
// r² = uc² + vc² + (Suu+Svv)/n. If the system determinant magnitude is at
// or below 1e-10, or the solution is non-finite, the centroid/mean-radius
// fallback is used instead. At least 3 points are required.
func FitCircleTaubin(points []Point) (FittedCircle, error) {
	if len(points) < 3 {
		return FittedCircle{}, ErrDegenerateFit
	}

	n := float64(len(points))
	var meanX, meanY float64
	for _, p := range points {
		meanX += float64(p.X)
		meanY += float64(p.Y)
	}
	meanX /= n
	meanY /= n

	var suu, svv, suv, suuu, svvv, suvv, svuu float64
	for _, p := range points {
		u := float64(p.X) - meanX
		v := float64(p.Y) - meanY
		suu += u * u
		svv += v * v
		suv += u * v
		suuu += u * u * u
		svvv += v * v * v
		suvv += u * v * v
		svuu += v * u * u
	}

	a := mat.NewDense(2, 2, []float64{suu, suv, suv, svv})
	det := mat.Det(a)
	if math.Abs(det) <= taubinSingularDet {
		return fitCentroid(points)
	}

	b := mat.NewVecDense(2, []float64{(suuu + suvv) / 2, (svvv + svuu) / 2})
	var sol mat.VecDense
	if err := sol.SolveVec(a, b); err != nil {
		return fitCentroid(points)
	}

	uc, vc := sol.AtVec(0), sol.AtVec(1)
	r := math.Sqrt(uc*uc + vc*vc + (suu+svv)/n)
	cx, cy := meanX+uc, meanY+vc

	if !isFiniteCircle(cx, cy, r) || r <= 0 {
		return fitCentroid(points)
	}

	c := FittedCircle{CenterX: cx, CenterY: cy, Radius: r}
	c.Residual = rmsResidual(points, c)
	return c, nil
}

// fitCentroid is the least-squares fallback: center at the centroid, radius
// the mean distance to it.
func fitCentroid(points []Point) (FittedCircle, error) {
	if len(points) < 3 {
		return FittedCircle{}, ErrDegenerateFit
	}
	n := float64(len(points))
	var cx, cy float64
	for _, p := range points {
		cx += float64(p.X)
		cy += float64(p.Y)
	}
	cx /= n
	cy /= n

	var r float64
	for _, p := range points {
		dx := float64(p.X) - cx
		dy := float64(p.Y) - cy
		r += math.Hypot(dx, dy)
	}
	r /= n

	if !isFiniteCircle(cx, cy, r) || r <= 0 {
		return FittedCircle{}, ErrDegenerateFit
	}
	c := FittedCircle{CenterX: cx, CenterY: cy, Radius: r}
	c.Residual = rmsResidual(points, c)
	return c, nil
}

// FitCircleRANSAC fits a circle robustly by repeated exact fits on random
// 3-point samples, keeping the hypothesis with the most inliers (points
// within tolerancePx of the circle) and refitting on that inlier set.
//
// The sampler is seeded explicitly so runs stay deterministic. This variant
// is not part of the default detection flow; it exists for degraded inputs
// where outliers (clouds, foreground clutter) corrupt the algebraic fit.
func FitCircleRANSAC(points []Point, iterations int, tolerancePx float64, seed int64) (FittedCircle, error) {
	if len(points) < 3 {
		return FittedCircle{}, ErrDegenerateFit
	}
	if iterations <= 0 {
		iterations = 64
	}
	if tolerancePx <= 0 {
		tolerancePx = 2
	}

	rng := rand.New(rand.NewSource(seed))
	var bestInliers []Point

	for it := 0; it < iterations; it++ {
		i := rng.Intn(len(points))
		j := rng.Intn(len(points))
		k := rng.Intn(len(points))
		if i == j || j == k || i == k {
			continue
		}
		c, ok := circumcircle(points[i], points[j], points[k])
		if !ok {
			continue
		}
		var inliers []Point
		for _, p := range points {
			d := math.Hypot(float64(p.X)-c.CenterX, float64(p.Y)-c.CenterY)
			if math.Abs(d-c.Radius) <= tolerancePx {
				inliers = append(inliers, p)
			}
		}
		if len(inliers) > len(bestInliers) {
			bestInliers = inliers
		}
	}

	if len(bestInliers) < 3 {
		return FittedCircle{}, ErrDegenerateFit
	}
	return FitCircleTaubin(bestInliers)
}

// circumcircle computes the exact circle through three points. Returns
// false for (near-)collinear triples.
func circumcircle(p1, p2, p3 Point) (FittedCircle, bool) {
	ax, ay := float64(p1.X), float64(p1.Y)
	bx, by := float64(p2.X), float64(p2.Y)
	cx, cy := float64(p3.X), float64(p3.Y)

	d := 2 * (ax*(by-cy) + bx*(cy-ay) + cx*(ay-by))
	if math.Abs(d) < 1e-9 {
		return FittedCircle{}, false
	}
	a2 := ax*ax + ay*ay
	b2 := bx*bx + by*by
	c2 := cx*cx + cy*cy
	ux := (a2*(by-cy) + b2*(cy-ay) + c2*(ay-by)) / d
	uy := (a2*(cx-bx) + b2*(ax-cx) + c2*(bx-ax)) / d
	r := math.Hypot(ax-ux, ay-uy)
	if !isFiniteCircle(ux, uy, r) || r <= 0 {
		return FittedCircle{}, false
	}
	return FittedCircle{CenterX: ux, CenterY: uy, Radius: r}, true
}

// rmsResidual is the root-mean-square of point distance deviations from
// the circle. Non-negative by construction.
func rmsResidual(points []Point, c FittedCircle) float64 {
	if len(points) == 0 {
		return 0
	}
	var sum float64
	for _, p := range points {
		d := math.Hypot(float64(p.X)-c.CenterX, float64(p.Y)-c.CenterY)
		e := d - c.Radius
		sum += e * e
	}
	return math.Sqrt(sum / float64(len(points)))
}

func isFiniteCircle(cx, cy, r float64) bool {
	return !math.IsNaN(cx) && !math.IsInf(cx, 0) &&
		!math.IsNaN(cy) && !math.IsInf(cy, 0) &&
		!math.IsNaN(r) && !math.IsInf(r, 0)
}
