package plane

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Histogram256 bins the plane's samples into 256 luma bins. Samples are
// assumed to lie in [0,1]; out-of-range values land in the end bins.
func Histogram256(p *Plane) []int {
	hist := make([]int, 256)
	for _, v := range p.Pix {
		bin := int(v * 255)
		bin = clampInt(bin, 0, 255)
		hist[bin]++
	}
	return hist
}

// Percentile returns the q-th quantile (q in [0,1]) of the values. The
// input slice is copied before sorting, so callers keep their ordering.
// Returns 0 for an empty slice.
func Percentile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return stat.Quantile(q, stat.Empirical, sorted, nil)
}

// Median returns the 0.5 quantile of the values, or 0 for an empty slice.
func Median(values []float64) float64 {
	return Percentile(values, 0.5)
}

// MeanStd returns the mean and standard deviation of the values.
// Returns (0,0) for an empty slice and (mean,0) for a single value.
func MeanStd(values []float64) (mean, std float64) {
	if len(values) == 0 {
		return 0, 0
	}
	if len(values) == 1 {
		return values[0], 0
	}
	mean, std = stat.MeanStdDev(values, nil)
	return mean, std
}
