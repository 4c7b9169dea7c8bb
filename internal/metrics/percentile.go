package metrics

import "math"

// Percentile returns the p-th percentile of an ascending slice using linear
// interpolation between the closest ranks: index = p/100 * (n-1).
// An empty slice yields 0.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p == 50 {
		return Median(sorted)
	}
	return interpolate(sorted, p)
}

// interpolate applies the closest-rank interpolation for any p. Percentile
// routes p == 50 through Median; for that p both give the same bits.
func interpolate(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}

	index := (p / 100) * float64(n-1)
	lower := math.Floor(index)
	upper := math.Ceil(index)
	weight := index - lower

	if lower == upper {
		return sorted[int(lower)]
	}
	return sorted[int(lower)]*(1-weight) + sorted[int(upper)]*weight
}

// Median returns the middle value of an ascending slice, or the mean of the
// two middle values for even lengths.
func Median(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	mid := n / 2
	if n%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
