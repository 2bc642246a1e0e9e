package pipeline

import (
	"math"
	"sort"
)

// Quantile returns the q-th quantile of vals using linear interpolation
// between the closest ranks at position q*(n-1). ok is false for an empty
// input, which callers treat as "no bound".
func Quantile(vals []float64, q float64) (v float64, ok bool) {
	if len(vals) == 0 {
		return 0, false
	}
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	return quantileSorted(sorted, q), true
}

func quantileSorted(sorted []float64, q float64) float64 {
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	// Interpolate from the nearer end so equal neighbours give back the value exactly.
	d := sorted[hi] - sorted[lo]
	if w >= 0.5 {
		return sorted[hi] - d*(1-w)
	}
	return sorted[lo] + d*w
}
