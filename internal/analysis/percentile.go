package analysis

import (
	"math"
	"sort"
)

// velocityCutoff returns the velocity value at the given percentile of the
// table's velocity distribution, using linear interpolation between ranks.
func velocityCutoff(velocities []float64, percentile float64) float64 {
	if len(velocities) == 0 {
		return 0
	}

	sorted := make([]float64, len(velocities))
	copy(sorted, velocities)
	sort.Float64s(sorted)

	return percentileValue(sorted, percentile)
}

// percentileValue calculates the value at a given percentile (0.0-1.0) of
// an already sorted slice.
func percentileValue(sorted []float64, percentile float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	if percentile <= 0 {
		return sorted[0]
	}
	if percentile >= 1 {
		return sorted[n-1]
	}

	index := percentile * float64(n-1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))

	if lower == upper {
		return sorted[lower]
	}

	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}
