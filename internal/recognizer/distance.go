package recognizer

import "math"

// EuclideanDistance computes the straight-line distance between two vectors.
// Returns +Inf for mismatched or empty inputs so callers treat them as
// "matches nothing" rather than a spurious near-zero distance.
func EuclideanDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(1)
	}

	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}

	return math.Sqrt(sum)
}
