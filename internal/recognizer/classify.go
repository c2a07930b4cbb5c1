package recognizer

import "math"

// Match is the outcome of classifying one probe vector.
type Match struct {
	Identified bool
	Name       string
	Confidence int     // always an integer in [0, 100]
	Distance   float64 // nearest-neighbor distance, +Inf when no matcher existed
}

// Classify finds the nearest labeled vector to the probe. Below the
// threshold the confidence scales with how far inside the threshold the
// distance landed; at or above it the face is Unknown but the confidence
// still reports how close it came, clipped at distance 1.0. The two
// branches use different scales on purpose: accepted matches are rated
// against the threshold, rejected ones against the raw distance.
//
// A nil snapshot classifies everything as Unknown with confidence 0.
func (s *Snapshot) Classify(vec []float32, threshold float64) Match {
	if s == nil || len(s.vectors) == 0 {
		return Match{Name: UnknownLabel, Distance: math.Inf(1)}
	}

	best := math.Inf(1)
	bestLabel := UnknownLabel
	for i, sample := range s.vectors {
		// Strict less-than keeps the earliest enrolled sample on ties.
		if d := EuclideanDistance(vec, sample); d < best {
			best = d
			bestLabel = s.labels[i]
		}
	}

	if best < threshold {
		return Match{
			Identified: true,
			Name:       bestLabel,
			Confidence: confidence(1 - best/threshold),
			Distance:   best,
		}
	}

	return Match{
		Name:       UnknownLabel,
		Confidence: confidence(1 - math.Min(1, best)),
		Distance:   best,
	}
}

// confidence clips v to [0, 1] and floors it onto the 0-100 scale.
func confidence(v float64) int {
	if v < 0 {
		v = 0
	}
	return int(math.Floor(v * 100))
}
