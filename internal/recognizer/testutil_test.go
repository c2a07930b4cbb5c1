package recognizer

// testVector returns a DescriptorSize-length vector with the first
// component set to v and the rest zero. Euclidean distance between two
// such vectors is simply the difference of their first components.
func testVector(v float32) []float32 {
	vec := make([]float32, DescriptorSize)
	vec[0] = v
	return vec
}
