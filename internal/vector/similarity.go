package vector

import "math"

// InnerProduct returns a·b, or 0 when the lengths differ. Stored vectors are unit
// length, so this is their cosine similarity.
func InnerProduct(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot float64
	for i, v := range a {
		dot += float64(v) * float64(b[i])
	}
	return dot
}

// L2Norm returns the Euclidean length of x.
func L2Norm(x []float32) float64 {
	var sum float64
	for _, v := range x {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}

// Normalize scales x to unit length in place and returns its original length.
// Zero and non-finite vectors are left unchanged.
func Normalize(x []float32) float64 {
	n := L2Norm(x)
	if n == 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return n
	}
	inv := 1 / n
	for i, v := range x {
		x[i] = float32(float64(v) * inv)
	}
	return n
}
