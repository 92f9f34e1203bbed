package embedding

import "math"

// MeanPool averages token features into a single vector. Rows shorter
// than the first row are treated as a dimension mismatch.
func MeanPool(features [][]float64) ([]float64, error) {
	if len(features) == 0 || len(features[0]) == 0 {
		return nil, ErrNoFeatures
	}
	dim := len(features[0])
	out := make([]float64, dim)
	for _, row := range features {
		if len(row) != dim {
			return nil, ErrDimensionMismatch
		}
		for i, v := range row {
			out[i] += v
		}
	}
	n := float64(len(features))
	for i := range out {
		out[i] /= n
	}
	return out, nil
}

// Normalize scales vec in place to unit L2 length. A zero vector is
// left unchanged.
func Normalize(vec []float64) []float64 {
	norm := Norm(vec)
	if norm > 0 {
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}

// Norm returns the L2 length of vec.
func Norm(vec []float64) float64 {
	sum := 0.0
	for _, v := range vec {
		sum += v * v
	}
	return math.Sqrt(sum)
}
