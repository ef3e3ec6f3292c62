package vector

import "math"

// Embed maps text to a unit vector of length dim by counting each byte at a
// position-shifted bucket. It is deterministic and dependency free, which is
// enough for demo similarity but carries no semantics.
func Embed(text string, dim int) []float32 {
	if dim <= 0 {
		dim = DefaultDim
	}

	acc := make([]float64, dim)
	for idx, b := range []byte(text) {
		acc[(int(b)+idx)%dim]++
	}

	var sum float64
	for _, v := range acc {
		sum += v * v
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		norm = 1
	}

	out := make([]float32, dim)
	for i, v := range acc {
		out[i] = float32(v / norm)
	}
	return out
}
