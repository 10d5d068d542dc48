package nn

import "math"

// SwishScale is the output gain applied by Swish. The value is chosen so
// that the activation has approximately unit variance gain under orthogonal
// initialization, which keeps activation magnitudes stable through many
// stacked layers at step zero. Changing it invalidates checkpoints.
const SwishScale = 1.6768

// Swish computes dst[i] = x[i] * sigmoid(x[i]) * SwishScale.
// dst and x may be the same slice.
func Swish(dst, x []float64) {
	for i, v := range x {
		dst[i] = v * sigmoid(v) * SwishScale
	}
}

// SwishBackward computes the gradient of Swish with respect to its input:
// dst[i] = grad[i] * sigmoid(x[i]) * (1 + x[i]*(1-sigmoid(x[i]))) * SwishScale.
// x must be the pre-activation input that was passed to Swish; the sigmoid
// is recomputed here rather than cached during the forward pass.
// dst and grad may be the same slice.
func SwishBackward(dst, x, grad []float64) {
	for i, v := range x {
		s := sigmoid(v)
		dst[i] = grad[i] * s * (1 + v*(1-s)) * SwishScale
	}
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
