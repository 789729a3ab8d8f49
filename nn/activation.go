package nn

import "math"

// Sigmoid is the logistic function 1/(1+e^-x). It is the only non-linearity in
// the network and saturates to 0 or 1 for inputs of large magnitude.
func Sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// SigmoidDeriv returns σ'(x) expressed through the activation a = σ(x), i.e. a(1-a).
func SigmoidDeriv(a float64) float64 {
	return a * (1 - a)
}
