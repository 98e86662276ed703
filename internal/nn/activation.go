package nn

import "math"

// Activation is an element-wise non-linearity applied to a neuron's weighted
// input. Implementations are stateless and chosen once at layer construction.
type Activation interface {
	// Apply computes the activation for weighted input z.
	Apply(z float32) float32
	// Derivative computes the derivative of the activation at weighted
	// input z, as needed by backpropagation.
	Derivative(z float32) float32
}

// Sigmoid is the logistic activation: f(z) = 1 / (1 + exp(-z)).
type Sigmoid struct{}

// Apply computes 1 / (1 + exp(-z)).
func (Sigmoid) Apply(z float32) float32 {
	return 1.0 / (1.0 + exp32(-z))
}

// Derivative computes f(z) * (1 - f(z)).
func (Sigmoid) Derivative(z float32) float32 {
	s := 1.0 / (1.0 + exp32(-z))
	return s * (1.0 - s)
}

// ReLU is the rectified linear activation: f(z) = max(0, z).
type ReLU struct{}

// Apply computes max(0, z).
func (ReLU) Apply(z float32) float32 {
	if z > 0 {
		return z
	}
	return 0
}

// Derivative is 1 for z > 0 and 0 otherwise.
func (ReLU) Derivative(z float32) float32 {
	if z > 0 {
		return 1
	}
	return 0
}

// Computation is single-precision throughout; the float64 detour is only for
// the stdlib math calls.

func exp32(x float32) float32 {
	return float32(math.Exp(float64(x)))
}

func log32(x float32) float32 {
	return float32(math.Log(float64(x)))
}

func sqrt32(x float32) float32 {
	return float32(math.Sqrt(float64(x)))
}
