package nn

// Cost scores the output layer's predicted distribution against a one-hot
// encoded label, and supplies the matching output-error rule. Implementations
// are stateless and chosen once when the output layer is constructed.
type Cost interface {
	// Value is the cost contribution of a single output unit, given its
	// activation and the one-hot label component y (0 or 1). The per-sample
	// cost is the sum of Value over all output units.
	Value(activation, y float32) float32
	// Delta is the output error term for a single output unit, given its
	// weighted input z, its activation, and the one-hot label component y.
	Delta(z, activation, y float32) float32
}

// CrossEntropy is the categorical cross-entropy cost. Combined with a softmax
// output it yields the simplified gradient a - y, which avoids the learning
// slowdown of the quadratic cost on saturated units.
type CrossEntropy struct{}

// Value computes -y * ln(a). Summed over a one-hot label this is -ln(a[label]).
func (CrossEntropy) Value(activation, y float32) float32 {
	if y == 0 {
		return 0
	}
	return -y * log32(activation)
}

// Delta computes a - y.
func (CrossEntropy) Delta(_, activation, y float32) float32 {
	return activation - y
}

// Quadratic is the squared-error cost with the sigmoid-derivative-weighted
// residual as its error rule.
type Quadratic struct{}

// Value computes 0.5 * (a - y)^2.
func (Quadratic) Value(activation, y float32) float32 {
	d := activation - y
	return 0.5 * d * d
}

// Delta computes (a - y) * sigmoid'(z).
func (Quadratic) Delta(z, activation, y float32) float32 {
	return (activation - y) * Sigmoid{}.Derivative(z)
}
