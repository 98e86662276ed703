package nn

import (
	"fmt"
	"math"
	"math/rand"
)

// Softmax is the terminal, normalized-output layer. Like a dense layer it
// carries one weight vector and bias per class, but its forward pass computes
// raw weighted inputs only and then normalizes them into a probability
// distribution:
//
//	a[c] = exp(z[c]) / sum_k exp(z[k])
//
// The weighted inputs are shifted by their maximum before exponentiation so
// large values cannot overflow; the quotient is unchanged.
//
// The layer never acts as a predecessor: its error comes from the cost rule
// via ComputeOutputError rather than from a successor, and Backward and
// SetSuccessor panic.
type Softmax struct {
	cost     Cost
	hyper    Hyper
	prevSize int
	neurons  []*Neuron
	weights  [][]float32 // [class][predecessor]
	biases   []float32   // [class]
	routed   [][]float32 // [mb][predecessor]
	pred     Layer
}

// NewSoftmax creates a softmax output layer with one neuron per class over a
// predecessor with prevSize outputs.
func NewSoftmax(classes, prevSize int, cost Cost, h Hyper) *Softmax {
	if classes <= 0 || prevSize <= 0 {
		panic(fmt.Sprintf("softmax: invalid size %d or input size %d", classes, prevSize))
	}

	neurons := make([]*Neuron, classes)
	weights := make([][]float32, classes)
	for i := range neurons {
		neurons[i] = newNeuron(i, h.BatchSize)
		weights[i] = make([]float32, prevSize)
	}
	routed := make([][]float32, h.BatchSize)
	for mb := range routed {
		routed[mb] = make([]float32, prevSize)
	}

	return &Softmax{
		cost:     cost,
		hyper:    h,
		prevSize: prevSize,
		neurons:  neurons,
		weights:  weights,
		biases:   make([]float32, classes),
		routed:   routed,
	}
}

// SetPredecessor wires the upstream layer, checking its output size.
func (l *Softmax) SetPredecessor(pred Layer) {
	checkInputSize("softmax", pred, l.prevSize)
	l.pred = pred
}

// SetSuccessor is never legal: the softmax layer terminates the pipeline.
func (l *Softmax) SetSuccessor(Layer) {
	panic("softmax: output layer cannot have a successor")
}

// InitWeights draws every weight from N(0, 1) scaled by 1/sqrt(fan-in), and
// every bias from N(0, 1).
func (l *Softmax) InitWeights(rng *rand.Rand) {
	scale := sqrt32(float32(l.prevSize))
	for j := range l.weights {
		for i := range l.weights[j] {
			l.weights[j][i] = float32(rng.NormFloat64()) / scale
		}
		l.biases[j] = float32(rng.NormFloat64())
	}
}

// Forward computes each class's weighted input for slot mb and normalizes the
// exponentials into activations summing to 1.
func (l *Softmax) Forward(mb int) {
	maxz := float32(math.Inf(-1))
	for j, n := range l.neurons {
		sum := l.biases[j]
		w := l.weights[j]
		for i := range w {
			sum += l.pred.Neuron(i).Activations[mb] * w[i]
		}
		n.WeightedInputs[mb] = sum
		if sum > maxz {
			maxz = sum
		}
	}

	var total float32
	for _, n := range l.neurons {
		total += exp32(n.WeightedInputs[mb] - maxz)
	}
	for _, n := range l.neurons {
		n.Activations[mb] = exp32(n.WeightedInputs[mb]-maxz) / total
	}
}

// ComputeRoutedError computes the weighted error sum for every predecessor
// unit for slot mb.
func (l *Softmax) ComputeRoutedError(mb int) {
	for i := 0; i < l.prevSize; i++ {
		var sum float32
		for j, n := range l.neurons {
			sum += l.weights[j][i] * n.Errors[mb]
		}
		l.routed[mb][i] = sum
	}
}

// Backward is never legal: the output error comes from ComputeOutputError.
func (l *Softmax) Backward(int) {
	panic("softmax: output error comes from the cost rule, not a successor")
}

// ComputeOutputError sets each class's error for slot mb from the cost rule
// against the one-hot encoding of label.
func (l *Softmax) ComputeOutputError(label uint8, mb int) {
	for j, n := range l.neurons {
		var y float32
		if int(label) == j {
			y = 1
		}
		n.Errors[mb] = l.cost.Delta(n.WeightedInputs[mb], n.Activations[mb], y)
	}
}

// ComputeOutputCost evaluates the cost of slot mb's predicted distribution
// against the one-hot encoding of label.
func (l *Softmax) ComputeOutputCost(label uint8, mb int) float32 {
	var total float32
	for j, n := range l.neurons {
		var y float32
		if int(label) == j {
			y = 1
		}
		total += l.cost.Value(n.Activations[mb], y)
	}
	return total
}

// ReadOutput returns the predicted class for slot mb: the index of the
// maximum activation, ties broken by the first occurrence.
func (l *Softmax) ReadOutput(mb int) int {
	best := float32(math.Inf(-1))
	result := 0
	for j, n := range l.neurons {
		if n.Activations[mb] > best {
			best = n.Activations[mb]
			result = j
		}
	}
	return result
}

// SumSquaredWeights returns the sum of squares of all weights, used for the
// L2 regularization term in reported cost.
func (l *Softmax) SumSquaredWeights() float32 {
	var total float32
	for _, w := range l.weights {
		for _, v := range w {
			total += v * v
		}
	}
	return total
}

// Update applies one minibatch's accumulated gradient, with the same
// decay-and-subtract rule as the dense layer.
func (l *Softmax) Update(numTrainingSamples int) {
	rate := l.hyper.LearningRate
	decay := 1.0 - rate*(l.hyper.Lambda/float32(numTrainingSamples))
	batch := float32(l.hyper.BatchSize)

	for j, n := range l.neurons {
		w := l.weights[j]
		for i := range w {
			var grad float32
			predActs := l.pred.Neuron(i).Activations
			for mb := 0; mb < l.hyper.BatchSize; mb++ {
				grad += predActs[mb] * n.Errors[mb]
			}
			w[i] = w[i]*decay - grad*rate/batch
		}

		var biasGrad float32
		for mb := 0; mb < l.hyper.BatchSize; mb++ {
			biasGrad += n.Errors[mb]
		}
		l.biases[j] -= biasGrad * rate / batch
	}
}

// RoutedError returns the error routed to predecessor unit i for slot mb.
func (l *Softmax) RoutedError(i, mb int) float32 {
	return l.routed[mb][i]
}

// RoutedErrorAt is never legal: predecessors translate their coordinates to a
// linear index before asking.
func (l *Softmax) RoutedErrorAt(int, int, int, int) float32 {
	panic("softmax: routed error is addressed by linear index")
}

// Neuron returns the neuron with linear index i.
func (l *Softmax) Neuron(i int) *Neuron { return l.neurons[i] }

// NeuronAt is not meaningful for a 1D layer.
func (l *Softmax) NeuronAt(int, int, int) *Neuron {
	panic("softmax: neurons are addressed by linear index")
}

// NumDims reports the softmax layer's 1D addressing.
func (l *Softmax) NumDims() int { return 1 }

// Dim returns the class count for axis 0.
func (l *Softmax) Dim(i int) int {
	if i != 0 {
		panic(fmt.Sprintf("softmax: dimension %d out of range", i))
	}
	return len(l.neurons)
}

// Size returns the number of classes.
func (l *Softmax) Size() int { return len(l.neurons) }

// Weight returns the weight from predecessor unit i to class j.
func (l *Softmax) Weight(j, i int) float32 { return l.weights[j][i] }

// SetWeight overrides a single weight. Intended for tests and finite
// difference checks.
func (l *Softmax) SetWeight(j, i int, w float32) { l.weights[j][i] = w }

// Bias returns the bias of class j.
func (l *Softmax) Bias(j int) float32 { return l.biases[j] }

// SetBias overrides a class's bias. Intended for tests.
func (l *Softmax) SetBias(j int, b float32) { l.biases[j] = b }

// NumParams returns the length of the flattened parameter vector: every
// class's weight row, then all biases.
func (l *Softmax) NumParams() int {
	return len(l.neurons)*l.prevSize + len(l.biases)
}

// AppendParams appends the flattened parameter vector to dst.
func (l *Softmax) AppendParams(dst []float32) []float32 {
	for _, w := range l.weights {
		dst = append(dst, w...)
	}
	return append(dst, l.biases...)
}

// RestoreParams overwrites the weights and biases from a flattened parameter
// vector. Panics on a length mismatch.
func (l *Softmax) RestoreParams(src []float32) {
	if len(src) != l.NumParams() {
		panic(fmt.Sprintf("softmax: parameter vector has %d values, layer has %d",
			len(src), l.NumParams()))
	}
	for _, w := range l.weights {
		copy(w, src[:len(w)])
		src = src[len(w):]
	}
	copy(l.biases, src)
}
