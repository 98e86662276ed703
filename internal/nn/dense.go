package nn

import (
	"fmt"
	"math/rand"
)

// Dense is a fully connected layer: every neuron carries one weight per
// predecessor unit plus a bias, and is addressed by a single linear index.
//
// Forward: a[j] = act(sum_i w[j][i] * pred_a[i] + b[j])
// Error routing: routed[i] = sum_j w[j][i] * e[j]
// Update: minibatch-averaged gradient with multiplicative L2 weight decay.
type Dense struct {
	act       Activation
	hyper     Hyper
	prevSize  int
	neurons   []*Neuron
	weights   [][]float32 // [neuron][predecessor]
	biases    []float32   // [neuron]
	routed    [][]float32 // [mb][predecessor]
	pred      Layer
	successor Layer
}

// NewDense creates a fully connected layer of size neurons over a predecessor
// with prevSize outputs.
func NewDense(size, prevSize int, act Activation, h Hyper) *Dense {
	if size <= 0 || prevSize <= 0 {
		panic(fmt.Sprintf("dense: invalid size %d or input size %d", size, prevSize))
	}

	neurons := make([]*Neuron, size)
	weights := make([][]float32, size)
	for i := range neurons {
		neurons[i] = newNeuron(i, h.BatchSize)
		weights[i] = make([]float32, prevSize)
	}
	routed := make([][]float32, h.BatchSize)
	for mb := range routed {
		routed[mb] = make([]float32, prevSize)
	}

	return &Dense{
		act:      act,
		hyper:    h,
		prevSize: prevSize,
		neurons:  neurons,
		weights:  weights,
		biases:   make([]float32, size),
		routed:   routed,
	}
}

// SetPredecessor wires the upstream layer, checking its output size.
func (l *Dense) SetPredecessor(pred Layer) {
	checkInputSize("dense", pred, l.prevSize)
	l.pred = pred
}

// SetSuccessor wires the downstream layer.
func (l *Dense) SetSuccessor(succ Layer) {
	l.successor = succ
}

// InitWeights draws every weight from N(0, 1) scaled by 1/sqrt(fan-in), and
// every bias from N(0, 1).
func (l *Dense) InitWeights(rng *rand.Rand) {
	scale := sqrt32(float32(l.prevSize))
	for j := range l.weights {
		for i := range l.weights[j] {
			l.weights[j][i] = float32(rng.NormFloat64()) / scale
		}
		l.biases[j] = float32(rng.NormFloat64())
	}
}

// Forward computes weighted inputs and activations for minibatch slot mb.
func (l *Dense) Forward(mb int) {
	for j, n := range l.neurons {
		sum := l.biases[j]
		w := l.weights[j]
		for i := range w {
			sum += l.pred.Neuron(i).Activations[mb] * w[i]
		}
		n.WeightedInputs[mb] = sum
		n.Activations[mb] = l.act.Apply(sum)
	}
}

// ComputeRoutedError computes the weighted error sum for every predecessor
// unit for slot mb.
func (l *Dense) ComputeRoutedError(mb int) {
	for i := 0; i < l.prevSize; i++ {
		var sum float32
		for j, n := range l.neurons {
			sum += l.weights[j][i] * n.Errors[mb]
		}
		l.routed[mb][i] = sum
	}
}

// Backward sets this layer's errors for slot mb from the successor's routed
// error and the activation derivative at the layer's own weighted inputs.
func (l *Dense) Backward(mb int) {
	for _, n := range l.neurons {
		e := l.successor.RoutedError(n.Index, mb)
		n.Errors[mb] = e * l.act.Derivative(n.WeightedInputs[mb])
	}
}

// Update applies one minibatch's accumulated gradient. Each weight first
// shrinks by the L2 decay factor 1 - rate*(lambda/n), then subtracts the
// minibatch-averaged activation-times-error gradient scaled by the learning
// rate. Biases are updated from the averaged error alone, with no decay.
func (l *Dense) Update(numTrainingSamples int) {
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
func (l *Dense) RoutedError(i, mb int) float32 {
	return l.routed[mb][i]
}

// RoutedErrorAt is never legal on a dense layer: a 3D-addressed predecessor
// translates its coordinates to a linear index before asking.
func (l *Dense) RoutedErrorAt(int, int, int, int) float32 {
	panic("dense: routed error is addressed by linear index")
}

// Neuron returns the neuron with linear index i.
func (l *Dense) Neuron(i int) *Neuron { return l.neurons[i] }

// NeuronAt is not meaningful for a 1D layer.
func (l *Dense) NeuronAt(int, int, int) *Neuron {
	panic("dense: neurons are addressed by linear index")
}

// NumDims reports the dense layer's 1D addressing.
func (l *Dense) NumDims() int { return 1 }

// Dim returns the layer size for axis 0.
func (l *Dense) Dim(i int) int {
	if i != 0 {
		panic(fmt.Sprintf("dense: dimension %d out of range", i))
	}
	return len(l.neurons)
}

// Size returns the number of neurons.
func (l *Dense) Size() int { return len(l.neurons) }

// Weight returns the weight from predecessor unit i to neuron j.
func (l *Dense) Weight(j, i int) float32 { return l.weights[j][i] }

// SetWeight overrides a single weight. Intended for tests and finite
// difference checks.
func (l *Dense) SetWeight(j, i int, w float32) { l.weights[j][i] = w }

// Bias returns the bias of neuron j.
func (l *Dense) Bias(j int) float32 { return l.biases[j] }

// SetBias overrides a single bias. Intended for tests.
func (l *Dense) SetBias(j int, b float32) { l.biases[j] = b }

// NumParams returns the length of the flattened parameter vector: every
// neuron's weight row, then all biases.
func (l *Dense) NumParams() int {
	return len(l.neurons)*l.prevSize + len(l.biases)
}

// AppendParams appends the flattened parameter vector to dst.
func (l *Dense) AppendParams(dst []float32) []float32 {
	for _, w := range l.weights {
		dst = append(dst, w...)
	}
	return append(dst, l.biases...)
}

// RestoreParams overwrites the weights and biases from a flattened parameter
// vector. Panics on a length mismatch.
func (l *Dense) RestoreParams(src []float32) {
	if len(src) != l.NumParams() {
		panic(fmt.Sprintf("dense: parameter vector has %d values, layer has %d",
			len(src), l.NumParams()))
	}
	for _, w := range l.weights {
		copy(w, src[:len(w)])
		src = src[len(w):]
	}
	copy(l.biases, src)
}
