// Package nn implements the layers of a feed-forward neural network for image
// classification, together with the activation and cost strategies that
// parameterize them.
//
// Every layer owns a collection of Neurons and implements the Layer contract:
// a forward pass, backward error routing, and a minibatch weight update, all
// addressed per minibatch slot so that the slots of one minibatch can be
// processed concurrently. Four trainable/structural variants exist (Dense,
// Conv, MaxPool and Softmax) plus the Input layer that feeds the chain.
package nn

import (
	"fmt"
	"math/rand"
)

// Hyper holds the hyperparameters a layer needs at construction time.
// BatchSize fixes the minibatch capacity of every neuron state array;
// LearningRate and Lambda (the L2 regularization coefficient) drive the
// weight update rule.
type Hyper struct {
	LearningRate float32
	Lambda       float32
	BatchSize    int
}

// Layer is the uniform contract implemented by every layer variant.
//
// A layer is wired to its neighbours once, at network assembly, through
// SetPredecessor and SetSuccessor. During training the orchestrator drives
// Forward and Backward per minibatch slot and Update once per minibatch.
// Operations that are not meaningful for a variant (for example routing error
// through the input layer, or giving the terminal layer a successor) panic:
// such a call indicates a structurally invalid pipeline, not a recoverable
// condition.
type Layer interface {
	// InitWeights fills the layer's weight and bias tensors from rng with
	// normally distributed values scaled by the inverse square root of the
	// fan-in. No-op for layers without parameters.
	InitWeights(rng *rand.Rand)

	// Forward computes the weighted inputs and activations of every neuron
	// in the layer for minibatch slot mb, reading only the predecessor's
	// activations for the same slot. Safe to call concurrently for distinct
	// slots.
	Forward(mb int)

	// ComputeRoutedError computes, for every predecessor unit, the weighted
	// sum of this layer's errors for slot mb, and stores it in a layer-local
	// buffer served through RoutedError and RoutedErrorAt.
	ComputeRoutedError(mb int)

	// Backward sets this layer's errors for slot mb: the error routed from
	// the successor multiplied by the activation derivative at this layer's
	// own weighted inputs.
	Backward(mb int)

	// Update applies the gradient accumulated across all minibatch slots to
	// the layer's weights and biases, after shrinking the weights by the L2
	// decay factor derived from numTrainingSamples. Never called mid-batch.
	Update(numTrainingSamples int)

	// SetPredecessor wires the upstream layer. Panics if the predecessor's
	// output size does not match this layer's expected input size.
	SetPredecessor(Layer)
	// SetSuccessor wires the downstream layer.
	SetSuccessor(Layer)

	// RoutedError returns the error routed to the predecessor unit with
	// linear index i, for slot mb.
	RoutedError(i, mb int) float32
	// RoutedErrorAt is the coordinate-addressed form of RoutedError.
	RoutedErrorAt(x, y, z, mb int) float32

	// Neuron returns the neuron with linear index i, translating to the
	// layer's native addressing if necessary.
	Neuron(i int) *Neuron
	// NeuronAt returns the neuron at coordinate (x, y, z).
	NeuronAt(x, y, z int) *Neuron

	// NumDims reports the layer's native addressing scheme: 1 or 3.
	NumDims() int
	// Dim returns the extent of axis i.
	Dim(i int) int
	// Size returns the number of neurons in the layer.
	Size() int
}

// Parameterized is implemented by the layer variants that carry trainable
// state. The parameter vector is the layer's own stable flattening, weights
// first, biases last, so a vector written by AppendParams on one process can
// be restored by RestoreParams on another with the same topology.
type Parameterized interface {
	Layer

	// NumParams returns the length of the layer's parameter vector.
	NumParams() int
	// AppendParams appends the parameter vector to dst and returns the
	// extended slice.
	AppendParams(dst []float32) []float32
	// RestoreParams overwrites the layer's parameters from a vector
	// previously produced by AppendParams. A length mismatch means the
	// vector belongs to a different topology and panics.
	RestoreParams(src []float32)
}

// checkInputSize panics unless the wired predecessor's output size matches the
// size the layer was constructed for. Called from every SetPredecessor, so a
// size mismatch is caught once, at network assembly.
func checkInputSize(kind string, pred Layer, want int) {
	if pred.Size() != want {
		panic(fmt.Sprintf("%s: predecessor has %d outputs, layer expects %d inputs",
			kind, pred.Size(), want))
	}
}
