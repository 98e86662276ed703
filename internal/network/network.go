// Package network assembles layers into a feed-forward pipeline and drives
// training: full forward passes, per-sample backpropagation, minibatch weight
// updates, and the epoch-level stochastic gradient descent loop.
package network

import (
	"fmt"
	"math/rand"

	"github.com/jameshanlon/mnist-neural-net/internal/nn"
	"github.com/jameshanlon/mnist-neural-net/internal/parallel"
)

// Network owns an ordered chain of layers plus a dedicated input layer. The
// final layer is always the softmax output layer. A single pseudo-random
// generator, seeded once at construction, is the sole source of weight
// initialization randomness and per-epoch shuffle ordering, so runs are
// reproducible from the seed.
type Network struct {
	params Params
	input  *nn.InputLayer
	layers []nn.Layer
	output *nn.Softmax
	rng    *rand.Rand
	pool   parallel.Config
}

// New wires the given layers into a pipeline behind the input layer and
// initializes their weights. The last layer must be the softmax output layer;
// adjacent layers must agree on sizes (each SetPredecessor checks). Both
// conditions are structural configuration errors and panic.
func New(params Params, input *nn.InputLayer, layers ...nn.Layer) *Network {
	if len(layers) == 0 {
		panic("network: no layers")
	}
	output, ok := layers[len(layers)-1].(*nn.Softmax)
	if !ok {
		panic(fmt.Sprintf("network: output layer must be softmax, got %T",
			layers[len(layers)-1]))
	}

	rng := rand.New(rand.NewSource(params.Seed))

	// Wire predecessors and initialize weights in chain order, then wire
	// successors. SetPredecessor validates the size of each boundary.
	layers[0].SetPredecessor(input)
	layers[0].InitWeights(rng)
	for i := 1; i < len(layers); i++ {
		layers[i].SetPredecessor(layers[i-1])
		layers[i].InitWeights(rng)
	}
	for i := 0; i < len(layers)-1; i++ {
		layers[i].SetSuccessor(layers[i+1])
	}

	return &Network{
		params: params,
		input:  input,
		layers: layers,
		output: output,
		rng:    rng,
		pool:   parallel.DefaultConfig(),
	}
}

// Forward runs a full forward pass for minibatch slot mb, invoking every
// layer in chain order. The input layer's activations for the slot must
// already be loaded.
func (n *Network) Forward(mb int) {
	for _, layer := range n.layers {
		layer.Forward(mb)
	}
}

// Backprop loads a sample into slot mb, runs a forward pass, then propagates
// the output error backwards: the cost rule sets the output layer's errors,
// and each hidden layer in reverse order derives its errors from its
// successor's routed error. Only slot mb's state is touched, so distinct
// slots can run concurrently; parameters are read-only throughout.
func (n *Network) Backprop(image []float32, label uint8, mb int) {
	n.input.LoadSample(image, mb)
	n.Forward(mb)

	n.output.ComputeOutputError(label, mb)
	n.output.ComputeRoutedError(mb)
	for i := len(n.layers) - 2; i > 0; i-- {
		n.layers[i].Backward(mb)
		n.layers[i].ComputeRoutedError(mb)
	}
	// The first hidden layer needs no further routing: the input layer has
	// no parameters to train.
	if len(n.layers) > 1 {
		n.layers[0].Backward(mb)
	}
}

// UpdateMiniBatch runs Backprop for every sample of the minibatch in
// parallel, one slot per sample, then applies every layer's weight update in
// reverse chain order. The parallel loop joins before any update starts, and
// no forward pass for the next minibatch begins until all updates complete.
func (n *Network) UpdateMiniBatch(images [][]float32, labels []uint8, numTrainingSamples int) {
	if len(images) != n.params.BatchSize || len(labels) != n.params.BatchSize {
		panic(fmt.Sprintf("network: minibatch has %d images and %d labels, batch size is %d",
			len(images), len(labels), n.params.BatchSize))
	}

	parallel.For(len(images), func(mb int) {
		n.Backprop(images[mb], labels[mb], mb)
	}, n.pool)

	for i := len(n.layers) - 1; i >= 0; i-- {
		n.layers[i].Update(numTrainingSamples)
	}
}

// Predict loads a sample into slot mb, runs a forward pass and returns the
// predicted class.
func (n *Network) Predict(image []float32, mb int) int {
	n.input.LoadSample(image, mb)
	n.Forward(mb)
	return n.output.ReadOutput(mb)
}

// Output returns the softmax output layer.
func (n *Network) Output() *nn.Softmax { return n.output }

// SetParallelism overrides the worker configuration used for minibatch and
// evaluation loops. Intended for tests.
func (n *Network) SetParallelism(cfg parallel.Config) { n.pool = cfg }
