package nn

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jameshanlon/mnist-neural-net/internal/coords"
)

func ones(n int) []float32 {
	v := make([]float32, n)
	for i := range v {
		v[i] = 1.0
	}
	return v
}

// TestConvForward checks a 2x2 all-ones kernel over a 3x3 all-ones input:
// every output position accumulates 4.0 before activation.
func TestConvForward(t *testing.T) {
	input := NewInputLayer(3, 3, 1)
	layer := NewConv(2, 2, 1, 3, 3, 1, ReLU{}, testHyper(1))
	layer.SetPredecessor(input)
	for a := 0; a < 2; a++ {
		for b := 0; b < 2; b++ {
			layer.SetWeight(0, a, b, 0, 1.0)
		}
	}

	input.LoadSample(ones(9), 0)
	layer.Forward(0)

	require.Equal(t, 2, layer.Dim(0))
	require.Equal(t, 2, layer.Dim(1))
	for x := 0; x < 2; x++ {
		for y := 0; y < 2; y++ {
			n := layer.NeuronAt(x, y, 0)
			assert.InDelta(t, 4.0, n.WeightedInputs[0], 1e-6, "(%d,%d)", x, y)
			assert.InDelta(t, 4.0, n.Activations[0], 1e-6, "(%d,%d)", x, y)
		}
	}
}

// TestConvForwardSharedKernel checks that feature maps share parameters
// across positions: with a translated input, the response translates with it.
func TestConvForwardSharedKernel(t *testing.T) {
	input := NewInputLayer(4, 4, 1)
	layer := NewConv(2, 2, 1, 4, 4, 1, ReLU{}, testHyper(1))
	layer.SetPredecessor(input)
	layer.InitWeights(rand.New(rand.NewSource(3)))

	// A single bright pixel at (0, 0), then the same pixel at (1, 1).
	image := make([]float32, 16)
	image[0] = 1.0
	input.LoadSample(image, 0)
	layer.Forward(0)
	first := layer.NeuronAt(0, 0, 0).WeightedInputs[0]

	image[0] = 0.0
	image[1*4+1] = 1.0
	input.LoadSample(image, 0)
	layer.Forward(0)
	shifted := layer.NeuronAt(1, 1, 0).WeightedInputs[0]

	assert.InDelta(t, first, shifted, 1e-6)
}

// TestConvRoutedError checks the gathered correlation on the smallest case: a
// 2x2 kernel over a 2x2 input has one output neuron, so input position (x, y)
// receives exactly weight (x, y) times that neuron's error.
func TestConvRoutedError(t *testing.T) {
	layer := NewConv(2, 2, 1, 2, 2, 1, Sigmoid{}, testHyper(1))
	layer.SetWeight(0, 0, 0, 0, 0.1)
	layer.SetWeight(0, 1, 0, 0, 0.2)
	layer.SetWeight(0, 0, 1, 0, 0.3)
	layer.SetWeight(0, 1, 1, 0, 0.4)
	layer.NeuronAt(0, 0, 0).Errors[0] = 2.0

	layer.ComputeRoutedError(0)

	assert.InDelta(t, 0.2, layer.RoutedErrorAt(0, 0, 0, 0), 1e-6)
	assert.InDelta(t, 0.4, layer.RoutedErrorAt(1, 0, 0, 0), 1e-6)
	assert.InDelta(t, 0.6, layer.RoutedErrorAt(0, 1, 0, 0), 1e-6)
	assert.InDelta(t, 0.8, layer.RoutedErrorAt(1, 1, 0, 0), 1e-6)
}

// TestConvUpdate checks the shared-kernel gradient on the smallest case: with
// one output neuron, each kernel weight's gradient is the input activation
// under it times the output error.
func TestConvUpdate(t *testing.T) {
	h := Hyper{LearningRate: 0.5, Lambda: 0.0, BatchSize: 1}
	input := NewInputLayer(2, 2, 1)
	layer := NewConv(2, 2, 1, 2, 2, 1, Sigmoid{}, h)
	layer.SetPredecessor(input)
	layer.SetWeight(0, 1, 0, 0, 1.0)

	input.LoadSample([]float32{0.1, 0.2, 0.3, 0.4}, 0)
	layer.NeuronAt(0, 0, 0).Errors[0] = 2.0

	layer.Update(1000)

	// grad[a][b] = activation(a, b) * 2.0; lambda 0 means no decay.
	assert.InDelta(t, 0.0-0.1*2.0*0.5, layer.Weight(0, 0, 0, 0), 1e-6)
	assert.InDelta(t, 1.0-0.2*2.0*0.5, layer.Weight(0, 1, 0, 0), 1e-6)
	assert.InDelta(t, 0.0-0.3*2.0*0.5, layer.Weight(0, 0, 1, 0), 1e-6)
	assert.InDelta(t, 0.0-0.4*2.0*0.5, layer.Weight(0, 1, 1, 0), 1e-6)
}

// TestConvNeuronIndexing checks that the linear adapter and the coordinate
// accessor agree on every neuron.
func TestConvNeuronIndexing(t *testing.T) {
	layer := NewConv(3, 3, 2, 5, 5, 1, Sigmoid{}, testHyper(1))

	for i := 0; i < layer.Size(); i++ {
		n := layer.Neuron(i)
		assert.Same(t, layer.NeuronAt(n.X, n.Y, n.Z), n, "index %d", i)
		assert.Equal(t, i, coords.Index(n.X, n.Y, n.Z, layer.Dim(0), layer.Dim(1)))
	}
}

// TestConvConfigPanics checks that impossible geometry is caught at
// construction and wiring time.
func TestConvConfigPanics(t *testing.T) {
	require.Panics(t, func() { NewConv(5, 5, 1, 3, 3, 1, Sigmoid{}, testHyper(1)) })
	require.Panics(t, func() { NewConv(2, 2, 0, 3, 3, 1, Sigmoid{}, testHyper(1)) })

	layer := NewConv(2, 2, 1, 3, 3, 1, Sigmoid{}, testHyper(1))
	require.Panics(t, func() { layer.SetPredecessor(NewInputLayer(4, 4, 1)) })
	require.Panics(t, func() { layer.RoutedError(0, 0) })
	require.Panics(t, func() { layer.Dim(3) })
}
