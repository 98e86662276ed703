package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jameshanlon/mnist-neural-net/internal/nn"
)

func testParams(batchSize int) Params {
	return Params{
		LearningRate: 0.5,
		Lambda:       0.0,
		BatchSize:    batchSize,
		Epochs:       1,
		Seed:         1,
	}
}

// newTestNet builds a small dense pipeline: 2 pixels, 3 hidden units, 2
// classes.
func newTestNet(p Params) (*Network, *nn.Dense, *nn.Softmax) {
	h := p.Hyper()
	input := nn.NewInputLayer(2, 1, p.BatchSize)
	hidden := nn.NewDense(3, 2, nn.Sigmoid{}, h)
	out := nn.NewSoftmax(2, 3, nn.CrossEntropy{}, h)
	return New(p, input, hidden, out), hidden, out
}

// costOf runs a forward pass for the sample in slot 0 and returns its cost.
func (n *Network) costOf(image []float32, label uint8) float32 {
	n.input.LoadSample(image, 0)
	n.Forward(0)
	return n.output.ComputeOutputCost(label, 0)
}

func TestNewTopologyPanics(t *testing.T) {
	p := testParams(1)
	h := p.Hyper()
	input := nn.NewInputLayer(2, 1, 1)

	require.Panics(t, func() { New(p, input) }, "no layers")
	require.Panics(t, func() {
		New(p, input, nn.NewDense(3, 2, nn.Sigmoid{}, h))
	}, "last layer not softmax")
	require.Panics(t, func() {
		New(p, input, nn.NewSoftmax(2, 5, nn.CrossEntropy{}, h))
	}, "boundary size mismatch")
	require.Panics(t, func() {
		New(p, input,
			nn.NewDense(3, 2, nn.Sigmoid{}, h),
			nn.NewSoftmax(2, 4, nn.CrossEntropy{}, h))
	}, "interior boundary size mismatch")
}

func TestUpdateMiniBatchSizePanics(t *testing.T) {
	net, _, _ := newTestNet(testParams(2))

	require.Panics(t, func() {
		net.UpdateMiniBatch([][]float32{{0, 0}}, []uint8{0}, 10)
	})
}

// TestBackpropGradients validates every analytic gradient of a small network
// against central finite differences of the cost.
func TestBackpropGradients(t *testing.T) {
	net, hidden, out := newTestNet(testParams(1))

	image := []float32{0.3, 0.9}
	label := uint8(1)
	net.Backprop(image, label, 0)

	// Capture the analytic gradients before forward passes for the numeric
	// estimates overwrite the per-slot state. For any weight w[j][i], the
	// gradient is the predecessor's activation i times the owning neuron's
	// error j; for a bias it is the error alone.
	type grad struct {
		analytic float32
		perturb  func(delta float32)
	}
	var grads []grad
	for j := 0; j < out.Size(); j++ {
		e := out.Neuron(j).Errors[0]
		grads = append(grads, grad{
			analytic: e,
			perturb: func(d float32) { out.SetBias(j, out.Bias(j)+d) },
		})
		for i := 0; i < hidden.Size(); i++ {
			grads = append(grads, grad{
				analytic: hidden.Neuron(i).Activations[0] * e,
				perturb:  func(d float32) { out.SetWeight(j, i, out.Weight(j, i)+d) },
			})
		}
	}
	for j := 0; j < hidden.Size(); j++ {
		e := hidden.Neuron(j).Errors[0]
		grads = append(grads, grad{
			analytic: e,
			perturb: func(d float32) { hidden.SetBias(j, hidden.Bias(j)+d) },
		})
		for i := 0; i < 2; i++ {
			grads = append(grads, grad{
				analytic: image[i] * e,
				perturb:  func(d float32) { hidden.SetWeight(j, i, hidden.Weight(j, i)+d) },
			})
		}
	}

	const eps = 1e-2
	for k, g := range grads {
		g.perturb(eps)
		plus := net.costOf(image, label)
		g.perturb(-2 * eps)
		minus := net.costOf(image, label)
		g.perturb(eps)

		numeric := (plus - minus) / (2 * eps)
		assert.InDelta(t, g.analytic, numeric, 2e-3, "parameter %d", k)
	}
}

// TestDeterministicFromSeed checks that two networks built and trained with
// the same seed end up with identical parameters.
func TestDeterministicFromSeed(t *testing.T) {
	data := xorishData(16)

	p := testParams(4)
	p.Epochs = 3
	a, _, outA := newTestNet(p)
	b, _, outB := newTestNet(p)

	a.SGD(data, nil)
	b.SGD(data, nil)

	for j := 0; j < outA.Size(); j++ {
		assert.Equal(t, outA.Bias(j), outB.Bias(j), "bias %d", j)
		for i := 0; i < 3; i++ {
			assert.Equal(t, outA.Weight(j, i), outB.Weight(j, i), "weight %d %d", j, i)
		}
	}
}

// xorishData builds a linearly separable two-class set over two pixels: class
// 0 lights the first pixel, class 1 the second, with deterministic jitter.
func xorishData(n int) Data {
	images := make([][]float32, n)
	labels := make([]uint8, n)
	for i := range images {
		jitter := float32(i%4) * 0.05
		if i%2 == 0 {
			images[i] = []float32{1.0 - jitter, jitter}
			labels[i] = 0
		} else {
			images[i] = []float32{jitter, 1.0 - jitter}
			labels[i] = 1
		}
	}
	return Data{TrainingImages: images, TrainingLabels: labels}
}
