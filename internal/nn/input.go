package nn

import (
	"fmt"
	"math/rand"
)

// InputLayer holds one neuron per pixel of the raster input, addressed by
// (x, y, 0). It has no parameters and no upstream: its only job is to expose a
// loaded sample's pixel intensities as activations to the first hidden layer.
// Every other Layer operation panics, since a call to one indicates the input
// layer was wired somewhere it cannot be.
type InputLayer struct {
	width, height int
	neurons       []*Neuron // x-innermost, matching image[y*width+x]
}

// NewInputLayer creates an input layer for width x height single-channel
// images, with neuron state sized for batchSize minibatch slots.
func NewInputLayer(width, height, batchSize int) *InputLayer {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("input: invalid image size %dx%d", width, height))
	}
	if batchSize <= 0 {
		panic(fmt.Sprintf("input: invalid batch size %d", batchSize))
	}

	neurons := make([]*Neuron, width*height)
	for i := range neurons {
		neurons[i] = newNeuron3D(i%width, i/width, 0, batchSize)
	}
	return &InputLayer{width: width, height: height, neurons: neurons}
}

// LoadSample copies a pixel vector into the activations for minibatch slot mb.
// The image is row-major: image[y*width+x]. Panics if the image size does not
// match the layer.
func (l *InputLayer) LoadSample(image []float32, mb int) {
	if len(image) != len(l.neurons) {
		panic(fmt.Sprintf("input: image has %d pixels, layer expects %d",
			len(image), len(l.neurons)))
	}
	for i, v := range image {
		l.neurons[i].Activations[mb] = v
	}
}

// Neuron returns the neuron with linear index i.
func (l *InputLayer) Neuron(i int) *Neuron {
	return l.neurons[i]
}

// NeuronAt returns the neuron at pixel (x, y). The input image has depth 1, so
// z must be 0.
func (l *InputLayer) NeuronAt(x, y, z int) *Neuron {
	if z != 0 {
		panic(fmt.Sprintf("input: image has depth 1, got z=%d", z))
	}
	return l.neurons[y*l.width+x]
}

// NumDims reports the input layer's 3D addressing.
func (l *InputLayer) NumDims() int { return 3 }

// Dim returns the extent of axis i: width, height, 1.
func (l *InputLayer) Dim(i int) int {
	switch i {
	case 0:
		return l.width
	case 1:
		return l.height
	case 2:
		return 1
	}
	panic(fmt.Sprintf("input: dimension %d out of range", i))
}

// Size returns the number of pixels.
func (l *InputLayer) Size() int { return len(l.neurons) }

// The input layer terminates the chain upstream; none of the remaining Layer
// operations can legally reach it.

func (l *InputLayer) InitWeights(*rand.Rand) { panic("input: no weights to initialize") }
func (l *InputLayer) Forward(int)            { panic("input: no predecessor to feed forward from") }
func (l *InputLayer) ComputeRoutedError(int) { panic("input: cannot route error upstream") }
func (l *InputLayer) Backward(int)           { panic("input: cannot backpropagate") }
func (l *InputLayer) Update(int)             { panic("input: no parameters to update") }
func (l *InputLayer) SetPredecessor(Layer)   { panic("input: cannot have a predecessor") }
func (l *InputLayer) SetSuccessor(Layer)     { panic("input: cannot have a successor") }
func (l *InputLayer) RoutedError(int, int) float32 {
	panic("input: does not route errors")
}
func (l *InputLayer) RoutedErrorAt(int, int, int, int) float32 {
	panic("input: does not route errors")
}
