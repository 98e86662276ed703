package nn

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/jameshanlon/mnist-neural-net/internal/coords"
)

// MaxPool partitions the predecessor's spatial extent into non-overlapping
// poolW x poolH windows and outputs the maximum activation of each window,
// per feature map. It carries no parameters and computes no error array of
// its own: the backward path serves the successor's routed error directly to
// the predecessor position that won the forward max, and zero to every other
// position in the window.
type MaxPool struct {
	poolW, poolH  int
	inW, inH, inD int
	outW, outH    int
	batchSize     int

	neurons [][][]*Neuron // [x][y][z]
	argmax  [][][][]int   // [x][y][z][mb] -> linear input index of the max

	pred      Layer
	successor Layer
}

// NewMaxPool creates a max-pooling layer with poolW x poolH windows over an
// inW x inH x inD input. The windows must tile the input exactly.
func NewMaxPool(poolW, poolH, inW, inH, inD int, h Hyper) *MaxPool {
	if poolW <= 0 || poolH <= 0 {
		panic(fmt.Sprintf("maxpool: invalid window size %dx%d", poolW, poolH))
	}
	if inW%poolW != 0 || inH%poolH != 0 {
		panic(fmt.Sprintf("maxpool: %dx%d windows do not tile %dx%d input",
			poolW, poolH, inW, inH))
	}

	outW := inW / poolW
	outH := inH / poolH

	neurons := make([][][]*Neuron, outW)
	argmax := make([][][][]int, outW)
	for x := range neurons {
		neurons[x] = make([][]*Neuron, outH)
		argmax[x] = make([][][]int, outH)
		for y := range neurons[x] {
			neurons[x][y] = make([]*Neuron, inD)
			argmax[x][y] = make([][]int, inD)
			for z := range neurons[x][y] {
				neurons[x][y][z] = newNeuron3D(x, y, z, h.BatchSize)
				argmax[x][y][z] = make([]int, h.BatchSize)
			}
		}
	}

	return &MaxPool{
		poolW:     poolW,
		poolH:     poolH,
		inW:       inW,
		inH:       inH,
		inD:       inD,
		outW:      outW,
		outH:      outH,
		batchSize: h.BatchSize,
		neurons:   neurons,
		argmax:    argmax,
	}
}

// SetPredecessor wires the upstream layer, checking its output size.
func (l *MaxPool) SetPredecessor(pred Layer) {
	checkInputSize("maxpool", pred, l.inW*l.inH*l.inD)
	l.pred = pred
}

// SetSuccessor wires the downstream layer.
func (l *MaxPool) SetSuccessor(succ Layer) {
	l.successor = succ
}

// InitWeights is a no-op: pooling carries no parameters.
func (l *MaxPool) InitWeights(*rand.Rand) {}

// Forward takes the maximum predecessor activation over each pooling window
// for slot mb, recording which input position won so the backward path can
// route error to it alone.
func (l *MaxPool) Forward(mb int) {
	for x := 0; x < l.outW; x++ {
		for y := 0; y < l.outH; y++ {
			for z := 0; z < l.inD; z++ {
				best := float32(math.Inf(-1))
				bestIndex := 0
				for a := 0; a < l.poolW; a++ {
					for b := 0; b < l.poolH; b++ {
						ix := x*l.poolW + a
						iy := y*l.poolH + b
						in := l.pred.NeuronAt(ix, iy, z).Activations[mb]
						if in > best {
							best = in
							bestIndex = coords.Index(ix, iy, z, l.inW, l.inH)
						}
					}
				}
				l.neurons[x][y][z].Activations[mb] = best
				l.argmax[x][y][z][mb] = bestIndex
			}
		}
	}
}

// ComputeRoutedError is a no-op: the pooled error is served on demand by
// RoutedErrorAt, straight from the successor.
func (l *MaxPool) ComputeRoutedError(int) {}

// Backward is a no-op: pooling has no weighted inputs, so no error array of
// its own.
func (l *MaxPool) Backward(int) {}

// Update is a no-op: pooling carries no parameters.
func (l *MaxPool) Update(int) {}

// RoutedError is never legal on a pooling layer: nothing 1D-addressed
// precedes it.
func (l *MaxPool) RoutedError(int, int) float32 {
	panic("maxpool: routed error is addressed by coordinate")
}

// RoutedErrorAt forwards the successor's error for the pooled coordinate
// covering input position (x, y, z), but only to the position that produced
// the forward maximum. Every other position in the window receives zero, the
// standard winner-take-all max-pool gradient.
func (l *MaxPool) RoutedErrorAt(x, y, z, mb int) float32 {
	px := x / l.poolW
	py := y / l.poolH
	if l.argmax[px][py][z][mb] != coords.Index(x, y, z, l.inW, l.inH) {
		return 0
	}
	if l.successor.NumDims() == 1 {
		return l.successor.RoutedError(coords.Index(px, py, z, l.outW, l.outH), mb)
	}
	return l.successor.RoutedErrorAt(px, py, z, mb)
}

// Neuron maps a linear index onto the layer's 3D neurons, for 1D-addressed
// successors.
func (l *MaxPool) Neuron(i int) *Neuron {
	x := coords.X(i, l.outW)
	y := coords.Y(i, l.outW, l.outH)
	z := coords.Z(i, l.outW, l.outH)
	return l.neurons[x][y][z]
}

// NeuronAt returns the neuron at (x, y, z).
func (l *MaxPool) NeuronAt(x, y, z int) *Neuron {
	return l.neurons[x][y][z]
}

// NumDims reports the pooling layer's 3D addressing.
func (l *MaxPool) NumDims() int { return 3 }

// Dim returns the extent of axis i: output width, output height, depth.
func (l *MaxPool) Dim(i int) int {
	switch i {
	case 0:
		return l.outW
	case 1:
		return l.outH
	case 2:
		return l.inD
	}
	panic(fmt.Sprintf("maxpool: dimension %d out of range", i))
}

// Size returns the number of pooled neurons.
func (l *MaxPool) Size() int { return l.outW * l.outH * l.inD }
