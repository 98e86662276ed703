package nn

import (
	"fmt"
	"math/rand"

	"github.com/jameshanlon/mnist-neural-net/internal/coords"
)

// Conv is a convolutional layer. Each feature map shares one bias and one
// weight kernel of shape [kernelW][kernelH][inDepth] across every spatial
// position, which is what distinguishes it from a dense layer of the same
// input size: far fewer parameters, translated across the image.
//
// Convolution is valid-mode (no padding), so the output spatial extent is
// input extent - kernel extent + 1. Neurons are addressed by (x, y, z) with z
// the feature-map index.
type Conv struct {
	act   Activation
	hyper Hyper

	kernelW, kernelH, kernelD int
	inW, inH, inD             int
	outW, outH                int
	numFeatureMaps            int

	weights [][][][]float32 // [fm][a][b][c]
	biases  []float32       // [fm]
	neurons [][][]*Neuron   // [fm][x][y]
	routed  [][]float32     // [mb][linear input index]

	pred      Layer
	successor Layer
}

// NewConv creates a convolutional layer with numFeatureMaps feature maps of
// kernelW x kernelH kernels over an inW x inH x inD input. The kernel depth
// always matches the input depth.
func NewConv(kernelW, kernelH, numFeatureMaps, inW, inH, inD int, act Activation, h Hyper) *Conv {
	if kernelW <= 0 || kernelH <= 0 {
		panic(fmt.Sprintf("conv: invalid kernel size %dx%d", kernelW, kernelH))
	}
	if numFeatureMaps <= 0 {
		panic(fmt.Sprintf("conv: invalid feature map count %d", numFeatureMaps))
	}
	if kernelW > inW || kernelH > inH {
		panic(fmt.Sprintf("conv: kernel %dx%d exceeds input %dx%d",
			kernelW, kernelH, inW, inH))
	}

	outW := inW - kernelW + 1
	outH := inH - kernelH + 1

	weights := make([][][][]float32, numFeatureMaps)
	neurons := make([][][]*Neuron, numFeatureMaps)
	for fm := range weights {
		weights[fm] = make([][][]float32, kernelW)
		for a := range weights[fm] {
			weights[fm][a] = make([][]float32, kernelH)
			for b := range weights[fm][a] {
				weights[fm][a][b] = make([]float32, inD)
			}
		}
		neurons[fm] = make([][]*Neuron, outW)
		for x := range neurons[fm] {
			neurons[fm][x] = make([]*Neuron, outH)
			for y := range neurons[fm][x] {
				neurons[fm][x][y] = newNeuron3D(x, y, fm, h.BatchSize)
			}
		}
	}

	routed := make([][]float32, h.BatchSize)
	for mb := range routed {
		routed[mb] = make([]float32, inW*inH*inD)
	}

	return &Conv{
		act:            act,
		hyper:          h,
		kernelW:        kernelW,
		kernelH:        kernelH,
		kernelD:        inD,
		inW:            inW,
		inH:            inH,
		inD:            inD,
		outW:           outW,
		outH:           outH,
		numFeatureMaps: numFeatureMaps,
		weights:        weights,
		biases:         make([]float32, numFeatureMaps),
		neurons:        neurons,
		routed:         routed,
	}
}

// SetPredecessor wires the upstream layer, checking its output size.
func (l *Conv) SetPredecessor(pred Layer) {
	checkInputSize("conv", pred, l.inW*l.inH*l.inD)
	l.pred = pred
}

// SetSuccessor wires the downstream layer.
func (l *Conv) SetSuccessor(succ Layer) {
	l.successor = succ
}

// InitWeights draws every kernel weight from N(0, 1) scaled by the inverse
// square root of the kernel volume, and each feature map's bias from N(0, 1).
func (l *Conv) InitWeights(rng *rand.Rand) {
	scale := sqrt32(float32(l.kernelW * l.kernelH * l.kernelD))
	for fm := range l.weights {
		for a := range l.weights[fm] {
			for b := range l.weights[fm][a] {
				for c := range l.weights[fm][a][b] {
					l.weights[fm][a][b][c] = float32(rng.NormFloat64()) / scale
				}
			}
		}
		l.biases[fm] = float32(rng.NormFloat64())
	}
}

// Forward slides each feature map's kernel over the predecessor's activations
// for slot mb: the neuron at (x, y, fm) accumulates inputs at (x+a, y+b, c)
// for every kernel offset (a, b, c), adds the feature map's bias, and applies
// the activation.
func (l *Conv) Forward(mb int) {
	for fm := 0; fm < l.numFeatureMaps; fm++ {
		for x := 0; x < l.outW; x++ {
			for y := 0; y < l.outH; y++ {
				sum := l.biases[fm]
				for a := 0; a < l.kernelW; a++ {
					for b := 0; b < l.kernelH; b++ {
						for c := 0; c < l.kernelD; c++ {
							in := l.pred.NeuronAt(x+a, y+b, c).Activations[mb]
							sum += in * l.weights[fm][a][b][c]
						}
					}
				}
				n := l.neurons[fm][x][y]
				n.WeightedInputs[mb] = sum
				n.Activations[mb] = l.act.Apply(sum)
			}
		}
	}
}

// ComputeRoutedError computes the error for every predecessor position as a
// gathered correlation: the inverse spatial mapping of the forward
// convolution. Predecessor position (x, y, z) sums, over feature maps and the
// kernel offsets (a, b) with a <= x, b <= y and (x-a, y-b) inside the output
// extent, weight[fm][a][b][z] times the error at output (x-a, y-b, fm).
func (l *Conv) ComputeRoutedError(mb int) {
	for x := 0; x < l.inW; x++ {
		for y := 0; y < l.inH; y++ {
			for z := 0; z < l.inD; z++ {
				var sum float32
				for fm := 0; fm < l.numFeatureMaps; fm++ {
					for a := 0; a < l.kernelW; a++ {
						if a > x || x-a >= l.outW {
							continue
						}
						for b := 0; b < l.kernelH; b++ {
							if b > y || y-b >= l.outH {
								continue
							}
							e := l.neurons[fm][x-a][y-b].Errors[mb]
							sum += l.weights[fm][a][b][z] * e
						}
					}
				}
				l.routed[mb][coords.Index(x, y, z, l.inW, l.inH)] = sum
			}
		}
	}
}

// Backward sets each neuron's error for slot mb from the successor's routed
// error, translated through the 1D adapter when the successor addresses its
// inputs linearly.
func (l *Conv) Backward(mb int) {
	oneDim := l.successor.NumDims() == 1
	for fm := 0; fm < l.numFeatureMaps; fm++ {
		for x := 0; x < l.outW; x++ {
			for y := 0; y < l.outH; y++ {
				n := l.neurons[fm][x][y]
				var e float32
				if oneDim {
					e = l.successor.RoutedError(coords.Index(x, y, fm, l.outW, l.outH), mb)
				} else {
					e = l.successor.RoutedErrorAt(x, y, fm, mb)
				}
				n.Errors[mb] = e * l.act.Derivative(n.WeightedInputs[mb])
			}
		}
	}
}

// Update applies one minibatch's accumulated gradient. Each kernel weight's
// gradient sums predecessor activation times error over every output position
// and every minibatch slot, then the decay-and-subtract rule of the dense
// layer applies. Each feature map's bias gradient sums errors over output
// positions and slots, with no decay.
func (l *Conv) Update(numTrainingSamples int) {
	rate := l.hyper.LearningRate
	decay := 1.0 - rate*(l.hyper.Lambda/float32(numTrainingSamples))
	batch := float32(l.hyper.BatchSize)

	for fm := 0; fm < l.numFeatureMaps; fm++ {
		for a := 0; a < l.kernelW; a++ {
			for b := 0; b < l.kernelH; b++ {
				for c := 0; c < l.kernelD; c++ {
					var grad float32
					for mb := 0; mb < l.hyper.BatchSize; mb++ {
						for x := 0; x < l.outW; x++ {
							for y := 0; y < l.outH; y++ {
								in := l.pred.NeuronAt(x+a, y+b, c).Activations[mb]
								grad += in * l.neurons[fm][x][y].Errors[mb]
							}
						}
					}
					w := l.weights[fm][a][b][c]
					l.weights[fm][a][b][c] = w*decay - grad*rate/batch
				}
			}
		}

		var biasGrad float32
		for mb := 0; mb < l.hyper.BatchSize; mb++ {
			for x := 0; x < l.outW; x++ {
				for y := 0; y < l.outH; y++ {
					biasGrad += l.neurons[fm][x][y].Errors[mb]
				}
			}
		}
		l.biases[fm] -= biasGrad * rate / batch
	}
}

// RoutedError is never legal on a conv layer: nothing 1D-addressed precedes a
// convolution.
func (l *Conv) RoutedError(int, int) float32 {
	panic("conv: routed error is addressed by coordinate")
}

// RoutedErrorAt returns the error routed to predecessor position (x, y, z)
// for slot mb.
func (l *Conv) RoutedErrorAt(x, y, z, mb int) float32 {
	return l.routed[mb][coords.Index(x, y, z, l.inW, l.inH)]
}

// Neuron maps a linear index onto the layer's 3D neurons, for 1D-addressed
// successors.
func (l *Conv) Neuron(i int) *Neuron {
	x := coords.X(i, l.outW)
	y := coords.Y(i, l.outW, l.outH)
	z := coords.Z(i, l.outW, l.outH)
	return l.neurons[z][x][y]
}

// NeuronAt returns the neuron at (x, y, z); z is the feature-map index.
func (l *Conv) NeuronAt(x, y, z int) *Neuron {
	return l.neurons[z][x][y]
}

// NumDims reports the conv layer's 3D addressing.
func (l *Conv) NumDims() int { return 3 }

// Dim returns the extent of axis i: output width, output height, feature map
// count.
func (l *Conv) Dim(i int) int {
	switch i {
	case 0:
		return l.outW
	case 1:
		return l.outH
	case 2:
		return l.numFeatureMaps
	}
	panic(fmt.Sprintf("conv: dimension %d out of range", i))
}

// Size returns the number of neurons across all feature maps.
func (l *Conv) Size() int { return l.numFeatureMaps * l.outW * l.outH }

// Weight returns the kernel weight at offset (a, b, c) for feature map fm.
func (l *Conv) Weight(fm, a, b, c int) float32 { return l.weights[fm][a][b][c] }

// SetWeight overrides a single kernel weight. Intended for tests and finite
// difference checks.
func (l *Conv) SetWeight(fm, a, b, c int, w float32) { l.weights[fm][a][b][c] = w }

// Bias returns the bias of feature map fm.
func (l *Conv) Bias(fm int) float32 { return l.biases[fm] }

// SetBias overrides a feature map's bias. Intended for tests.
func (l *Conv) SetBias(fm int, b float32) { l.biases[fm] = b }

// NumParams returns the length of the flattened parameter vector: every
// feature map's kernel in (a, b, c) order, then all biases.
func (l *Conv) NumParams() int {
	return l.numFeatureMaps * (l.kernelW*l.kernelH*l.kernelD + 1)
}

// AppendParams appends the flattened parameter vector to dst.
func (l *Conv) AppendParams(dst []float32) []float32 {
	for fm := range l.weights {
		for _, plane := range l.weights[fm] {
			for _, col := range plane {
				dst = append(dst, col...)
			}
		}
	}
	return append(dst, l.biases...)
}

// RestoreParams overwrites the kernels and biases from a flattened parameter
// vector. Panics on a length mismatch.
func (l *Conv) RestoreParams(src []float32) {
	if len(src) != l.NumParams() {
		panic(fmt.Sprintf("conv: parameter vector has %d values, layer has %d",
			len(src), l.NumParams()))
	}
	for fm := range l.weights {
		for _, plane := range l.weights[fm] {
			for _, col := range plane {
				copy(col, src[:len(col)])
				src = src[len(col):]
			}
		}
	}
	copy(l.biases, src)
}
