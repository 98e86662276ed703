package nn

// Neuron is the per-unit state store of the network.
//
// Each neuron is addressed either by a linear index (1D layers) or by an
// (x, y, z) coordinate (3D layers), and holds three parallel arrays sized by
// the minibatch capacity: the weighted input (pre-activation), the activation,
// and the error. WeightedInputs[mb] and Errors[mb] are only defined after the
// forward and backward pass for slot mb have run; the arrays are reused across
// minibatches without clearing because a forward pass fully overwrites its
// slot before anything reads it.
//
// Distinct minibatch slots are always touched by distinct goroutines, so all
// access is O(1) and lock-free.
type Neuron struct {
	Index   int
	X, Y, Z int

	WeightedInputs []float32 // [batchSize]
	Activations    []float32 // [batchSize]
	Errors         []float32 // [batchSize]
}

// newNeuron creates a 1D-addressed neuron with state arrays sized for
// batchSize minibatch slots.
func newNeuron(index, batchSize int) *Neuron {
	return &Neuron{
		Index:          index,
		WeightedInputs: make([]float32, batchSize),
		Activations:    make([]float32, batchSize),
		Errors:         make([]float32, batchSize),
	}
}

// newNeuron3D creates a 3D-addressed neuron with state arrays sized for
// batchSize minibatch slots.
func newNeuron3D(x, y, z, batchSize int) *Neuron {
	return &Neuron{
		X:              x,
		Y:              y,
		Z:              z,
		WeightedInputs: make([]float32, batchSize),
		Activations:    make([]float32, batchSize),
		Errors:         make([]float32, batchSize),
	}
}
