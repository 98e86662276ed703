package network

import "github.com/jameshanlon/mnist-neural-net/internal/nn"

// Params holds the process-level hyperparameters of a training run.
type Params struct {
	LearningRate float32
	Lambda       float32 // L2 regularization coefficient.
	BatchSize    int
	Epochs       int
	Seed         int64

	// MonitorInterval is the number of minibatches between monitoring
	// callbacks during SGD; 0 restricts monitoring to epoch boundaries.
	MonitorInterval int
}

// Hyper returns the per-layer subset of the hyperparameters, as needed by
// layer constructors.
func (p Params) Hyper() nn.Hyper {
	return nn.Hyper{
		LearningRate: p.LearningRate,
		Lambda:       p.Lambda,
		BatchSize:    p.BatchSize,
	}
}

// Data holds the sample sets of a training run. Images are fixed-length
// vectors of intensities in [0, 1] in row-major pixel order; labels are class
// indices. The validation and test sets may be empty.
type Data struct {
	TrainingImages [][]float32
	TrainingLabels []uint8

	ValidationImages [][]float32
	ValidationLabels []uint8

	TestImages [][]float32
	TestLabels []uint8
}
