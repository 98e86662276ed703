package network

import (
	"fmt"

	"github.com/jameshanlon/mnist-neural-net/internal/parallel"
)

// Accuracy returns the number of correctly classified samples. Samples are
// processed in minibatch-sized chunks so the fixed per-slot neuron buffers
// are reused, with a parallel reduction over each chunk.
func (n *Network) Accuracy(images [][]float32, labels []uint8) int {
	checkSampleCounts(images, labels)

	correct := 0
	for start := 0; start < len(images); start += n.params.BatchSize {
		end := min(start+n.params.BatchSize, len(images))
		correct += parallel.Sum(end-start, func(mb int) int {
			if n.Predict(images[start+mb], mb) == int(labels[start+mb]) {
				return 1
			}
			return 0
		}, n.pool)
	}
	return correct
}

// TotalCost returns the average cost of the network over the samples plus the
// L2 regularization term 0.5 * (lambda/n) * sum of squared weights. Chunked
// and reduced like Accuracy.
func (n *Network) TotalCost(images [][]float32, labels []uint8) float32 {
	checkSampleCounts(images, labels)

	numSamples := float32(len(images))
	cost := 0.5 * (n.params.Lambda / numSamples) * n.output.SumSquaredWeights()
	for start := 0; start < len(images); start += n.params.BatchSize {
		end := min(start+n.params.BatchSize, len(images))
		cost += parallel.Sum(end-start, func(mb int) float32 {
			n.input.LoadSample(images[start+mb], mb)
			n.Forward(mb)
			return n.output.ComputeOutputCost(labels[start+mb], mb) / numSamples
		}, n.pool)
	}
	return cost
}

func checkSampleCounts(images [][]float32, labels []uint8) {
	if len(images) != len(labels) {
		panic(fmt.Sprintf("network: %d images but %d labels", len(images), len(labels)))
	}
}
