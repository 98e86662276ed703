package network

import "math/rand"

// Monitor receives progress notifications during SGD. It is called after
// every MonitorInterval minibatches and at the end of every epoch (with
// batch == numBatches), on the training goroutine, so it may safely call the
// network's read-only evaluation methods. A nil Monitor disables reporting.
type Monitor func(epoch, batch, numBatches int)

// SGD runs the full stochastic gradient descent loop over the training data.
//
// Each epoch identically permutes the training images and labels using a
// fresh seed drawn from the network's generator, partitions them into
// batch-size minibatches, and applies one weight update per minibatch. A
// trailing partial minibatch is dropped, since the per-slot error buffers are
// averaged over the full batch size.
func (n *Network) SGD(data Data, monitor Monitor) {
	images := data.TrainingImages
	labels := data.TrainingLabels
	checkSampleCounts(images, labels)

	bs := n.params.BatchSize
	numBatches := len(images) / bs

	for epoch := 0; epoch < n.params.Epochs; epoch++ {
		images, labels = shufflePairs(images, labels, n.rng.Int63())

		for batch := 0; batch < numBatches; batch++ {
			start := batch * bs
			n.UpdateMiniBatch(images[start:start+bs], labels[start:start+bs], len(images))
			if monitor != nil && n.params.MonitorInterval > 0 &&
				batch%n.params.MonitorInterval == 0 {
				monitor(epoch, batch, numBatches)
			}
		}
		if monitor != nil {
			monitor(epoch, numBatches, numBatches)
		}
	}
}

// shufflePairs applies one random permutation to both slices, preserving the
// image/label pairing. The inputs are not modified.
func shufflePairs(images [][]float32, labels []uint8, seed int64) ([][]float32, []uint8) {
	perm := rand.New(rand.NewSource(seed)).Perm(len(images))
	shuffledImages := make([][]float32, len(images))
	shuffledLabels := make([]uint8, len(labels))
	for i, j := range perm {
		shuffledImages[i] = images[j]
		shuffledLabels[i] = labels[j]
	}
	return shuffledImages, shuffledLabels
}
