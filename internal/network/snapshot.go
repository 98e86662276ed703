package network

import (
	"fmt"

	"github.com/jameshanlon/mnist-neural-net/internal/nn"
)

// ParamVectors returns one flattened parameter vector per parameterized
// layer, in chain order. Layers without trainable state, such as pooling,
// contribute nothing. The vectors are copies: mutating them does not touch
// the network.
func (n *Network) ParamVectors() [][]float32 {
	var vectors [][]float32
	for _, layer := range n.layers {
		p, ok := layer.(nn.Parameterized)
		if !ok {
			continue
		}
		vectors = append(vectors, p.AppendParams(make([]float32, 0, p.NumParams())))
	}
	return vectors
}

// SetParamVectors restores parameter vectors previously captured with
// ParamVectors. The vectors must come from a network with the same topology.
// Mismatches are returned as errors rather than panics, since the usual
// source is a checkpoint file rather than the running program.
func (n *Network) SetParamVectors(vectors [][]float32) error {
	var params []nn.Parameterized
	for _, layer := range n.layers {
		if p, ok := layer.(nn.Parameterized); ok {
			params = append(params, p)
		}
	}
	if len(vectors) != len(params) {
		return fmt.Errorf("network: %d parameter vectors for %d parameterized layers",
			len(vectors), len(params))
	}
	for i, p := range params {
		if len(vectors[i]) != p.NumParams() {
			return fmt.Errorf("network: layer %d parameter vector has %d values, want %d",
				i, len(vectors[i]), p.NumParams())
		}
		p.RestoreParams(vectors[i])
	}
	return nil
}
