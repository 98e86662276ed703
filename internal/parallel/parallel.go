// Package parallel provides bounded data-parallel loops for the training
// engine.
//
// The engine has two embarrassingly parallel phases: the per-slot
// forward/backward passes within a minibatch, and the evaluation of accuracy
// or cost over a dataset. Both are expressed as a loop over disjoint indices,
// so For and Sum partition the index range across a fixed pool of goroutines
// and join before returning.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls worker fan-out for parallel loops.
type Config struct {
	Enabled  bool // Whether parallel execution is enabled.
	Workers  int  // Number of worker goroutines to use.
	MinChunk int  // Minimum items per goroutine to avoid overhead.
}

// DefaultConfig returns a configuration sized to the available hardware
// threads. MinChunk is 1 because the loop bodies here (a full network
// forward/backward pass per index) dwarf goroutine overhead.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:  n > 1,
		Workers:  n,
		MinChunk: 1,
	}
}

// Sequential returns a configuration that disables worker fan-out. Useful in
// tests that need deterministic single-goroutine execution.
func Sequential() Config {
	return Config{Enabled: false, Workers: 1, MinChunk: 1}
}

// For executes f(i) for every i in [0, n), partitioned across workers, and
// returns once all calls have completed. f must only touch state owned by its
// index. Falls back to a sequential loop when parallelism is disabled or n is
// too small to split.
func For(n int, f func(i int), cfg Config) {
	if !cfg.Enabled || n <= cfg.MinChunk {
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}

	chunk := max((n+cfg.Workers-1)/cfg.Workers, cfg.MinChunk)

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				f(i)
			}
		}(start, end)
	}
	wg.Wait()
}

// Sum reduces f over [0, n): it computes f(0) + f(1) + ... + f(n-1) with the
// same partitioning as For. Each worker accumulates a local partial sum;
// partials are combined after the join, so no locking is required.
func Sum[T int | float32](n int, f func(i int) T, cfg Config) T {
	var total T
	if !cfg.Enabled || n <= cfg.MinChunk {
		for i := 0; i < n; i++ {
			total += f(i)
		}
		return total
	}

	chunk := max((n+cfg.Workers-1)/cfg.Workers, cfg.MinChunk)
	numChunks := (n + chunk - 1) / chunk
	partials := make([]T, numChunks)

	var wg sync.WaitGroup
	for c := 0; c < numChunks; c++ {
		start := c * chunk
		end := min(start+chunk, n)
		wg.Add(1)
		go func(c, s, e int) {
			defer wg.Done()
			var sum T
			for i := s; i < e; i++ {
				sum += f(i)
			}
			partials[c] = sum
		}(c, start, end)
	}
	wg.Wait()

	for _, p := range partials {
		total += p
	}
	return total
}
