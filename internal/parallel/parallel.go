// Package parallel provides chunked parallel loops for elementwise tree arithmetic.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled.
	NumWorkers   int  // Number of worker goroutines to use.
	MinChunkSize int  // Minimum items per goroutine to avoid overhead.
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 4096, // Elementwise float64 work is cheap; keep chunks large.
	}
}

// Sequential returns a configuration that never spawns goroutines.
func Sequential() Config {
	return Config{Enabled: false, NumWorkers: 1, MinChunkSize: 1}
}

// chunkSize returns the chunk length used for n items, or n when the work
// should run sequentially.
func (c Config) chunkSize(n int) int {
	if !c.Enabled || c.NumWorkers <= 1 || n < c.MinChunkSize {
		return n
	}
	return max((n+c.NumWorkers-1)/c.NumWorkers, c.MinChunkSize)
}

// ForRange splits [0, n) into contiguous chunks and calls f(start, end) for
// each chunk, concurrently when cfg allows it.
// Falls back to a single sequential call if parallelism is disabled or n is too small.
func ForRange(n int, f func(start, end int), cfg Config) {
	if n <= 0 {
		return
	}
	size := cfg.chunkSize(n)
	if size >= n {
		f(0, n)
		return
	}

	var wg sync.WaitGroup
	for start := 0; start < n; start += size {
		end := min(start+size, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			f(s, e)
		}(start, end)
	}
	wg.Wait()
}

// Sum reduces [0, n) by calling partial(start, end) per chunk and adding the
// partial results in chunk order. The chunk layout depends only on n and cfg,
// so the result is reproducible for a fixed configuration.
func Sum(n int, partial func(start, end int) float64, cfg Config) float64 {
	if n <= 0 {
		return 0
	}
	size := cfg.chunkSize(n)
	if size >= n {
		return partial(0, n)
	}

	numChunks := (n + size - 1) / size
	partials := make([]float64, numChunks)
	ForRange(n, func(start, end int) {
		partials[start/size] = partial(start, end)
	}, cfg)

	var total float64
	for _, p := range partials {
		total += p
	}
	return total
}
