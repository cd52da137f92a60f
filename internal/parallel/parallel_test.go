package parallel

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForRange_Sequential(t *testing.T) {
	var calls int64
	ForRange(100000, func(start, end int) {
		atomic.AddInt64(&calls, 1)
		assert.Equal(t, 0, start)
		assert.Equal(t, 100000, end)
	}, Sequential())

	assert.Equal(t, int64(1), calls)
}

func TestForRange_CoversEveryIndexOnce(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 4, MinChunkSize: 8}

	n := 103
	hits := make([]int32, n)
	ForRange(n, func(start, end int) {
		for i := start; i < end; i++ {
			atomic.AddInt32(&hits[i], 1)
		}
	}, cfg)

	for i, h := range hits {
		require.Equal(t, int32(1), h, "index %d", i)
	}
}

func TestForRange_Empty(t *testing.T) {
	called := false
	ForRange(0, func(_, _ int) { called = true }, DefaultConfig())
	assert.False(t, called)
}

func TestSum_MatchesSequential(t *testing.T) {
	data := make([]float64, 5000)
	for i := range data {
		data[i] = float64(i%17) * 0.25
	}
	partial := func(start, end int) float64 {
		var s float64
		for i := start; i < end; i++ {
			s += data[i]
		}
		return s
	}

	seq := Sum(len(data), partial, Sequential())
	par := Sum(len(data), partial, Config{Enabled: true, NumWorkers: 7, MinChunkSize: 16})

	assert.InDelta(t, seq, par, 1e-9)
}

func TestSum_Deterministic(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 8, MinChunkSize: 4}
	partial := func(start, end int) float64 {
		var s float64
		for i := start; i < end; i++ {
			s += 1.0 / float64(i+1)
		}
		return s
	}

	first := Sum(1000, partial, cfg)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, Sum(1000, partial, cfg))
	}
}
