package id

import (
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMonotonicNonZeroID(t *testing.T) {
	gen, err := MonotonicNonZeroID()
	require.NoError(t, err)
	prev := uint64(0)
	for i := 0; i < 1000; i++ {
		n := gen.Number()
		require.Greater(t, n, prev)
		prev = n
	}
	s, err := strconv.ParseUint(gen.Str(), 10, 64)
	require.NoError(t, err)
	require.Equal(t, prev+1, s)
}

func TestMonotonicNonZeroIDFrom(t *testing.T) {
	gen, err := MonotonicNonZeroIDFrom(100, 10)
	require.NoError(t, err)
	require.Equal(t, uint64(110), gen.Number())
	require.Equal(t, uint64(120), gen.Number())

	_, err = MonotonicNonZeroIDFrom(1, 0)
	require.Error(t, err)
}

func TestMonotonicNonZeroID_SkipZero(t *testing.T) {
	gen, err := MonotonicNonZeroIDFrom(^uint64(0)-1, 1)
	require.NoError(t, err)
	require.Equal(t, ^uint64(0), gen.Number())
	require.Equal(t, uint64(1), gen.Number())
}

func TestMonotonicNonZeroID_Concurrent(t *testing.T) {
	gen, err := MonotonicNonZeroID()
	require.NoError(t, err)

	const workers, each = 8, 1000
	results := make([][]uint64, workers)
	wg := sync.WaitGroup{}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < each; i++ {
				results[w] = append(results[w], gen.Number())
			}
		}(w)
	}
	wg.Wait()

	seen := make(map[uint64]struct{}, workers*each)
	for _, rs := range results {
		for _, n := range rs {
			seen[n] = struct{}{}
		}
	}
	require.Len(t, seen, workers*each)
}
