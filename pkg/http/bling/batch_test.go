package bling

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapInBatchesKeepsOrder(t *testing.T) {
	items := lo.Range(11)
	out, err := MapInBatches(context.Background(), items, 3, func(_ context.Context, i int) (int, error) {
		// later items finish first inside a chunk
		time.Sleep(time.Duration(3-i%3) * time.Millisecond)
		return i * 10, nil
	})

	require.NoError(t, err)
	assert.Equal(t, lo.Map(items, func(i int, _ int) int { return i * 10 }), out)
}

func TestMapInBatchesBoundsConcurrency(t *testing.T) {
	const size = 2

	var inFlight, maxSeen atomic.Int32
	var mu sync.Mutex
	finished := map[int]bool{}

	_, err := MapInBatches(context.Background(), lo.Range(7), size, func(_ context.Context, i int) (struct{}, error) {
		// every item of the previous chunk is done before this chunk starts
		mu.Lock()
		for prev := 0; prev < (i/size)*size; prev++ {
			assert.True(t, finished[prev], "item %d started before %d finished", i, prev)
		}
		mu.Unlock()

		n := inFlight.Add(1)
		for {
			seen := maxSeen.Load()
			if n <= seen || maxSeen.CompareAndSwap(seen, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)

		mu.Lock()
		finished[i] = true
		mu.Unlock()
		return struct{}{}, nil
	})

	require.NoError(t, err)
	assert.LessOrEqual(t, maxSeen.Load(), int32(size))
	assert.Equal(t, int32(size), maxSeen.Load())
}

func TestMapInBatchesStopsAtFirstFailingChunk(t *testing.T) {
	boom := errors.New("boom")
	var calls atomic.Int32

	_, err := MapInBatches(context.Background(), lo.Range(10), 5, func(_ context.Context, i int) (int, error) {
		calls.Add(1)
		if i == 2 {
			return 0, boom
		}
		return i, nil
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int32(5), calls.Load())
}

func TestMapInBatchesEmpty(t *testing.T) {
	out, err := MapInBatches(context.Background(), []int{}, 5, func(_ context.Context, i int) (int, error) {
		return i, nil
	})
	require.NoError(t, err)
	assert.Empty(t, out)

	_, err = MapInBatches(context.Background(), []int{1}, 0, func(_ context.Context, i int) (int, error) {
		return i, nil
	})
	assert.Error(t, err)
}
