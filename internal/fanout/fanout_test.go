package fanout_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcp-gmail/internal/fanout"
)

func TestMapEmpty(t *testing.T) {
	results := fanout.Map(context.Background(), 3, nil, func(_ context.Context, i int) int {
		return i
	})

	assert.Empty(t, results)
}

// The first item is held back until the last one completes; its result must
// still land in the first slot.
func TestMapOrderIndependentOfCompletion(t *testing.T) {
	items := make([]int, 8)
	for i := range items {
		items[i] = i
	}

	lastDone := make(chan struct{})

	results := fanout.Map(context.Background(), 0, items, func(_ context.Context, i int) int {
		switch i {
		case 0:
			<-lastDone
		case len(items) - 1:
			defer close(lastDone)
		}
		return i * i
	})

	require.Len(t, results, len(items))
	for i := range items {
		assert.Equal(t, i*i, results[i])
	}
}

func TestMapBoundsConcurrency(t *testing.T) {
	const limit = 3

	var current, peak atomic.Int32

	items := make([]int, 20)
	fanout.Map(context.Background(), limit, items, func(_ context.Context, _ int) struct{} {
		n := current.Add(1)
		defer current.Add(-1)

		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}

		time.Sleep(time.Millisecond)
		return struct{}{}
	})

	assert.LessOrEqual(t, peak.Load(), int32(limit))
	assert.Positive(t, peak.Load())
}

func TestMapWaitsForAllOutcomes(t *testing.T) {
	var calls atomic.Int32

	results := fanout.Map(context.Background(), 2, []string{"a", "b", "c", "d"}, func(_ context.Context, s string) string {
		calls.Add(1)
		return s + "!"
	})

	assert.Equal(t, int32(4), calls.Load())
	assert.Equal(t, []string{"a!", "b!", "c!", "d!"}, results)
}
