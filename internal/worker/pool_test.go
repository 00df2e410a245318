// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap(t *testing.T) {
	tests := []struct {
		name    string
		workers int
		n       int
	}{
		{name: "no jobs", workers: 4, n: 0},
		{name: "single worker", workers: 1, n: 10},
		{name: "more workers than jobs", workers: 16, n: 3},
		{name: "zero workers falls back to one", workers: 0, n: 5},
		{name: "many jobs", workers: 4, n: 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Map(context.Background(), tt.workers, tt.n, func(_ context.Context, i int) int {
				return i * i
			})
			require.Len(t, got, tt.n)
			for i, v := range got {
				assert.Equal(t, i*i, v)
			}
		})
	}
}

func TestMapPreservesOrderUnderReversedCompletion(t *testing.T) {
	const n = 8
	got := Map(context.Background(), n, n, func(_ context.Context, i int) string {
		// Later jobs finish first.
		time.Sleep(time.Duration(n-i) * 2 * time.Millisecond)
		return string(rune('a' + i))
	})
	assert.Equal(t, []string{"a", "b", "c", "d", "e", "f", "g", "h"}, got)
}

func TestMapBoundsConcurrency(t *testing.T) {
	var running, peak int32
	Map(context.Background(), 3, 30, func(_ context.Context, i int) struct{} {
		cur := atomic.AddInt32(&running, 1)
		for {
			old := atomic.LoadInt32(&peak)
			if cur <= old || atomic.CompareAndSwapInt32(&peak, old, cur) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		atomic.AddInt32(&running, -1)
		return struct{}{}
	})
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(3))
}

func TestMapStopsAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls int32
	got := Map(ctx, 2, 10, func(_ context.Context, i int) bool {
		atomic.AddInt32(&calls, 1)
		return true
	})
	require.Len(t, got, 10)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
	for _, ok := range got {
		assert.False(t, ok)
	}
}

func TestCollector(t *testing.T) {
	var c Collector[int]
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			c.Add(v)
		}(i)
	}
	wg.Wait()
	assert.Len(t, c.Items(), 50)
}
