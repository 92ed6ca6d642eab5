package enrich_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/UnknownOlympus/asclepius/internal/enrich"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettleAll(t *testing.T) {
	t.Parallel()

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()

		got := enrich.SettleAll(t.Context(), []int{}, 0, func(_ context.Context, i int) (int, error) {
			t.Fatal("fn must not be called")
			return i, nil
		})

		assert.Empty(t, got)
	})

	t.Run("results keep input order regardless of completion order", func(t *testing.T) {
		t.Parallel()
		items := []int{30, 10, 20, 0}

		got := enrich.SettleAll(t.Context(), items, 0, func(_ context.Context, ms int) (string, error) {
			time.Sleep(time.Duration(ms) * time.Millisecond)
			return fmt.Sprintf("item-%d", ms), nil
		})

		require.Len(t, got, len(items))
		for idx, ms := range items {
			require.NoError(t, got[idx].Err)
			assert.Equal(t, fmt.Sprintf("item-%d", ms), got[idx].Value)
		}
	})

	t.Run("one failure does not stop the rest", func(t *testing.T) {
		t.Parallel()
		var calls atomic.Int32

		got := enrich.SettleAll(t.Context(), []int{1, 2, 3}, 0, func(_ context.Context, i int) (int, error) {
			calls.Add(1)
			if i == 1 {
				return 0, assert.AnError
			}
			time.Sleep(5 * time.Millisecond)
			return i * 10, nil
		})

		assert.Equal(t, int32(3), calls.Load())
		require.ErrorIs(t, got[0].Err, assert.AnError)
		assert.Equal(t, 20, got[1].Value)
		assert.Equal(t, 30, got[2].Value)
	})

	t.Run("limit caps in-flight tasks", func(t *testing.T) {
		t.Parallel()
		var inFlight, peak atomic.Int32

		enrich.SettleAll(t.Context(), make([]int, 12), 3, func(_ context.Context, _ int) (int, error) {
			cur := inFlight.Add(1)
			for {
				old := peak.Load()
				if cur <= old || peak.CompareAndSwap(old, cur) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			inFlight.Add(-1)
			return 0, nil
		})

		assert.LessOrEqual(t, peak.Load(), int32(3))
		assert.Positive(t, peak.Load())
	})

	t.Run("tasks queued after cancellation are not started", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		var calls atomic.Int32

		got := enrich.SettleAll(ctx, []int{1, 2}, 1, func(_ context.Context, i int) (int, error) {
			calls.Add(1)
			return i, nil
		})

		assert.Zero(t, calls.Load())
		for _, res := range got {
			require.ErrorIs(t, res.Err, context.Canceled)
		}
	})
}
