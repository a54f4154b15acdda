package concurrency

import (
	stdcontext "context"
	"errors"
	"sync/atomic"
	"testing"

	"boundedvote/pkg/config"
	"boundedvote/pkg/context"
	"boundedvote/pkg/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCtx(cores int) *context.OperationContext {
	return context.NewContext(&config.Config{Cores: cores}, metrics.NewRecorder())
}

func TestForEach(t *testing.T) {
	items := make([]int, 100)
	for i := range items {
		items[i] = i
	}

	for _, cores := range []int{1, 4} {
		ctx := newCtx(cores)
		var sum atomic.Int64
		err := ForEach(ctx, items, func(index int, item int) error {
			assert.Equal(t, index, item)
			sum.Add(int64(item))
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, int64(4950), sum.Load(), "cores=%d", cores)
	}

	t.Run("first_error", func(t *testing.T) {
		boom := errors.New("boom")
		err := ForEach(newCtx(4), items, func(index int, item int) error {
			if item == 42 {
				return boom
			}
			return nil
		})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("cancelled", func(t *testing.T) {
		parent, cancel := stdcontext.WithCancel(stdcontext.Background())
		cancel()
		ctx := context.WithParent(parent, &config.Config{Cores: 1}, metrics.NewRecorder())
		err := ForEach(ctx, items, func(int, int) error { return nil })
		assert.ErrorIs(t, err, stdcontext.Canceled)
	})

	t.Run("empty", func(t *testing.T) {
		assert.NoError(t, ForEach(newCtx(4), []int(nil), func(int, int) error { return nil }))
	})
}

func TestMap(t *testing.T) {
	items := []string{"a", "bb", "ccc", "dddd", "eeeee", "ffffff", "g", "hh", "iii"}
	for _, cores := range []int{1, 3} {
		lengths, err := Map(newCtx(cores), items, func(s string) (int, error) { return len(s), nil })
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 1, 2, 3}, lengths)
	}

	_, err := Map(newCtx(1), []string{}, func(s string) (int, error) { return 0, nil })
	assert.Error(t, err)
}
