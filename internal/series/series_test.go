package series

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(out *[]int, i int) Task {
	return func(ctx context.Context, next func(error)) {
		*out = append(*out, i)
		next(nil)
	}
}

func TestRunInOrder(t *testing.T) {
	var order []int
	var calls int
	var got error
	Run(context.Background(), []Task{record(&order, 1), record(&order, 2), record(&order, 3)}, func(err error) {
		calls++
		got = err
	})
	require.NoError(t, got)
	require.Equal(t, 1, calls)
	require.Equal(t, []int{1, 2, 3}, order)
}

func TestRunEmpty(t *testing.T) {
	called := false
	Run(context.Background(), nil, func(err error) {
		require.NoError(t, err)
		called = true
	})
	require.True(t, called)
}

func TestRunStopsOnFirstError(t *testing.T) {
	bad := errors.New("bad")
	var order []int
	var got error
	Run(context.Background(), []Task{
		record(&order, 1),
		func(ctx context.Context, next func(error)) { next(bad) },
		record(&order, 3),
	}, func(err error) {
		got = err
	})
	require.Same(t, bad, got)
	require.Equal(t, []int{1}, order)
}

func TestRunDeferredNext(t *testing.T) {
	var order []int
	deferred := func(i int) Task {
		return func(ctx context.Context, next func(error)) {
			go func() {
				time.Sleep(time.Millisecond)
				order = append(order, i)
				next(nil)
			}()
		}
	}

	result := make(chan error, 1)
	Run(context.Background(), []Task{deferred(1), deferred(2), deferred(3)}, func(err error) {
		result <- err
	})

	select {
	case err := <-result:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not complete")
	}
	require.Equal(t, []int{1, 2, 3}, order)
}

func TestRunRepeatedNext(t *testing.T) {
	var repeated []int
	var order []int
	calls := 0
	r := Runner{OnRepeat: func(i int) { repeated = append(repeated, i) }}
	r.Run(context.Background(), []Task{
		func(ctx context.Context, next func(error)) {
			next(nil)
			next(errors.New("ignored"))
		},
		record(&order, 2),
	}, func(err error) {
		calls++
		assert.NoError(t, err)
	})
	require.Equal(t, 1, calls)
	require.Equal(t, []int{0}, repeated)
	require.Equal(t, []int{2}, order)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var order []int
	var got error
	Run(ctx, []Task{
		func(ctx context.Context, next func(error)) {
			order = append(order, 1)
			cancel()
			next(nil)
		},
		record(&order, 2),
	}, func(err error) {
		got = err
	})
	require.ErrorIs(t, got, context.Canceled)
	require.Equal(t, []int{1}, order)
}
