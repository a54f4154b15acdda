// Package concurrency runs a function over every item of a slice, in
// parallel when the configuration allows it.
package concurrency

import (
	"sync"

	"boundedvote/pkg/context"

	"golang.org/x/xerrors"
)

// minItemsForParallel is the smallest slice worth spreading over workers.
var minItemsForParallel = 8

// run calls work(i) for every index, sequentially or across ctx.Cores()
// workers. Workers stop picking up new items after the first error or once
// ctx is cancelled; the first error is returned.
func run(ctx *context.OperationContext, n int, work func(i int) error) error {
	cores := ctx.Cores()
	if cores <= 1 || n < minItemsForParallel {
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := work(i); err != nil {
				return err
			}
		}
		return nil
	}
	if cores > n {
		cores = n
	}

	jobs := make(chan int)
	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
		failed   = make(chan struct{})
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			close(failed)
		})
	}

	for w := 0; w < cores; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if err := work(i); err != nil {
					fail(err)
				}
			}
		}()
	}

feed:
	for i := 0; i < n; i++ {
		select {
		case jobs <- i:
		case <-failed:
			break feed
		case <-ctx.Done():
			fail(ctx.Err())
			break feed
		}
	}
	close(jobs)
	wg.Wait()
	return firstErr
}

// ForEach calls workerFunc for every item.
func ForEach[T any](ctx *context.OperationContext, items []T, workerFunc func(index int, item T) error) error {
	return run(ctx, len(items), func(i int) error {
		return workerFunc(i, items[i])
	})
}

// Map transforms every item, keeping the input order in the result.
func Map[T any, U any](ctx *context.OperationContext, items []T, workerFunc func(item T) (U, error)) ([]U, error) {
	if len(items) == 0 {
		return nil, xerrors.New("no items to map")
	}
	results := make([]U, len(items))
	err := run(ctx, len(items), func(i int) error {
		res, err := workerFunc(items[i])
		if err != nil {
			return err
		}
		results[i] = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}
