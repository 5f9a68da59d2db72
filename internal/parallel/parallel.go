package parallel

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is used when Run is given a limit below one.
const DefaultConcurrency = 6

// Result holds the outcome of a parallel task.
type Result[T any] struct {
	Name    string
	Value   T
	Err     error
	Elapsed time.Duration
}

// OK reports whether the task succeeded.
func (r Result[T]) OK() bool {
	return r.Err == nil
}

// Task is a named unit of work.
type Task[T any] struct {
	Name string
	Fn   func(ctx context.Context) (T, error)
}

// Run executes tasks with at most concurrency running at once and returns
// results in submission order. A failing task never cancels its siblings.
// onDone, if non-nil, is called once per task as it finishes; calls are
// serialized.
func Run[T any](ctx context.Context, tasks []Task[T], concurrency int, onDone func(Result[T])) []Result[T] {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}

	results := make([]Result[T], len(tasks))
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(concurrency)

	for i, task := range tasks {
		g.Go(func() error {
			start := time.Now()
			var result Result[T]
			if err := ctx.Err(); err != nil {
				result = Result[T]{Name: task.Name, Err: err}
			} else {
				value, err := task.Fn(ctx)
				result = Result[T]{Name: task.Name, Value: value, Err: err, Elapsed: time.Since(start)}
			}

			mu.Lock()
			results[i] = result
			if onDone != nil {
				onDone(result)
			}
			mu.Unlock()

			return nil // collect, never fail the group
		})
	}

	_ = g.Wait()
	return results
}

// Errors joins the errors of failed results, each prefixed with its task name.
// It returns nil when every task succeeded.
func Errors[T any](results []Result[T]) error {
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Name, r.Err))
		}
	}
	return errors.Join(errs...)
}
