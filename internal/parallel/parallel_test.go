package parallel

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"
)

func okTask(name string, value int) Task[int] {
	return Task[int]{Name: name, Fn: func(context.Context) (int, error) { return value, nil }}
}

func TestRun_Success(t *testing.T) {
	tasks := []Task[int]{okTask("task1", 1), okTask("task2", 2), okTask("task3", 3)}

	results := Run(context.Background(), tasks, 4, nil)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, r := range results {
		if !r.OK() {
			t.Errorf("task %s should be OK", r.Name)
		}
		if r.Value != i+1 {
			t.Errorf("task %s: expected value %d, got %d", r.Name, i+1, r.Value)
		}
	}
	if err := Errors(results); err != nil {
		t.Errorf("expected no joined error, got %v", err)
	}
}

func TestRun_WithErrors(t *testing.T) {
	failure := errors.New("simulated failure")
	tasks := []Task[int]{
		okTask("ok-task", 1),
		{Name: "fail-task", Fn: func(context.Context) (int, error) { return 0, failure }},
		okTask("later-task", 3),
	}

	results := Run(context.Background(), tasks, 4, nil)

	// Results should be in order
	if !results[0].OK() || !results[2].OK() {
		t.Error("siblings of a failed task should still succeed")
	}
	if results[1].OK() {
		t.Error("second task should have failed")
	}

	err := Errors(results)
	if !errors.Is(err, failure) {
		t.Errorf("joined error should wrap the failure, got %v", err)
	}
	if err.Error() != "fail-task: simulated failure" {
		t.Errorf("unexpected joined error %q", err.Error())
	}
}

func TestRun_Concurrency(t *testing.T) {
	var maxConcurrent int64
	var current int64

	tasks := make([]Task[int], 10)
	for i := range tasks {
		tasks[i] = Task[int]{
			Name: fmt.Sprintf("task-%d", i),
			Fn: func(context.Context) (int, error) {
				c := atomic.AddInt64(&current, 1)
				for {
					old := atomic.LoadInt64(&maxConcurrent)
					if c <= old || atomic.CompareAndSwapInt64(&maxConcurrent, old, c) {
						break
					}
				}
				time.Sleep(20 * time.Millisecond)
				atomic.AddInt64(&current, -1)
				return 0, nil
			},
		}
	}

	results := Run(context.Background(), tasks, 2, nil)
	if len(results) != 10 {
		t.Fatalf("expected 10 results, got %d", len(results))
	}
	if maxConcurrent > 2 {
		t.Errorf("max concurrent should be <= 2, got %d", maxConcurrent)
	}
}

func TestRun_DefaultConcurrency(t *testing.T) {
	results := Run(context.Background(), []Task[int]{okTask("test", 1)}, 0, nil)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
}

func TestRun_TimingTracked(t *testing.T) {
	tasks := []Task[int]{{Name: "slow", Fn: func(context.Context) (int, error) {
		time.Sleep(50 * time.Millisecond)
		return 0, nil
	}}}

	results := Run(context.Background(), tasks, 1, nil)
	if results[0].Elapsed < 50*time.Millisecond {
		t.Errorf("expected elapsed >= 50ms, got %v", results[0].Elapsed)
	}
}

func TestRun_OnDoneCalledPerTask(t *testing.T) {
	var seen int
	tasks := []Task[int]{okTask("a", 1), okTask("b", 2)}

	Run(context.Background(), tasks, 2, func(Result[int]) { seen++ })
	if seen != 2 {
		t.Errorf("expected 2 callbacks, got %d", seen)
	}
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var called atomic.Bool
	tasks := []Task[int]{{Name: "never", Fn: func(context.Context) (int, error) {
		called.Store(true)
		return 0, nil
	}}}

	results := Run(ctx, tasks, 1, nil)
	if called.Load() {
		t.Error("task should not run after cancellation")
	}
	if !errors.Is(results[0].Err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", results[0].Err)
	}
}
