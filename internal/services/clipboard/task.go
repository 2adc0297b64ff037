package clipboard

import (
	"context"
	"sync"
)

// Task is a cancellable computation that resolves exactly once.
type Task[T any] struct {
	done   chan struct{}
	cancel context.CancelFunc
	once   sync.Once
	value  T
	err    error
}

// StartTask runs work on its own goroutine. Cancelling the task cancels the context passed to work
// and resolves the task with the context error unless work already resolved it.
func StartTask[T any](ctx context.Context, work func(context.Context) (T, error)) *Task[T] {
	taskContext, cancel := context.WithCancel(ctx)
	task := &Task[T]{done: make(chan struct{}), cancel: cancel}
	go func() {
		value, err := work(taskContext)
		task.resolve(value, err)
	}()
	go func() {
		select {
		case <-taskContext.Done():
			var zero T
			task.resolve(zero, taskContext.Err())
		case <-task.done:
		}
	}()
	return task
}

func (task *Task[T]) resolve(value T, err error) {
	task.once.Do(func() {
		task.value = value
		task.err = err
		close(task.done)
		task.cancel()
	})
}

// Done is closed once the task resolves.
func (task *Task[T]) Done() <-chan struct{} {
	return task.done
}

// Cancel resolves a pending task with context.Canceled.
func (task *Task[T]) Cancel() {
	task.cancel()
}

// Wait blocks until the task resolves or ctx ends. Ending ctx does not cancel the task.
func (task *Task[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-task.done:
		return task.value, task.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
