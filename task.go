package taskpool

import (
	"context"
	"runtime"
	"runtime/debug"
	"sync/atomic"
)

// Task is an awaitable, cancellable, detachable handle to a submitted unit
// of work returning a T. A Task is created by Pool.Spawn, Pool.SpawnAs,
// Pool.SpawnLocal, Scope.Spawn, or Scope.SpawnLocal.
//
// Dropping a non-detached Task (letting it become unreachable without
// calling Detach) cancels the underlying unit the next time the garbage
// collector runs a finalizer for it — Go has no deterministic destructors,
// so this is a best-effort approximation of the original "drop cancels"
// invariant; call Cancel or Await explicitly rather than relying on it.
type Task[T any] struct {
	done     chan struct{}
	result   T
	err      error
	cancelFn context.CancelFunc
	detached atomic.Bool
	finished atomic.Bool
}

func newTask[T any](parent context.Context) (*Task[T], context.Context) {
	ctx, cancel := context.WithCancel(parent)
	t := &Task[T]{done: make(chan struct{}), cancelFn: cancel}
	runtime.SetFinalizer(t, finalizeTask[T])
	return t, ctx
}

func finalizeTask[T any](t *Task[T]) {
	if !t.detached.Load() {
		t.cancelFn()
	}
}

// resolve records the task's terminal outcome exactly once; subsequent
// calls are no-ops, guarding against a task being both drained-as-cancelled
// and separately executed.
func (t *Task[T]) resolve(result T, err error) {
	if !t.finished.CompareAndSwap(false, true) {
		return
	}
	t.result = result
	t.err = err
	close(t.done)
}

// Await blocks the calling goroutine until the task terminates, returning
// its result and its terminal error, if any: ErrTaskCancelled (cancelled
// before or during its run) or a *PanicError (recovered from a panicking
// fn). Submitted functions are func(context.Context) T — there is no
// separate fallible func(context.Context) (T, error) submission variant.
func (t *Task[T]) Await() (T, error) {
	<-t.done
	return t.result, t.err
}

// peek reports whether the task has already terminated and, if so, its
// terminal error. It never blocks. Checking t.done (closed only after
// t.err is assigned in resolve) rather than the finished flag directly
// keeps this race-free: a receive from a closed channel happens-after
// the close, which happens-after the write to t.err.
func (t *Task[T]) peek() (done bool, err error) {
	select {
	case <-t.done:
		return true, t.err
	default:
		return false, nil
	}
}

// Cancel requests early termination of the task. It is idempotent and
// non-blocking: it cancels the context visible to the task's function, so
// a well-behaved function observes it at its next check of ctx.Err() or
// ctx.Done(). If the task has not yet started, it resolves to
// ErrTaskCancelled without ever running fn once an executor pops it (or
// the pool's Close drains it); Cancel does not resolve a queued task by
// itself, so Await on a task queued in a group no worker drives keeps
// blocking until then.
func (t *Task[T]) Cancel() {
	t.cancelFn()
}

// Detach relinquishes the handle: the unit continues running to
// completion without needing to be awaited, and the finalizer installed by
// spawn will no longer cancel it when the handle is garbage collected.
func (t *Task[T]) Detach() {
	t.detached.Store(true)
}

// runTask executes fn under ctx and resolves t with the outcome, including
// panic recovery. It is the runnable pushed onto a group or local
// executor's queue by spawn.
func runTask[T any](t *Task[T], ctx context.Context, fn func(context.Context) T) func() {
	return func() {
		select {
		case <-ctx.Done():
			var zero T
			t.resolve(zero, ErrTaskCancelled)
			return
		default:
		}

		defer func() {
			if r := recover(); r != nil {
				var zero T
				t.resolve(zero, recoverPanic(r, debug.Stack()))
			}
		}()

		result := fn(ctx)
		t.resolve(result, nil)
	}
}

// spawnOnto submits fn onto e's queue and returns its handle. If the
// executor's queue has already been closed (pool shutdown in progress),
// the task resolves immediately to ErrPoolClosed without ever running.
func spawnOnto[T any](e *executor, parent context.Context, fn func(context.Context) T) *Task[T] {
	t, ctx := newTask[T](parent)
	if !e.queue.push(runTask(t, ctx, fn)) {
		var zero T
		t.resolve(zero, ErrPoolClosed)
	}
	return t
}
