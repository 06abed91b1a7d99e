package taskpool

import "context"

// executor is a cooperative runnable queue driven by Run or TryTick. The
// same type backs both a group executor (pushed to from any goroutine,
// driven by that group's workers) and a thread-local executor (pushed to
// and driven only by its owning goroutine) — the two differ only in who
// is allowed to call their methods, a contract enforced by construction
// rather than by a runtime check (see internal/gid for how the pool
// locates "the calling goroutine's" local executor).
type executor struct {
	queue *runnableQueue
}

func newExecutor() *executor {
	return &executor{queue: newRunnableQueue()}
}

// TryTick attempts to run exactly one ready runnable without blocking.
// Returns whether one ran. Safe to call concurrently from any number of
// goroutines racing to make progress.
func (e *executor) TryTick() bool {
	fn, ok := e.queue.pop()
	if !ok {
		return false
	}
	fn()
	return true
}

// Run drives queued runnables on the calling goroutine until ctx is done,
// then returns ctx.Err(). It never busy-spins: between ticks it blocks on
// the queue's wake signal or ctx.Done(), whichever comes first.
func (e *executor) Run(ctx context.Context) error {
	for {
		for e.TryTick() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.queue.wake:
		}
	}
}

// close closes the backing queue, after which further pushes fail.
func (e *executor) close() {
	e.queue.close()
}

// drainCancelled pops every remaining runnable and runs it — each such
// runnable is a task body that, at this point, observes an already-done
// context (the pool's root context is cancelled before draining begins)
// and so resolves its handle to ErrTaskCancelled without doing any of the
// task's real work.
func (e *executor) drainCancelled() {
	e.queue.drain(func(fn func()) { fn() })
}
