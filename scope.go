package taskpool

import (
	"context"
	"runtime"
	"sync"
	"time"
)

// Scope collects units submitted during a single RunScopeAs call. It is
// only valid for the duration of the body callback passed to RunScopeAs;
// using a retained *Scope after body returns is a programming error.
//
// Note on naming: the original interface names the entry points `scope`
// and `scope_as`, and the builder object passed to the body callback
// `Scope`. Go forbids a function and a type sharing one identifier in
// the same package, so the entry points here are RunScope/RunScopeAs.
type Scope[T any] struct {
	pool  *Pool
	group Group

	mu    sync.Mutex
	tasks []scopedTask[T]
}

type scopedTask[T any] struct {
	local bool
	task  *Task[T]
}

// Spawn submits fn to the scope's target group executor. fn may freely
// close over data local to the enclosing RunScopeAs call's stack frame:
// Go has no borrow checker to enforce this statically, so the guarantee
// instead comes structurally, from RunScopeAs blocking until every
// submitted unit has terminated before it returns.
func (s *Scope[T]) Spawn(fn func(ctx context.Context) T) {
	t := SpawnAs(s.pool, s.group, fn)
	s.mu.Lock()
	s.tasks = append(s.tasks, scopedTask[T]{task: t})
	s.mu.Unlock()
}

// SpawnLocal submits fn to the calling goroutine's thread-local executor.
// It is driven only by this same goroutine, inside RunScopeAs's driving
// loop — never by a pool worker.
func (s *Scope[T]) SpawnLocal(fn func(ctx context.Context) T) {
	t := SpawnLocal(s.pool, fn)
	s.mu.Lock()
	s.tasks = append(s.tasks, scopedTask[T]{local: true, task: t})
	s.mu.Unlock()
}

// RunScope submits work to the Compute group, equivalent to
// RunScopeAs(p, Compute, body).
func RunScope[T any](p *Pool, body func(*Scope[T])) ([]T, error) {
	return RunScopeAs(p, Compute, body)
}

// RunScopeAs runs body, which populates a *Scope[T] via Spawn/SpawnLocal,
// then blocks the calling goroutine — cooperatively driving the pool —
// until every submitted unit has terminated. Results are returned in
// submission order.
//
// If body itself panics, every unit it had already submitted is
// cancelled, RunScopeAs waits for all of them to terminate, and then the
// panic is re-raised to RunScopeAs's own caller. If a submitted unit
// fails (returns a non-nil error, including ErrTaskCancelled or a
// *PanicError), every other still-running submitted unit is cancelled
// as soon as the failure is observed — not only after the drive loop
// exits, so a cancellable sibling actually gets a chance to stop — and
// the first such failure in submission order is returned as err once
// every unit has terminated.
func RunScopeAs[T any](p *Pool, g Group, body func(*Scope[T])) (results []T, err error) {
	s := &Scope[T]{pool: p, group: g}

	func() {
		defer func() {
			if r := recover(); r != nil {
				s.cancelAll()
				s.awaitAll()
				panic(r)
			}
		}()
		body(s)
	}()

	switch len(s.tasks) {
	case 0:
		// Fast path: zero submitted units, no executor touched.
		return nil, nil
	case 1:
		// One unit: no aggregation, driven by the same cooperative loop.
		return s.drive()
	default:
		return s.drive()
	}
}

func (s *Scope[T]) cancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range s.tasks {
		st.task.Cancel()
	}
}

// drive alternates between checking whether every submitted unit has
// resolved and cooperatively ticking the scope's group executor and (if
// it has one) the calling goroutine's local executor —
// exactly the alternation the structured-concurrency driver requires so
// that a caller who is itself a pool worker, or the sole worker of a
// single-thread pool, still makes progress instead of deadlocking.
//
// As soon as any submitted unit is observed to have finished with a
// non-nil error, every other submitted unit is cancelled immediately —
// not after the loop exits — so a sibling written the ordinary
// cancellable-loop way (checking ctx.Done() each iteration) has a chance
// to actually observe that cancellation and terminate. Only once every
// unit has terminated does drive collect results and return.
func (s *Scope[T]) drive() ([]T, error) {
	cancelledForFailure := false
	s.pump(func() bool {
		if !cancelledForFailure && s.anyFailed() {
			s.cancelAll()
			cancelledForFailure = true
		}
		return s.allFinished()
	})

	results := make([]T, len(s.tasks))
	var firstErr error
	for i, st := range s.tasks {
		r, taskErr := st.task.Await()
		results[i] = r
		if taskErr != nil && firstErr == nil {
			firstErr = taskErr
		}
	}
	if firstErr != nil {
		s.cancelAll()
		return nil, firstErr
	}
	return results, nil
}

// awaitAll blocks until every submitted unit has terminated, without
// regard to outcome. Used after a body panic: cancelAll only signals
// cancellation, it doesn't wait for it to take effect, so RunScopeAs
// must still pump the executors itself before re-raising the panic —
// otherwise it could return (via panic) while a submitted unit is still
// running, breaking the "every unit has terminated" guarantee.
func (s *Scope[T]) awaitAll() {
	s.pump(s.allFinished)
}

// pump cooperatively ticks the scope's group executor and (if it has
// one) the calling goroutine's local executor until stop
// reports true, parking briefly between ticks when neither executor made
// progress.
func (s *Scope[T]) pump(stop func() bool) {
	groupExec := s.pool.executors[s.group]
	localExec := s.pool.existingLocalExecutor()

	for !stop() {
		progressed := groupExec.TryTick()
		if localExec != nil && localExec.TryTick() {
			progressed = true
		}
		if progressed {
			continue
		}
		waitOnExecutors(groupExec, localExec)
	}
}

func (s *Scope[T]) allFinished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range s.tasks {
		if done, _ := st.task.peek(); !done {
			return false
		}
	}
	return true
}

// anyFailed reports whether any already-terminated submitted unit
// resolved with a non-nil error.
func (s *Scope[T]) anyFailed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range s.tasks {
		if done, err := st.task.peek(); done && err != nil {
			return true
		}
	}
	return false
}

// waitOnExecutors blocks briefly for either executor to signal new work,
// bounded by a short poll interval so the driver notices units finishing
// elsewhere (run by pool workers) without reflect.Select over a
// variable-length set of per-task done channels.
func waitOnExecutors(groupExec, localExec *executor) {
	const pollInterval = time.Millisecond
	if localExec == nil {
		select {
		case <-groupExec.queue.wake:
		case <-time.After(pollInterval):
		}
		return
	}
	select {
	case <-groupExec.queue.wake:
	case <-localExec.queue.wake:
	case <-time.After(pollInterval):
	}
	runtime.Gosched()
}
