package taskpool

import (
	"context"
	"sync"

	"github.com/joeycumines/taskpool/internal/gid"
)

// Pool is a running priority-tiered task pool. Obtain one from
// Builder.Build; release its resources with Close.
type Pool struct {
	threadCounts [numGroups]int
	namePrefix   string
	stackSize    int
	log          *Logger

	executors [numGroups]*executor
	workers   []*worker

	rootCtx    context.Context
	cancelRoot context.CancelFunc
	shutdown   chan struct{}
	wg         sync.WaitGroup

	localMu sync.Mutex
	local   map[uint64]*executor

	closeOnce sync.Once
}

func (p *Pool) init() {
	p.rootCtx, p.cancelRoot = context.WithCancel(context.Background())
	p.local = make(map[uint64]*executor)

	for g := 0; g < numGroups; g++ {
		p.executors[g] = newExecutor()
	}

	for g := 0; g < numGroups; g++ {
		group := Group(g)
		n := p.threadCounts[g]
		order := fallthroughGroups(group)
		execs := make([]*executor, len(order))
		for i, fg := range order {
			execs[i] = p.executors[fg]
		}
		for i := 0; i < n; i++ {
			w := &worker{
				name:      workerName(p.namePrefix, group, i),
				group:     group,
				index:     i,
				executors: execs,
			}
			p.workers = append(p.workers, w)
			p.wg.Add(1)
			go func(w *worker) {
				defer p.wg.Done()
				if err := w.run(p.shutdown, p.log); err != nil {
					p.log.error("worker exited abnormally", w.name, err)
				}
			}(w)
		}
	}
}

// ThreadCountFor returns the number of worker goroutines configured for
// the given group.
func (p *Pool) ThreadCountFor(g Group) int {
	if g < 0 || int(g) >= numGroups {
		return 0
	}
	return p.threadCounts[g]
}

// StackSize returns the advisory stack size recorded by Builder.StackSize.
func (p *Pool) StackSize() int {
	return p.stackSize
}

// ThreadNum returns the total number of worker goroutines owned by the
// pool, across all groups.
func (p *Pool) ThreadNum() int {
	n := 0
	for g := 0; g < numGroups; g++ {
		n += p.threadCounts[g]
	}
	return n
}

// Spawn submits fn to the Compute group, returning a Task handle. fn
// should observe ctx for early cancellation. Go methods cannot carry
// their own type parameters, so Spawn, SpawnAs, and SpawnLocal are
// package-level generic functions taking the pool as their first
// argument, rather than methods on Pool.
func Spawn[T any](p *Pool, fn func(ctx context.Context) T) *Task[T] {
	return SpawnAs(p, Compute, fn)
}

// SpawnAs submits fn to the given group, returning a Task handle. If the
// group has zero configured workers the call logs a diagnostic but still
// enqueues the unit — it may run via a fallthrough path if one reaches
// the group, exactly as documented for the original's "bug preserved
// intentionally" submission behaviour.
func SpawnAs[T any](p *Pool, g Group, fn func(ctx context.Context) T) *Task[T] {
	if g < 0 || int(g) >= numGroups {
		g = Compute
	}
	if p.threadCounts[g] == 0 {
		p.log.misconfiguration(g, 0)
	}
	return spawnOnto(p.executors[g], p.rootCtx, fn)
}

// SpawnLocal submits fn to the thread-local executor associated with the
// calling goroutine, creating one on first use. A thread-local executor
// is driven only by ticks made from the same goroutine (via a Scope
// driver, or a direct call to Pool.TickLocal) — it is never picked up by
// pool workers, matching the original's "spawn_local runs on the thread
// that called it" guarantee as closely as a goroutine-based runtime
// allows.
func SpawnLocal[T any](p *Pool, fn func(ctx context.Context) T) *Task[T] {
	e := p.localExecutor()
	return spawnOnto(e, p.rootCtx, fn)
}

// TickLocal attempts one tick of the calling goroutine's thread-local
// executor, if it has one. Returns false if there was nothing to run.
func (p *Pool) TickLocal() bool {
	e := p.existingLocalExecutor()
	if e == nil {
		return false
	}
	return e.TryTick()
}

func (p *Pool) localExecutor() *executor {
	id := gid.Current()
	p.localMu.Lock()
	defer p.localMu.Unlock()
	e, ok := p.local[id]
	if !ok {
		e = newExecutor()
		if p.rootCtx.Err() != nil {
			// Already closed: reject pushes like every other executor.
			e.close()
		}
		p.local[id] = e
	}
	return e
}

func (p *Pool) existingLocalExecutor() *executor {
	id := gid.Current()
	p.localMu.Lock()
	defer p.localMu.Unlock()
	return p.local[id]
}

// Close cancels every not-yet-run task's context, stops accepting new
// submissions, and joins all worker goroutines before returning. Tasks
// still queued at the moment of Close are resolved to ErrTaskCancelled
// rather than run. Close is idempotent.
func (p *Pool) Close() error {
	p.closeOnce.Do(func() {
		p.cancelRoot()
		for g := 0; g < numGroups; g++ {
			p.executors[g].close()
		}
		close(p.shutdown)
		p.wg.Wait()
		for g := 0; g < numGroups; g++ {
			p.executors[g].drainCancelled()
		}
		p.localMu.Lock()
		for _, e := range p.local {
			e.close()
			e.drainCancelled()
		}
		p.localMu.Unlock()
	})
	return nil
}
