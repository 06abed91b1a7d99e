package taskpool

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// worker is an OS-thread-affine goroutine with a fixed group assignment,
// an ordered fallthrough list of executors it drives, and a handle to the
// pool-wide shutdown signal.
type worker struct {
	name      string
	group     Group
	index     int
	executors []*executor
}

// workerName formats "<prefix> (<group>, <index>)", the exact scheme
// specified for observability.
func workerName(prefix string, g Group, index int) string {
	return fmt.Sprintf("%s (%s, %d)", prefix, g, index)
}

// run is the worker's main loop: race the shutdown signal against driving
// its executors in priority order, exactly as described for the "race to
// completion" combinator — its own group's executor is tried first on
// every iteration, and the higher-priority executors it falls through to
// are tried only when its own has nothing ready.
//
// run calls runtime.LockOSThread for its own lifetime so that a
// spawn_local task submitted from this goroutine is guaranteed to keep
// running on the same underlying OS thread for as long as the worker
// lives — the Go-native rendition of the original's per-thread affinity.
func (w *worker) run(shutdown <-chan struct{}, log *Logger) (err error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	defer func() {
		if r := recover(); r != nil {
			err = recoverPanic(r, debug.Stack())
			log.error("worker panicked", w.name, err)
		}
	}()

	for {
		ticked := false
		for _, e := range w.executors {
			if e.TryTick() {
				ticked = true
				break
			}
		}
		if ticked {
			continue
		}
		if waitForWork(shutdown, w.executors) {
			return nil
		}
	}
}

// waitForWork blocks until the shutdown signal fires or any executor in
// execs has a wake-up pending, returning true iff shutdown fired.
func waitForWork(shutdown <-chan struct{}, execs []*executor) bool {
	switch len(execs) {
	case 1:
		select {
		case <-shutdown:
			return true
		case <-execs[0].queue.wake:
			return false
		}
	case 2:
		select {
		case <-shutdown:
			return true
		case <-execs[0].queue.wake:
			return false
		case <-execs[1].queue.wake:
			return false
		}
	default:
		select {
		case <-shutdown:
			return true
		case <-execs[0].queue.wake:
			return false
		case <-execs[1].queue.wake:
			return false
		case <-execs[2].queue.wake:
			return false
		}
	}
}
