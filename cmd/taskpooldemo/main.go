// Command taskpooldemo exercises a taskpool.Pool the way a bulk
// parallel workload would: spawning many detached Compute/IO units and
// fanning out a scope, then reporting how many of each completed.
//
// Run with: go run ./cmd/taskpooldemo/
package main

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/joeycumines/taskpool"

	_ "go.uber.org/automaxprocs"
)

const spritesPerSecond = 10000

func main() {
	pool := taskpool.NewBuilder().
		IOThreads(2).
		AsyncComputeThreads(1).
		Build()
	defer pool.Close()

	var computed, fetched int64

	// Bulk detached fan-out, mirroring a per-frame burst of independent
	// work items.
	tasks := make([]*taskpool.Task[int], 0, spritesPerSecond/100)
	for i := 0; i < spritesPerSecond/100; i++ {
		tasks = append(tasks, taskpool.SpawnAs(pool, taskpool.Compute, func(ctx context.Context) int {
			atomic.AddInt64(&computed, 1)
			return i
		}))
	}
	for _, t := range tasks {
		if _, err := t.Await(); err != nil {
			fmt.Println("task failed:", err)
		}
	}

	// A scope that borrows local counters directly, half on the IO
	// group and half on the calling goroutine's local executor.
	results, err := taskpool.RunScopeAs(pool, taskpool.IO, func(s *taskpool.Scope[int]) {
		for i := 0; i < 100; i++ {
			i := i
			if i%2 == 0 {
				s.Spawn(func(ctx context.Context) int {
					atomic.AddInt64(&fetched, 1)
					return i
				})
			} else {
				s.SpawnLocal(func(ctx context.Context) int {
					atomic.AddInt64(&fetched, 1)
					return i
				})
			}
		}
	})
	if err != nil {
		fmt.Println("scope failed:", err)
	}

	time.Sleep(10 * time.Millisecond)
	fmt.Printf("compute units completed: %d\n", atomic.LoadInt64(&computed))
	fmt.Printf("scope units completed: %d (len=%d)\n", atomic.LoadInt64(&fetched), len(results))
}
