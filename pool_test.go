package taskpool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/joeycumines/taskpool/internal/gid"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

var (
	errUnexpectedResultCount = errors.New("unexpected result count")
	errLocalMismatch         = errors.New("spawn_local did not observe the spawning goroutine")
)

func goroutineIDForTest() uint64 {
	return gid.Current()
}

func TestPool_SpawnEventuallyRuns(t *testing.T) {
	t.Parallel()
	pool := NewBuilder().ComputeThreads(2).Build()
	defer pool.Close()

	task := Spawn(pool, func(ctx context.Context) int { return 7 })
	got, err := task.Await()
	require.NoError(t, err)
	require.Equal(t, 7, got)
}

func TestPool_SpawnAsRoutesToConfiguredGroup(t *testing.T) {
	t.Parallel()
	pool := NewBuilder().ComputeThreads(1).IOThreads(1).Build()
	defer pool.Close()

	task := SpawnAs(pool, IO, func(ctx context.Context) string { return "io" })
	got, err := task.Await()
	require.NoError(t, err)
	require.Equal(t, "io", got)
}

func TestPool_SpawnLocalRunsOnSpawningGoroutine(t *testing.T) {
	t.Parallel()
	pool := NewBuilder().ComputeThreads(1).Build()
	defer pool.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		spawnerID := goroutineIDForTest()

		task := SpawnLocal(pool, func(ctx context.Context) uint64 {
			return goroutineIDForTest()
		})

		// Nobody but this goroutine drives its own local executor.
		for !pool.TickLocal() {
			time.Sleep(time.Millisecond)
		}

		got, err := task.Await()
		require.NoError(t, err)
		require.Equal(t, spawnerID, got)
	}()
	<-done
}

func TestPool_Fanout100(t *testing.T) {
	t.Parallel()
	pool := NewBuilder().ComputeThreads(4).Build()
	defer pool.Close()

	results, err := RunScope(pool, func(s *Scope[int]) {
		for i := 0; i < 100; i++ {
			s.Spawn(func(ctx context.Context) int { return 42 })
		}
	})
	require.NoError(t, err)
	require.Len(t, results, 100)
	for _, r := range results {
		require.Equal(t, 42, r)
	}
}

func TestPool_GracefulTeardownWithQueuedTasks(t *testing.T) {
	t.Parallel()
	pool := NewBuilder().ComputeThreads(1).Build()

	tasks := make([]*Task[int], 0, 1000)
	for i := 0; i < 1000; i++ {
		tasks = append(tasks, SpawnAs(pool, Compute, func(ctx context.Context) int {
			return 1
		}))
	}

	require.NoError(t, pool.Close())

	completed, cancelled := 0, 0
	for _, task := range tasks {
		_, err := task.Await()
		switch err {
		case nil:
			completed++
		default:
			require.ErrorIs(t, err, ErrTaskCancelled)
			cancelled++
		}
	}
	require.Equal(t, 1000, completed+cancelled)
}

func TestPool_HundredExternalCallers(t *testing.T) {
	t.Parallel()
	pool := NewBuilder().ComputeThreads(4).IOThreads(1).Build()
	defer pool.Close()

	var total atomic.Int64
	var g errgroup.Group
	for i := 0; i < 100; i++ {
		g.Go(func() error {
			spawnerID := goroutineIDForTest()
			var localID uint64

			results, err := RunScope(pool, func(s *Scope[int]) {
				s.Spawn(func(ctx context.Context) int {
					total.Add(1)
					return 1
				})
				s.SpawnLocal(func(ctx context.Context) int {
					localID = goroutineIDForTest()
					total.Add(1)
					return 1
				})
			})
			if err != nil {
				return err
			}
			if len(results) != 2 {
				return errUnexpectedResultCount
			}
			if localID != spawnerID {
				return errLocalMismatch
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	require.Equal(t, int64(200), total.Load())
}
