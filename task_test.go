package taskpool

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunTask_ResolvesResult(t *testing.T) {
	t.Parallel()
	task, ctx := newTask[int](context.Background())
	runnable := runTask(task, ctx, func(ctx context.Context) int { return 42 })
	runnable()

	got, err := task.Await()
	require.NoError(t, err)
	require.Equal(t, 42, got)
}

func TestRunTask_CancelledBeforeRun(t *testing.T) {
	t.Parallel()
	task, ctx := newTask[int](context.Background())
	task.Cancel()
	ran := false
	runnable := runTask(task, ctx, func(ctx context.Context) int {
		ran = true
		return 1
	})
	runnable()

	_, err := task.Await()
	require.ErrorIs(t, err, ErrTaskCancelled)
	require.False(t, ran, "a cancelled task's body must never run")
}

func TestRunTask_PropagatesPanic(t *testing.T) {
	t.Parallel()
	task, ctx := newTask[int](context.Background())
	runnable := runTask(task, ctx, func(ctx context.Context) int {
		panic("boom")
	})
	runnable()

	_, err := task.Await()
	require.Error(t, err)
	var panicErr *PanicError
	require.ErrorAs(t, err, &panicErr)
	require.Equal(t, "boom", panicErr.Value)
}

func TestTask_ResolveOnlyOnce(t *testing.T) {
	t.Parallel()
	task, _ := newTask[int](context.Background())
	task.resolve(1, nil)
	task.resolve(2, errors.New("should be ignored"))

	got, err := task.Await()
	require.NoError(t, err)
	require.Equal(t, 1, got)
}

func TestTask_Detach(t *testing.T) {
	t.Parallel()
	task, ctx := newTask[int](context.Background())
	task.Detach()
	require.True(t, task.detached.Load())
	require.NoError(t, ctx.Err())
}

func TestSpawnOnto_RejectedAfterClose(t *testing.T) {
	t.Parallel()
	e := newExecutor()
	e.close()

	task := spawnOnto(e, context.Background(), func(ctx context.Context) int { return 1 })
	got, err := task.Await()
	require.ErrorIs(t, err, ErrPoolClosed)
	require.Zero(t, got)
}
