package taskpool

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuilder_Defaults(t *testing.T) {
	b := NewBuilder()
	require.Equal(t, DefaultThreadNamePrefix, b.namePrefix)
	require.Greater(t, b.computeThreads, 0)
	require.Zero(t, b.ioThreads)
	require.Zero(t, b.asyncComputeThreads)
}

// TestBuilder_ThreadCountFor asserts the open-question bug-fix: each
// group reports its own configured count, not always Compute's.
func TestBuilder_ThreadCountFor(t *testing.T) {
	pool := NewBuilder().
		ComputeThreads(3).
		IOThreads(2).
		AsyncComputeThreads(1).
		Build()
	defer pool.Close()

	require.Equal(t, 3, pool.ThreadCountFor(Compute))
	require.Equal(t, 2, pool.ThreadCountFor(IO))
	require.Equal(t, 1, pool.ThreadCountFor(AsyncCompute))
	require.Equal(t, 6, pool.ThreadNum())
}

func TestBuilder_ThreadCountFor_InvalidGroup(t *testing.T) {
	pool := NewBuilder().ComputeThreads(1).Build()
	defer pool.Close()
	require.Zero(t, pool.ThreadCountFor(Group(99)))
}
