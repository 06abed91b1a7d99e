package taskpool

import "runtime"

// DefaultThreadNamePrefix is used for worker names when no
// ThreadNamePrefix option is given.
const DefaultThreadNamePrefix = "TaskPool"

// Builder configures and constructs a Pool. The zero value is not usable;
// obtain one from NewBuilder.
type Builder struct {
	computeThreads      int
	ioThreads           int
	asyncComputeThreads int
	namePrefix          string
	stackSize           int
	logger              *Logger
}

// NewBuilder returns a Builder defaulting ComputeThreads to
// runtime.GOMAXPROCS(0) (which, linked against
// go.uber.org/automaxprocs in a consuming main package, reflects a
// container's CPU quota rather than the host's full core count), IOThreads
// and AsyncComputeThreads to 0, and ThreadNamePrefix to
// DefaultThreadNamePrefix.
func NewBuilder() *Builder {
	return &Builder{
		computeThreads: runtime.GOMAXPROCS(0),
		namePrefix:     DefaultThreadNamePrefix,
	}
}

// ComputeThreads sets the number of Compute-group worker goroutines.
func (b *Builder) ComputeThreads(n int) *Builder {
	b.computeThreads = n
	return b
}

// IOThreads sets the number of IO-group worker goroutines.
func (b *Builder) IOThreads(n int) *Builder {
	b.ioThreads = n
	return b
}

// AsyncComputeThreads sets the number of AsyncCompute-group worker
// goroutines.
func (b *Builder) AsyncComputeThreads(n int) *Builder {
	b.asyncComputeThreads = n
	return b
}

// ThreadNamePrefix overrides the prefix of worker names
// ("<prefix> (<group>, <index>)"). The names appear as the subject of
// diagnostics logged for a worker; they are not applied to OS threads.
func (b *Builder) ThreadNamePrefix(prefix string) *Builder {
	b.namePrefix = prefix
	return b
}

// StackSize is advisory: Go goroutine stacks grow dynamically and are not
// fixed at creation, so this only records a hint available via
// Pool.StackSize for callers migrating configuration from a runtime that
// does require it.
func (b *Builder) StackSize(bytes int) *Builder {
	b.stackSize = bytes
	return b
}

// WithLogger sets the logger used for worker panics and misconfiguration
// diagnostics. If unset, Build installs a stderr text logger at Warning
// level.
func (b *Builder) WithLogger(l *Logger) *Builder {
	b.logger = l
	return b
}

// Build constructs and starts the Pool: spawns every configured worker
// goroutine and returns once they are all running.
func (b *Builder) Build() *Pool {
	log := b.logger
	if log == nil {
		log = defaultLogger()
	}

	p := &Pool{
		threadCounts: [numGroups]int{
			int(Compute):      b.computeThreads,
			int(IO):           b.ioThreads,
			int(AsyncCompute): b.asyncComputeThreads,
		},
		namePrefix: b.namePrefix,
		stackSize:  b.stackSize,
		log:        log,
		shutdown:   make(chan struct{}),
	}
	p.init()
	return p
}
