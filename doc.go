// Package taskpool provides a priority-tiered task pool: a process-wide
// executor that drives asynchronous units of work ("tasks") on a fixed
// set of owned worker goroutines, partitioned into three priority groups
// — Compute, IO, and AsyncCompute — with well-defined cross-group
// scheduling fallthrough.
//
// # Architecture
//
// Three [Group] executors back the pool, one per priority tier. Workers
// are assigned to exactly one group but drive a priority-ordered list of
// executors: a Compute worker drives only Compute, an IO worker drives IO
// then falls through to Compute when idle, and an AsyncCompute worker
// drives AsyncCompute then falls through to Compute then IO. This gives
// higher-priority tasks at least as many candidate runners as
// lower-priority ones, without ever letting a lower-priority task run
// ahead of one on its own thread.
//
// Two submission modes are exposed:
//
//   - Detached: [Spawn], [SpawnAs], and [SpawnLocal] return a [Task]
//     handle that can be awaited, cancelled, or detached.
//   - Structured: [RunScope] and [RunScopeAs] let a caller submit work
//     that borrows stack-local data, blocking until every submitted unit
//     terminates.
//
// # Non-goals
//
// No work-stealing deques across groups in both directions, no task
// priorities within a group, no affinity pinning beyond per-task
// goroutine-local submission, no persistence, no cross-process
// scheduling, and no I/O reactor of its own — the IO group is a
// scheduling tier, not an event-loop implementation.
package taskpool
