// Package scheduler drives a crawl run: it dispatches fetch tasks over a
// bounded worker pool, binds each task to an eligible account, routes
// task outcomes, and advances durable checkpoints.
//
// Design decision: a single dispatch goroutine owns the frontier and the
// account pool. Workers never touch either; they fetch, fingerprint, and
// report back over a channel. This keeps the ordering and budget
// invariants in one place instead of scattering them behind locks.
//
// The outcome taxonomy routes as follows:
//
//   - success: checkpoint advanced in the batch transaction, discovered
//     references pushed, entity completed or re-queued when more content
//     remains.
//   - rate limited: the account cools down for exactly the wait the
//     remote demanded, the entity returns to the frontier unchanged. Not
//     counted as a failure.
//   - transient fault: retried inside the worker with jittered
//     exponential backoff up to the attempt cap, then the entity becomes
//     inaccessible and the error is collected.
//   - permanent entity fault: the entity becomes inaccessible immediately.
//   - permanent account fault: the account is suspended for good and the
//     entity is re-dispatched on a different account.
//
// A storage fault while archiving a fetched batch rolls the whole batch
// back and is retried as a transient fault, so a batch is always applied
// atomically or not at all.
package scheduler
