package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fedcrawl/fedcrawl/internal/fetch"
	"github.com/fedcrawl/fedcrawl/internal/model"
)

// taskResult is a worker's report back to the dispatch loop.
type taskResult struct {
	entity  model.Entity
	account model.AccountID

	// batch is non-nil on success.
	batch *fetch.Batch

	// ingested and duplicates count the committed batch's items.
	ingested   int64
	duplicates int64

	// transientFailures counts the failed transient attempts made by the
	// worker, including the final one when the attempt cap was hit. The
	// dispatch loop folds them into the account's consecutive-failure
	// counter.
	transientFailures int

	// err is the classified failure when batch is nil.
	err error
}

// loop is the dispatch loop. It is the sole writer of the frontier and
// the account pool for the lifetime of the run.
func (r *Run) loop(ctx context.Context) {
	defer close(r.done)

	results := make(chan taskResult)
	var g errgroup.Group
	g.SetLimit(r.s.cfg.Workers)

	inflight := 0
	ctxDone := ctx.Done()

	for {
		if inflight == 0 {
			if ctx.Err() != nil {
				r.err = ctx.Err()
				break
			}
			// A drained frontier is a clean finish even when the pool
			// ran out of accounts at the same moment.
			if r.frontier.Len() == 0 {
				break
			}
			if r.s.pool.Exhausted() {
				r.Pause()
				r.err = ErrPoolExhausted
				break
			}
		}

		if ctx.Err() == nil && !r.isPaused() && !r.s.pool.Exhausted() {
			inflight += r.dispatch(ctx, &g, results)
		}

		var timerC <-chan time.Time
		var timer *time.Timer
		if wakeAt, ok := r.s.pool.NextWake(); ok {
			timer = time.NewTimer(time.Until(wakeAt))
			timerC = timer.C
		}

		select {
		case res := <-results:
			inflight--
			r.handleResult(ctx, res)
		case <-r.wake:
		case <-timerC:
		case <-ctxDone:
			// Disarm so the drain of in-flight workers does not spin
			// on the closed channel.
			ctxDone = nil
		}

		if timer != nil {
			timer.Stop()
		}
	}

	// Workers have all reported by the time the loop exits.
	_ = g.Wait()
}

// dispatch starts as many tasks as accounts and worker slots allow and
// returns the number started.
func (r *Run) dispatch(ctx context.Context, g *errgroup.Group, results chan<- taskResult) int {
	started := 0

	for r.frontier.Len() > 0 {
		acct, ok := r.s.pool.Acquire()
		if !ok {
			break
		}

		entity, ok := r.frontier.PopNext()
		if !ok {
			r.s.pool.Release(acct)
			break
		}

		offset, _, err := r.s.db.Checkpoint(ctx, entity.ID)
		if err != nil {
			r.s.logger.Error("failed to read checkpoint, starting from zero",
				slog.String("entity_id", string(entity.ID)),
				slog.String("error", err.Error()))
			offset = 0
		}

		e := entity
		a := acct
		ok = g.TryGo(func() error {
			results <- r.runTask(ctx, e, a, offset)
			return nil
		})
		if !ok {
			// Worker pool saturated. Undo the lease and the pop.
			r.s.pool.Release(acct)
			r.frontier.Reschedule(entity.ID)
			break
		}

		r.s.persistEntityState(ctx, entity.ID, model.StateInProgress)
		started++
	}

	return started
}

// runTask executes one fetch task on a worker goroutine, retrying
// transient faults with jittered exponential backoff.
//
// Rate limits and permanent faults are never retried here: they are
// classified and reported for the dispatch loop to route. A storage
// fault while archiving the batch rolls the batch back and retries like
// any other transient fault.
func (r *Run) runTask(ctx context.Context, e model.Entity, acct model.AccountID, fromOffset int64) taskResult {
	res := taskResult{entity: e, account: acct}

	delay := r.s.cfg.RetryBaseDelay
	for attempt := 1; ; attempt++ {
		batch, err := r.s.fetcher.FetchBatch(ctx, acct, e.ID, fromOffset)
		if err == nil {
			ingested, duplicates, archiveErr := r.archiveBatch(ctx, e, batch)
			if archiveErr == nil {
				res.batch = batch
				res.ingested = ingested
				res.duplicates = duplicates
				return res
			}
			err = fmt.Errorf("archiving batch for %s: %w", e.ID, archiveErr)
		}

		if _, ok := fetch.AsRateLimited(err); ok {
			res.err = err
			return res
		}
		if _, ok := fetch.AsPermanent(err); ok {
			res.err = err
			return res
		}
		if ctx.Err() != nil {
			res.err = ctx.Err()
			return res
		}

		res.transientFailures++
		if attempt >= r.s.cfg.RetryMaxAttempts {
			res.err = fmt.Errorf("giving up after %d attempts: %w", attempt, err)
			return res
		}

		r.s.logger.Debug("transient fault, backing off",
			slog.String("entity_id", string(e.ID)),
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()))

		select {
		case <-time.After(jitter(delay)):
		case <-ctx.Done():
			res.err = ctx.Err()
			return res
		}

		delay *= 2
		if delay > r.s.cfg.RetryMaxDelay {
			delay = r.s.cfg.RetryMaxDelay
		}
	}
}

// archiveBatch fingerprints and registers a fetched batch inside one
// archive transaction, advancing the entity's checkpoint on commit.
// Ingestion events are emitted only after the commit succeeds, so a
// rolled-back batch emits nothing.
func (r *Run) archiveBatch(ctx context.Context, e model.Entity, b *fetch.Batch) (ingested, duplicates int64, err error) {
	batch, err := r.s.db.BeginBatch(ctx, e.ID)
	if err != nil {
		return 0, 0, fmt.Errorf("beginning batch: %w", err)
	}
	defer batch.Rollback()

	session := r.s.prints.Session(batch)

	events := make([]ItemIngested, 0, len(b.Items))
	for i := range b.Items {
		item := &b.Items[i]

		result, err := session.Check(ctx, item)
		if err != nil {
			return 0, 0, fmt.Errorf("fingerprinting item at offset %d: %w", item.Offset, err)
		}

		ingested++
		if result.Outcome.IsDuplicate() {
			duplicates++
		}
		events = append(events, ItemIngested{
			EntityID:   item.EntityID,
			Offset:     item.Offset,
			PayloadRef: item.PayloadRef,
			Outcome:    result.Outcome,
		})
	}

	if err := batch.Commit(ctx, b.NextOffset); err != nil {
		return 0, 0, fmt.Errorf("committing batch: %w", err)
	}
	session.Promote()

	for _, ev := range events {
		r.s.sink.ItemIngested(ev)
	}

	return ingested, duplicates, nil
}

// handleResult routes one task outcome. Runs on the dispatch goroutine.
func (r *Run) handleResult(ctx context.Context, res taskResult) {
	// Each transient attempt counts against the account, regardless of
	// how the task ultimately ended. A later success resets the counter.
	for i := 0; i < res.transientFailures; i++ {
		r.s.pool.RecordFailure(res.account)
	}

	if res.err == nil {
		r.handleSuccess(ctx, res)
		return
	}

	if errors.Is(res.err, context.Canceled) || errors.Is(res.err, context.DeadlineExceeded) {
		// Cancellation is not a fault. The entity stays unfinished and
		// will be picked up by a later Resume.
		r.s.pool.Release(res.account)
		r.frontier.Reschedule(res.entity.ID)
		r.s.persistEntityState(ctx, res.entity.ID, model.StatePending)
		return
	}

	if rl, ok := fetch.AsRateLimited(res.err); ok {
		until := time.Now().Add(rl.RetryAfter)
		r.s.pool.Cooldown(res.account, until)
		r.s.persistAccount(ctx, res.account)
		r.frontier.Reschedule(res.entity.ID)
		r.s.persistEntityState(ctx, res.entity.ID, model.StatePending)
		return
	}

	if pe, ok := fetch.AsPermanent(res.err); ok {
		switch pe.Scope {
		case fetch.ScopeAccount:
			r.s.pool.Suspend(res.account)
			r.s.persistAccount(ctx, res.account)
			r.s.sink.AccountSuspended(AccountSuspended{ID: res.account})
			// The entity did nothing wrong: re-dispatch on another account.
			r.frontier.Reschedule(res.entity.ID)
			r.s.persistEntityState(ctx, res.entity.ID, model.StatePending)
		case fetch.ScopeEntity:
			r.s.pool.ResetFailures(res.account)
			r.s.pool.Release(res.account)
			r.finishEntity(ctx, res.entity.ID, model.StateInaccessible)
			r.collectError(res.entity.ID, res.account, res.err)
		}
		return
	}

	// Transient fault that exhausted its retry allowance. The entity is
	// suspended, which grants it a bounded number of later attempts
	// before it becomes permanently inaccessible.
	r.s.pool.Release(res.account)
	r.s.persistAccount(ctx, res.account)
	r.finishEntity(ctx, res.entity.ID, model.StateSuspended)
	r.collectError(res.entity.ID, res.account, res.err)
}

// handleSuccess feeds discovered references into the frontier and
// completes or re-queues the entity.
func (r *Run) handleSuccess(ctx context.Context, res taskResult) {
	r.s.pool.ResetFailures(res.account)
	r.s.pool.Release(res.account)

	r.addIngested(res.ingested, res.duplicates)

	for _, ref := range res.batch.Refs {
		r.admit(ctx, ref, res.entity.ID, res.entity.Depth+1)
	}

	if res.batch.HasMore {
		r.frontier.Reschedule(res.entity.ID)
		r.s.persistEntityState(ctx, res.entity.ID, model.StatePending)
		return
	}

	r.finishEntity(ctx, res.entity.ID, model.StateCompleted)
}

// finishEntity applies a terminal outcome through the frontier, which
// may convert a suspension into a re-queue, and persists and publishes
// the resulting state.
func (r *Run) finishEntity(ctx context.Context, id model.EntityID, state model.EntityState) {
	final := r.frontier.MarkTerminal(id, state)

	if final == model.StatePending {
		// Suspension consumed a re-queue allowance instead of ending
		// the entity. Persist the bumped requeue count.
		if e, ok := r.frontier.Entity(id); ok {
			if err := r.s.db.UpsertEntity(ctx, &e); err != nil {
				r.s.logger.Error("failed to persist requeued entity",
					slog.String("entity_id", string(id)),
					slog.String("error", err.Error()))
			}
		}
		return
	}

	r.s.persistEntityState(ctx, id, final)
	r.s.sink.EntityTransition(EntityTransition{ID: id, State: final})
}

// jitter spreads a backoff delay over [d/2, d] so concurrent workers do
// not retry in lockstep.
func jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	half := d / 2
	return half + time.Duration(rand.Int64N(int64(half)+1))
}
