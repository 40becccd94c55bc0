package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fedcrawl/fedcrawl/internal/accounts"
	"github.com/fedcrawl/fedcrawl/internal/config"
	"github.com/fedcrawl/fedcrawl/internal/fetch"
	"github.com/fedcrawl/fedcrawl/internal/fingerprint"
	"github.com/fedcrawl/fedcrawl/internal/frontier"
	"github.com/fedcrawl/fedcrawl/internal/model"
	"github.com/fedcrawl/fedcrawl/internal/store"
)

// maxCollectedErrors bounds the task error collector. Older errors are
// dropped first.
const maxCollectedErrors = 64

// Scheduler wires the fetcher, fingerprint store, archive, and account
// pool into crawl runs. One Scheduler drives at most one run at a time.
type Scheduler struct {
	cfg       *config.Config
	db        *store.ArchiveDB
	prints    *fingerprint.Store
	fetcher   fetch.Fetcher
	pool      *accounts.Pool
	sink      EventSink
	overrides *config.File
	logger    *slog.Logger

	mu  sync.Mutex
	run *Run
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// WithEventSink sets the outbound event sink.
func WithEventSink(sink EventSink) Option {
	return func(s *Scheduler) {
		s.sink = sink
	}
}

// WithOverrides sets per-entity operator overrides (priority boosts and
// skip lists) loaded from the config file.
func WithOverrides(f *config.File) Option {
	return func(s *Scheduler) {
		s.overrides = f
	}
}

// New creates a Scheduler over its collaborators. The fingerprint store
// is built here from the config's cache size, similarity thresholds, and
// secondary-tier toggles, and per-entity overrides default to the ones
// carried by the config (WithOverrides replaces them).
func New(cfg *config.Config, db *store.ArchiveDB, fetcher fetch.Fetcher, pool *accounts.Pool, opts ...Option) (*Scheduler, error) {
	if cfg == nil || db == nil || fetcher == nil || pool == nil {
		return nil, errors.New("scheduler: all collaborators are required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	s := &Scheduler{
		cfg:       cfg,
		db:        db,
		fetcher:   fetcher,
		pool:      pool,
		sink:      NopSink{},
		overrides: cfg.Entities,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	prints, err := fingerprint.New(cfg.CacheSize,
		fingerprint.WithPerceptualMaxDistance(cfg.PerceptualMaxDistance),
		fingerprint.WithFuzzyThreshold(cfg.FuzzyThreshold),
		fingerprint.WithPerceptual(cfg.EnablePerceptual),
		fingerprint.WithFuzzy(cfg.EnableFuzzy),
		fingerprint.WithLogger(s.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("building fingerprint store: %w", err)
	}
	s.prints = prints

	return s, nil
}

// TaskError records one failed task for the Status surface.
type TaskError struct {
	EntityID  model.EntityID
	AccountID model.AccountID
	Time      time.Time
	Err       error
}

// Status is a point-in-time snapshot of a run.
type Status struct {
	EntitiesPending      int
	EntitiesInProgress   int
	EntitiesCompleted    int
	EntitiesInaccessible int
	AccountsSuspended    int
	ItemsIngested        int64
	DuplicatesFound      int64
	Paused               bool
	Errors               []TaskError
}

// Run is one crawl in flight.
type Run struct {
	s        *Scheduler
	frontier *frontier.Frontier

	done chan struct{}
	err  error

	paused bool
	wake   chan struct{}

	mu              sync.Mutex
	itemsIngested   int64
	duplicatesFound int64
	taskErrs        []TaskError
}

// Seed starts a run from the given seed entities at depth zero.
func (s *Scheduler) Seed(ctx context.Context, seeds []model.EntityRef) (*Run, error) {
	if len(seeds) == 0 {
		return nil, ErrNoSeeds
	}

	r, err := s.startRun()
	if err != nil {
		return nil, err
	}

	for _, ref := range seeds {
		r.admit(ctx, ref, "", 0)
	}

	go r.loop(ctx)
	return r, nil
}

// Resume rebuilds a run from durable state: unfinished entities re-enter
// the frontier with their persisted priority and depth, fetches restart
// from each entity's checkpoint, and account health carries over.
func (s *Scheduler) Resume(ctx context.Context) (*Run, error) {
	unfinished, err := s.db.ListUnfinishedEntities(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading unfinished entities: %w", err)
	}
	if len(unfinished) == 0 {
		return nil, ErrNothingToResume
	}

	states, err := s.db.LoadAccountStates(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading account states: %w", err)
	}

	r, err := s.startRun()
	if err != nil {
		return nil, err
	}

	for _, st := range states {
		s.pool.Restore(accounts.State{
			ID:                  st.ID,
			CooldownUntil:       st.CooldownUntil,
			ConsecutiveFailures: st.ConsecutiveFailures,
			Suspended:           st.Suspended,
		})
	}
	for _, e := range unfinished {
		r.frontier.Restore(e)
	}

	s.logger.Info("resuming run",
		slog.Int("entities", len(unfinished)),
		slog.Int("accounts", len(states)))

	go r.loop(ctx)
	return r, nil
}

// startRun allocates the Run if no other run is active.
func (s *Scheduler) startRun() (*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.run != nil {
		select {
		case <-s.run.done:
		default:
			return nil, ErrRunActive
		}
	}

	r := &Run{
		s: s,
		frontier: frontier.New(
			frontier.WithMaxDepth(s.cfg.MaxDepth),
			frontier.WithTargetBudget(s.cfg.TargetBudget),
			frontier.WithDepthWeight(s.cfg.DepthWeight),
			frontier.WithRefBonus(s.cfg.RefBonus),
			frontier.WithPriorityCap(s.cfg.PriorityCap),
			frontier.WithMaxRequeues(s.cfg.MaxRequeues),
		),
		done: make(chan struct{}),
		wake: make(chan struct{}, 1),
	}
	s.run = r

	return r, nil
}

// Wait blocks until the run finishes and returns its terminal error, if
// any. A drained frontier is a clean finish; an exhausted account pool
// surfaces as ErrPoolExhausted.
func (r *Run) Wait() error {
	<-r.done
	return r.err
}

// Pause stops dispatching new tasks. In-flight tasks run to completion
// and their batches are committed.
func (r *Run) Pause() {
	r.mu.Lock()
	r.paused = true
	r.mu.Unlock()
	r.nudge()
}

// Resume restarts dispatching after a Pause.
func (r *Run) Resume() {
	r.mu.Lock()
	r.paused = false
	r.mu.Unlock()
	r.nudge()
}

func (r *Run) isPaused() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.paused
}

func (r *Run) nudge() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Status reports the run's progress counters and collected task errors.
func (r *Run) Status() Status {
	counts := r.frontier.Counts()

	r.mu.Lock()
	defer r.mu.Unlock()

	errs := make([]TaskError, len(r.taskErrs))
	copy(errs, r.taskErrs)

	return Status{
		EntitiesPending:      counts[model.StatePending],
		EntitiesInProgress:   counts[model.StateInProgress],
		EntitiesCompleted:    counts[model.StateCompleted],
		EntitiesInaccessible: counts[model.StateInaccessible],
		AccountsSuspended:    r.s.pool.SuspendedCount(),
		ItemsIngested:        r.itemsIngested,
		DuplicatesFound:      r.duplicatesFound,
		Paused:               r.paused,
		Errors:               errs,
	}
}

// admit pushes a reference into the frontier, honoring operator skip
// lists and priority boosts, and persists accepted entities.
func (r *Run) admit(ctx context.Context, ref model.EntityRef, source model.EntityID, depth int) bool {
	var ec config.EntityConfig
	if r.s.overrides != nil {
		ec = r.s.overrides.GetEntityConfig(string(ref.ID))
	}
	if ec.Skip {
		return false
	}
	if ec.MaxDepth > 0 && depth > ec.MaxDepth {
		return false
	}

	if !r.frontier.Push(ref, source, depth) {
		return false
	}

	if ec.PriorityBoost != 0 {
		r.frontier.Boost(ref.ID, ec.PriorityBoost)
	}

	if e, ok := r.frontier.Entity(ref.ID); ok {
		if err := r.s.db.UpsertEntity(ctx, &e); err != nil {
			r.s.logger.Error("failed to persist entity",
				slog.String("entity_id", string(ref.ID)),
				slog.String("error", err.Error()))
		}
	}

	if source != "" {
		r.s.sink.EdgeDiscovered(EdgeDiscovered{
			SourceID: source,
			TargetID: ref.ID,
			Depth:    depth,
		})
	}

	return true
}

func (r *Run) collectError(e model.EntityID, acct model.AccountID, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.taskErrs) >= maxCollectedErrors {
		r.taskErrs = r.taskErrs[1:]
	}
	r.taskErrs = append(r.taskErrs, TaskError{
		EntityID:  e,
		AccountID: acct,
		Time:      time.Now(),
		Err:       err,
	})
}

func (r *Run) addIngested(items, duplicates int64) {
	r.mu.Lock()
	r.itemsIngested += items
	r.duplicatesFound += duplicates
	r.mu.Unlock()
}

// persistAccount writes one account's pool health to the archive.
func (s *Scheduler) persistAccount(ctx context.Context, id model.AccountID) {
	for _, st := range s.pool.States() {
		if st.ID != id {
			continue
		}
		err := s.db.SaveAccountState(ctx, store.AccountState{
			ID:                  st.ID,
			CooldownUntil:       st.CooldownUntil,
			ConsecutiveFailures: st.ConsecutiveFailures,
			Suspended:           st.Suspended,
		})
		if err != nil {
			s.logger.Error("failed to persist account state",
				slog.String("account_id", string(id)),
				slog.String("error", err.Error()))
		}
		return
	}
}

// persistEntityState writes an entity's lifecycle state, logging rather
// than failing the run on storage trouble.
func (s *Scheduler) persistEntityState(ctx context.Context, id model.EntityID, state model.EntityState) {
	if err := s.db.UpdateEntityState(ctx, id, state); err != nil {
		s.logger.Error("failed to persist entity state",
			slog.String("entity_id", string(id)),
			slog.String("state", state.String()),
			slog.String("error", err.Error()))
	}
}
