package accounts

import (
	"log/slog"
	"sync"
	"time"

	"github.com/fedcrawl/fedcrawl/internal/model"
)

// account tracks one identity's availability.
type account struct {
	id                  model.AccountID
	busy                bool
	cooldownUntil       time.Time
	consecutiveFailures int
	suspended           bool

	// lastLeased orders the idle rotation. Acquire prefers the account
	// idle longest, so load spreads evenly across the pool.
	lastLeased int64
}

// State is a snapshot of one account's persisted health, used to carry
// pool state across runs.
type State struct {
	ID                  model.AccountID
	CooldownUntil       time.Time
	ConsecutiveFailures int
	Suspended           bool
}

// Pool manages the rotation of crawler accounts.
//
// All methods are safe for concurrent use. An account leased via Acquire
// is unavailable to other callers until Release, which is what serializes
// network traffic per identity.
type Pool struct {
	mu       sync.Mutex
	accounts map[model.AccountID]*account
	leaseSeq int64
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Pool.
type Option func(*Pool)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pool) {
		p.logger = logger
	}
}

// NewPool creates a pool over the given account identifiers.
func NewPool(ids []model.AccountID, opts ...Option) (*Pool, error) {
	if len(ids) == 0 {
		return nil, ErrNoAccounts
	}

	p := &Pool{
		accounts: make(map[model.AccountID]*account, len(ids)),
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}

	for i, id := range ids {
		p.accounts[id] = &account{
			id:         id,
			lastLeased: int64(i),
		}
		p.leaseSeq = int64(i + 1)
	}

	return p, nil
}

// Restore applies persisted health to a registered account. Unknown
// accounts are ignored: the operator may have rotated credentials out of
// the configured set since the state was written.
func (p *Pool) Restore(st State) {
	p.mu.Lock()
	defer p.mu.Unlock()

	acct, ok := p.accounts[st.ID]
	if !ok {
		return
	}

	acct.cooldownUntil = st.CooldownUntil
	acct.consecutiveFailures = st.ConsecutiveFailures
	acct.suspended = st.Suspended
}

// Acquire leases the eligible account that has been idle longest.
// It returns false when no account is currently eligible, either because
// all are busy, cooling down, or suspended.
func (p *Pool) Acquire() (model.AccountID, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()

	var best *account
	for _, acct := range p.accounts {
		if acct.busy || acct.suspended || now.Before(acct.cooldownUntil) {
			continue
		}
		if best == nil || acct.lastLeased < best.lastLeased {
			best = acct
		}
	}
	if best == nil {
		return "", false
	}

	best.busy = true
	best.lastLeased = p.leaseSeq
	p.leaseSeq++

	return best.id, true
}

// Release returns a leased account to the rotation.
func (p *Pool) Release(id model.AccountID) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if acct, ok := p.accounts[id]; ok {
		acct.busy = false
	}
}

// Cooldown removes an account from rotation until the given deadline.
// The lease is released as part of the cooldown.
func (p *Pool) Cooldown(id model.AccountID, until time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()

	acct, ok := p.accounts[id]
	if !ok {
		return
	}

	acct.busy = false
	if until.After(acct.cooldownUntil) {
		acct.cooldownUntil = until
	}

	p.logger.Debug("account cooling down",
		slog.String("account_id", string(id)),
		slog.Time("until", acct.cooldownUntil))
}

// Suspend permanently removes an account from rotation and releases its
// lease. Suspension survives restarts and is never undone by the engine.
func (p *Pool) Suspend(id model.AccountID) {
	p.mu.Lock()
	defer p.mu.Unlock()

	acct, ok := p.accounts[id]
	if !ok {
		return
	}

	acct.busy = false
	acct.suspended = true

	p.logger.Warn("account suspended", slog.String("account_id", string(id)))
}

// RecordFailure increments an account's consecutive transient failure
// count and returns the new count.
func (p *Pool) RecordFailure(id model.AccountID) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	acct, ok := p.accounts[id]
	if !ok {
		return 0
	}

	acct.consecutiveFailures++
	return acct.consecutiveFailures
}

// ResetFailures clears an account's consecutive failure count after a
// successful operation.
func (p *Pool) ResetFailures(id model.AccountID) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if acct, ok := p.accounts[id]; ok {
		acct.consecutiveFailures = 0
	}
}

// Exhausted reports whether every account in the pool is suspended.
// An exhausted pool cannot make progress and the run must pause.
func (p *Pool) Exhausted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, acct := range p.accounts {
		if !acct.suspended {
			return false
		}
	}
	return true
}

// NextWake returns the earliest time at which a currently cooling
// account becomes eligible. The second return value is false when no
// account is waiting on a cooldown.
func (p *Pool) NextWake() (time.Time, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()

	var wake time.Time
	for _, acct := range p.accounts {
		if acct.suspended || acct.busy || !now.Before(acct.cooldownUntil) {
			continue
		}
		if wake.IsZero() || acct.cooldownUntil.Before(wake) {
			wake = acct.cooldownUntil
		}
	}
	if wake.IsZero() {
		return time.Time{}, false
	}
	return wake, true
}

// Size returns the number of registered accounts.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.accounts)
}

// SuspendedCount returns the number of suspended accounts.
func (p *Pool) SuspendedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	count := 0
	for _, acct := range p.accounts {
		if acct.suspended {
			count++
		}
	}
	return count
}

// States returns a persisted-health snapshot of every account.
func (p *Pool) States() []State {
	p.mu.Lock()
	defer p.mu.Unlock()

	states := make([]State, 0, len(p.accounts))
	for _, acct := range p.accounts {
		states = append(states, State{
			ID:                  acct.id,
			CooldownUntil:       acct.cooldownUntil,
			ConsecutiveFailures: acct.consecutiveFailures,
			Suspended:           acct.suspended,
		})
	}
	return states
}
