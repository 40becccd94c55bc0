package frontier

import (
	"container/heap"
	"sync"
	"time"

	"github.com/fedcrawl/fedcrawl/internal/model"
)

// Frontier maintains the discovery state of one crawl run: an arena of
// all entities ever accepted, and a priority queue of the subset waiting
// to be fetched.
//
// The scheduler's dispatch loop is the only writer during a run, but a
// mutex guards all state so Status snapshots can be taken concurrently.
type Frontier struct {
	// mu protects all fields below.
	mu sync.Mutex

	// records is the arena of accepted entities keyed by stable ID.
	// Records are never removed, only marked terminal.
	records map[model.EntityID]*record

	// queue is the priority heap over records currently Pending.
	queue entityHeap

	// accepted counts entities admitted to the run. A hard budget:
	// once it reaches targetBudget, Push becomes a no-op for unknown
	// entities while known ones may still complete.
	accepted int

	// seq provides the deterministic discovery-order tie-break.
	seq int64

	maxDepth     int
	targetBudget int
	depthWeight  float64
	refBonus     float64
	priorityCap  float64
	maxRequeues  int

	// now is the clock, replaceable in tests.
	now func() time.Time
}

// record wraps an entity with its heap bookkeeping.
type record struct {
	entity model.Entity
	seq    int64
	index  int // heap index, -1 when not queued
	queued bool
}

// Option configures a Frontier.
type Option func(*Frontier)

// WithMaxDepth sets the hop budget from the nearest seed.
// Pushes whose depth exceeds it are dropped.
func WithMaxDepth(depth int) Option {
	return func(f *Frontier) {
		f.maxDepth = depth
	}
}

// WithTargetBudget sets the maximum number of entities the run admits.
func WithTargetBudget(budget int) Option {
	return func(f *Frontier) {
		f.targetBudget = budget
	}
}

// WithDepthWeight sets how strongly depth discounts effective priority.
// The relative weighting of priority and depth is a policy choice, so it
// is exposed rather than hardcoded.
func WithDepthWeight(w float64) Option {
	return func(f *Frontier) {
		f.depthWeight = w
	}
}

// WithRefBonus sets the additive priority increment applied per
// additional inbound reference to a known entity.
func WithRefBonus(b float64) Option {
	return func(f *Frontier) {
		f.refBonus = b
	}
}

// WithPriorityCap bounds accumulated priority so indegree alone cannot
// dominate depth and budget constraints.
func WithPriorityCap(cap float64) Option {
	return func(f *Frontier) {
		f.priorityCap = cap
	}
}

// WithMaxRequeues bounds automatic re-queues of suspended entities.
func WithMaxRequeues(n int) Option {
	return func(f *Frontier) {
		f.maxRequeues = n
	}
}

// New creates an empty Frontier.
func New(opts ...Option) *Frontier {
	f := &Frontier{
		records:      make(map[model.EntityID]*record),
		maxDepth:     4,
		targetBudget: 500,
		depthWeight:  0.5,
		refBonus:     1.0,
		priorityCap:  16.0,
		maxRequeues:  2,
		now:          time.Now,
	}

	f.queue.f = f

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Push offers an entity reference to the frontier and reports whether a
// new entity was accepted.
//
// A reference to a known entity never creates a second frontier record:
// it only bumps the entity's priority by the reference bonus, capped.
// References beyond the depth budget, or arriving after the target budget
// is exhausted, are dropped.
func (f *Frontier) Push(ref model.EntityRef, source model.EntityID, depth int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if rec, ok := f.records[ref.ID]; ok {
		f.bump(rec)
		return false
	}

	if depth > f.maxDepth {
		return false
	}
	if f.accepted >= f.targetBudget {
		return false
	}

	rec := &record{
		entity: model.Entity{
			ID:           ref.ID,
			SourceID:     source,
			DiscoveredAt: f.now(),
			Priority:     f.refBonus,
			State:        model.StatePending,
			Depth:        depth,
		},
		seq:   f.seq,
		index: -1,
	}
	f.seq++
	f.accepted++

	f.records[ref.ID] = rec
	heap.Push(&f.queue, rec)

	return true
}

// Restore re-admits an entity with its persisted priority, depth, and
// requeue count. Resume uses this to rebuild the frontier from durable
// state; restored entities count against the target budget.
func (f *Frontier) Restore(e model.Entity) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.records[e.ID]; ok {
		return false
	}

	e.State = model.StatePending
	rec := &record{
		entity: e,
		seq:    f.seq,
		index:  -1,
	}
	f.seq++
	f.accepted++

	f.records[e.ID] = rec
	heap.Push(&f.queue, rec)

	return true
}

// Boost adds delta to an entity's priority, subject to the cap.
// Used for operator-configured per-entity priority overrides.
func (f *Frontier) Boost(id model.EntityID, delta float64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, ok := f.records[id]
	if !ok {
		return
	}

	rec.entity.Priority += delta
	if rec.entity.Priority > f.priorityCap {
		rec.entity.Priority = f.priorityCap
	}
	if rec.queued {
		heap.Fix(&f.queue, rec.index)
	}
}

// bump applies the per-reference priority increment. Caller holds f.mu.
func (f *Frontier) bump(rec *record) {
	rec.entity.Priority += f.refBonus
	if rec.entity.Priority > f.priorityCap {
		rec.entity.Priority = f.priorityCap
	}
	if rec.queued {
		heap.Fix(&f.queue, rec.index)
	}
}

// PopNext removes and returns the highest-priority pending entity,
// transitioning it to InProgress. The second return value is false when
// nothing is pending.
func (f *Frontier) PopNext() (model.Entity, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.queue.Len() == 0 {
		return model.Entity{}, false
	}

	rec := heap.Pop(&f.queue).(*record)
	rec.entity.State = model.StateInProgress

	return rec.entity, true
}

// Reschedule returns an in-progress entity to Pending and re-queues it.
// Used when a task must be retried (rate limit, account suspension) or
// when an entity has more content beyond the completed batch.
func (f *Frontier) Reschedule(id model.EntityID) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, ok := f.records[id]
	if !ok || rec.queued || rec.entity.State.IsTerminal() {
		return
	}

	rec.entity.State = model.StatePending
	heap.Push(&f.queue, rec)
}

// MarkTerminal applies a task outcome state to an entity and returns the
// state actually recorded.
//
// Completed and Inaccessible are applied as given. Suspended consumes one
// unit of the re-queue allowance and returns the entity to Pending; once
// the allowance is exhausted the entity becomes permanently Inaccessible.
func (f *Frontier) MarkTerminal(id model.EntityID, state model.EntityState) model.EntityState {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, ok := f.records[id]
	if !ok {
		return state
	}

	if state == model.StateSuspended {
		if rec.entity.Requeues < f.maxRequeues {
			rec.entity.Requeues++
			rec.entity.State = model.StatePending
			if !rec.queued {
				heap.Push(&f.queue, rec)
			}
			return model.StatePending
		}
		state = model.StateInaccessible
	}

	rec.entity.State = state
	return state
}

// Requeue explicitly re-admits a terminal entity for re-crawling.
// This is the external re-crawl request: nothing inside the engine calls
// it, preserving the invariant that Completed entities never re-enter the
// frontier on their own.
func (f *Frontier) Requeue(id model.EntityID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, ok := f.records[id]
	if !ok || rec.queued || !rec.entity.State.IsTerminal() {
		return false
	}

	rec.entity.State = model.StatePending
	rec.entity.Requeues = 0
	heap.Push(&f.queue, rec)

	return true
}

// Len returns the number of pending entities in the queue.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queue.Len()
}

// Accepted returns the number of entities admitted so far.
func (f *Frontier) Accepted() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.accepted
}

// Entity returns a copy of an entity's current record.
func (f *Frontier) Entity(id model.EntityID) (model.Entity, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, ok := f.records[id]
	if !ok {
		return model.Entity{}, false
	}
	return rec.entity, true
}

// Counts returns the number of entities per lifecycle state.
func (f *Frontier) Counts() map[model.EntityState]int {
	f.mu.Lock()
	defer f.mu.Unlock()

	counts := make(map[model.EntityState]int)
	for _, rec := range f.records {
		counts[rec.entity.State]++
	}
	return counts
}

// effective returns the depth-discounted priority used for ordering.
func (f *Frontier) effective(rec *record) float64 {
	return rec.entity.Priority - f.depthWeight*float64(rec.entity.Depth)
}
