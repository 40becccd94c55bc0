package model

import "time"

// EntityID is the opaque, stable identifier of a crawlable target
// (channel, group, or user feed) on the remote network.
type EntityID string

// String returns the identifier as a plain string.
func (id EntityID) String() string {
	return string(id)
}

// AccountID identifies a credentialed identity used to issue requests
// against the remote network.
type AccountID string

// String returns the identifier as a plain string.
func (id AccountID) String() string {
	return string(id)
}

// EntityState represents the lifecycle state of an entity in the
// discovery frontier.
type EntityState string

// Entity lifecycle states.
//
// The only legal transitions are:
//
//	Pending -> InProgress            (popped by the scheduler)
//	InProgress -> Pending            (rescheduled: more content, retry)
//	InProgress -> Completed          (all content archived)
//	InProgress -> Inaccessible       (permanent entity fault, retry cap)
//	InProgress -> Suspended          (bounded automatic re-queue)
//	Suspended -> Pending             (automatic re-queue, bounded)
//	Suspended -> Inaccessible        (re-queue allowance exhausted)
const (
	// StatePending means the entity is queued for crawling.
	StatePending EntityState = "pending"
	// StateInProgress means a fetch task for the entity is in flight.
	StateInProgress EntityState = "in_progress"
	// StateCompleted means all reachable content has been archived.
	StateCompleted EntityState = "completed"
	// StateInaccessible means the entity cannot be crawled (deleted,
	// access revoked, or retries exhausted). Terminal.
	StateInaccessible EntityState = "inaccessible"
	// StateSuspended means the entity was temporarily unreachable and is
	// eligible for a bounded number of automatic re-queues.
	StateSuspended EntityState = "suspended"
)

// String returns the string representation of the state.
func (s EntityState) String() string {
	return string(s)
}

// IsTerminal reports whether the state ends the entity's participation in
// the crawl. Completed and Inaccessible entities never re-enter the
// frontier unless explicitly re-queued by an external caller.
func (s EntityState) IsTerminal() bool {
	return s == StateCompleted || s == StateInaccessible
}

// IsValid reports whether the state is one of the known lifecycle states.
func (s EntityState) IsValid() bool {
	switch s {
	case StatePending, StateInProgress, StateCompleted, StateInaccessible, StateSuspended:
		return true
	default:
		return false
	}
}

// EntityRef is a reference to an entity discovered inside fetched content
// (a forward, a mention, an invite link). References carry no state; the
// frontier decides whether a reference becomes a crawlable Entity.
type EntityRef struct {
	// ID is the stable identifier of the referenced entity.
	ID EntityID

	// Label is an optional human-readable name carried by the reference.
	// It is informational only and never used for identity.
	Label string
}

// Entity is a crawlable target tracked by the discovery frontier.
//
// Entities are created when first referenced (by the seed list or by
// content discovered elsewhere), mutated only by the scheduler upon task
// outcomes, and never deleted. Terminal states are recorded, not erased.
type Entity struct {
	// ID is the opaque stable identifier of the target.
	ID EntityID

	// SourceID is the entity through which this one was first discovered.
	// Empty for seeds.
	SourceID EntityID

	// DiscoveredAt is when the entity was first referenced.
	DiscoveredAt time.Time

	// Priority orders the frontier. It is recomputed additively as new
	// inbound references arrive and capped so indegree alone cannot
	// dominate depth and budget constraints.
	Priority float64

	// State is the entity's current lifecycle state.
	State EntityState

	// Depth is the number of hops from the nearest seed.
	Depth int

	// Requeues counts automatic re-queues after suspension. Once it
	// reaches the configured allowance the entity becomes Inaccessible.
	Requeues int
}
