package scheduler

import (
	"github.com/fedcrawl/fedcrawl/internal/model"
)

// ItemIngested is emitted exactly once per successfully fingerprinted
// content item, duplicates included.
type ItemIngested struct {
	EntityID   model.EntityID
	Offset     int64
	PayloadRef string
	Outcome    model.Outcome
}

// EdgeDiscovered is emitted when a reference to a previously unknown
// entity is accepted into the frontier.
type EdgeDiscovered struct {
	SourceID model.EntityID
	TargetID model.EntityID
	Depth    int
}

// EntityTransition is emitted when an entity reaches a terminal state.
type EntityTransition struct {
	ID    model.EntityID
	State model.EntityState
}

// AccountSuspended is emitted when an account is permanently removed
// from rotation.
type AccountSuspended struct {
	ID model.AccountID
}

// EventSink receives run events. Implementations must be safe for
// concurrent use: ItemIngested is delivered from worker goroutines while
// the rest arrive from the dispatch loop.
type EventSink interface {
	ItemIngested(ev ItemIngested)
	EdgeDiscovered(ev EdgeDiscovered)
	EntityTransition(ev EntityTransition)
	AccountSuspended(ev AccountSuspended)
}

// NopSink discards all events. It is the default sink.
type NopSink struct{}

// ItemIngested implements EventSink.
func (NopSink) ItemIngested(ItemIngested) {}

// EdgeDiscovered implements EventSink.
func (NopSink) EdgeDiscovered(EdgeDiscovered) {}

// EntityTransition implements EventSink.
func (NopSink) EntityTransition(EntityTransition) {}

// AccountSuspended implements EventSink.
func (NopSink) AccountSuspended(AccountSuspended) {}

// Event is the union type carried by a ChannelSink. Exactly one field is
// non-nil.
type Event struct {
	Item       *ItemIngested
	Edge       *EdgeDiscovered
	Transition *EntityTransition
	Suspension *AccountSuspended
}

// ChannelSink forwards events to a buffered channel. Sends never block:
// when the consumer falls behind, events are dropped rather than stalling
// the dispatch loop.
type ChannelSink struct {
	C chan Event
}

// NewChannelSink creates a sink with the given buffer size.
func NewChannelSink(buffer int) *ChannelSink {
	return &ChannelSink{C: make(chan Event, buffer)}
}

func (s *ChannelSink) send(ev Event) {
	select {
	case s.C <- ev:
	default:
	}
}

// ItemIngested implements EventSink.
func (s *ChannelSink) ItemIngested(ev ItemIngested) {
	s.send(Event{Item: &ev})
}

// EdgeDiscovered implements EventSink.
func (s *ChannelSink) EdgeDiscovered(ev EdgeDiscovered) {
	s.send(Event{Edge: &ev})
}

// EntityTransition implements EventSink.
func (s *ChannelSink) EntityTransition(ev EntityTransition) {
	s.send(Event{Transition: &ev})
}

// AccountSuspended implements EventSink.
func (s *ChannelSink) AccountSuspended(ev AccountSuspended) {
	s.send(Event{Suspension: &ev})
}
