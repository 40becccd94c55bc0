// Package frontier maintains the graph-exploration state of a crawl: the
// set of entities discovered so far and the priority queue of entities
// waiting to be fetched. It performs no network or storage I/O.
//
// Ordering is priority descending (discounted by depth through a
// configurable weight), then depth ascending so shallower discoveries win
// ties, then discovery order for determinism under equal scores.
//
// The visited-set invariant is what keeps the crawl a simple graph even
// though the underlying reference graph has cycles and diamonds: an entity
// in Pending or InProgress is never queued twice. A duplicate Push only
// bumps its priority by the capped additive reference bonus.
//
// Design decision: entities live in an arena-style table keyed by stable
// ID; edges are ID references, never owning pointers. No cycle-breaking
// logic beyond "don't re-push if already known" is required.
package frontier
