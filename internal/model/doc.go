// Package model defines the core data types shared across the fedcrawl
// engine: crawlable entities, archivable content items, media kinds, and
// content fingerprints.
//
// The types in this package are plain data carriers. They hold no locks and
// perform no I/O; lifecycle rules (who may mutate what, and when) are
// enforced by the owning components:
//
//   - Entity records are mutated only by the scheduler in response to task
//     outcomes, via the frontier's state machine.
//   - ContentItem values are created when fetched and immutable thereafter.
//   - FingerprintSet values are derived from a ContentItem's payload by the
//     fingerprint store.
//
// Design decision: MediaKind is a closed string enum with the fingerprinting
// strategy resolved by a switch in Tier(), not by reflection. The remote
// network's payloads are dynamically shaped; modelling them as a closed
// tagged variant keeps every fingerprinting decision explicit and testable.
package model
