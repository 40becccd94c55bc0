// Package store provides SQLite-based durable storage for the archiving
// engine.
//
// The ArchiveDB holds every piece of crash-survivable state:
//   - entities: one row per discovered entity with its lifecycle state
//   - checkpoints: one row per entity, the last completed content offset
//   - fingerprints: the exact-digest index plus secondary (perceptual or
//     fuzzy) fingerprints and first-seen references with duplicate counts
//   - accounts: cooldown, failure, and suspension state per account
//
// Design decision: SQLite via modernc.org/sqlite because the archive is a
// single file, the driver is CGO-free (easy cross-compilation), and WAL
// mode gives good concurrent read performance. A single writer connection
// serializes all mutations, which is exactly the keyed-serialization the
// engine's concurrency model asks for.
//
// The one non-negotiable invariant lives here: a batch's checkpoint
// advance and its fingerprint registrations commit as one transaction
// (see Batch). A crash can therefore never leave a fingerprint registered
// without its checkpoint advanced, or vice versa.
package store
