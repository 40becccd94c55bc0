// Package fingerprint implements multi-tier content deduplication for the
// archiving engine.
//
// Every payload gets an exact BLAKE2b-256 digest. Depending on the media
// kind, a secondary fingerprint is computed as well: a 64-bit perceptual
// difference hash for visual content (compared by Hamming distance) or an
// ssdeep rolling-hash signature for text and files (compared by the 0-100
// ssdeep match score). Items at or above the configured similarity
// threshold are near-duplicates; the boundary is inclusive.
//
// Checks run in three stages: a bounded LRU recency cache keyed by exact
// digest, the durable exact index, then a same-kind secondary similarity
// scan. The cache is sized to the working set of recent batches, not the
// corpus: forwarded content recurs within hours and that is the hit the
// cache is for.
//
// Failure semantics: a storage error during registration fails the check
// closed. The caller must not treat the item as ingested, which keeps
// unfingerprinted content out of the corpus. Cache population is deferred
// until the enclosing batch commits for the same reason: a rolled-back
// registration must not leave a cache entry claiming the content is known.
package fingerprint
