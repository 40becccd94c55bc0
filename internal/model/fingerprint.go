package model

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// FingerprintSet holds all fingerprints derived from one content payload.
//
// Every item has exactly one exact digest. Depending on the media kind's
// tier, it additionally carries either a perceptual hash or a fuzzy
// signature, never both.
type FingerprintSet struct {
	// Exact is the hex-encoded BLAKE2b-256 digest of the full payload.
	// Equality is identity: collisions are astronomically improbable.
	Exact string

	// Perceptual is the hex-encoded 64-bit difference hash for visual
	// content. Empty for non-perceptual kinds or when the payload could
	// not be decoded as an image.
	Perceptual string

	// Fuzzy is the ssdeep signature for text and file content. Empty
	// for non-fuzzy kinds or payloads too degenerate to signature.
	Fuzzy string
}

// ExactDigest computes the hex-encoded BLAKE2b-256 digest of payload.
//
// Design decision: BLAKE2b over SHA-256 because the digest is computed on
// every fetched item, payloads can be multi-megabyte media files, and
// BLAKE2b is considerably faster in pure Go while offering the same
// collision resistance for content addressing.
func ExactDigest(payload []byte) string {
	sum := blake2b.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// Outcome classifies the result of a fingerprint check.
type Outcome string

// Fingerprint check outcomes.
const (
	// OutcomeNew means the content has never been seen before at any tier.
	OutcomeNew Outcome = "new"
	// OutcomeExactDuplicate means a byte-identical payload was seen before.
	OutcomeExactDuplicate Outcome = "exact_duplicate"
	// OutcomeNearDuplicate means a payload within the configured
	// similarity threshold was seen before.
	OutcomeNearDuplicate Outcome = "near_duplicate"
)

// String returns the string representation of the outcome.
func (o Outcome) String() string {
	return string(o)
}

// IsDuplicate reports whether the outcome identifies previously seen
// content, exactly or approximately.
func (o Outcome) IsDuplicate() bool {
	return o == OutcomeExactDuplicate || o == OutcomeNearDuplicate
}

// ItemRef locates the first-seen content item for a fingerprint record.
type ItemRef struct {
	// EntityID is the entity the first-seen item belongs to.
	EntityID EntityID

	// Offset is the first-seen item's sequence offset within that entity.
	Offset int64
}
