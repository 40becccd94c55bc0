package config

import "errors"

// Configuration validation errors returned by Config.Validate().
//
// Design decision: package-level sentinel errors rather than error values
// created inside Validate(), so callers can branch with errors.Is() while
// the messages stay human-readable. Plain errors.New because no dynamic
// values are needed.
var (
	// ErrInvalidWorkers is returned when the worker pool size is not positive.
	ErrInvalidWorkers = errors.New("invalid workers: must be positive")

	// ErrInvalidMaxDepth is returned when the depth budget is negative.
	// Zero is valid and means "seeds only".
	ErrInvalidMaxDepth = errors.New("invalid max depth: must be non-negative")

	// ErrInvalidTargetBudget is returned when the entity admission budget
	// is not positive. A zero budget would admit nothing, not even seeds.
	ErrInvalidTargetBudget = errors.New("invalid target budget: must be positive")

	// ErrInvalidCacheSize is returned when the fingerprint recency cache
	// capacity is not positive.
	ErrInvalidCacheSize = errors.New("invalid cache size: must be positive")

	// ErrInvalidPerceptualDistance is returned when the perceptual
	// Hamming-distance threshold is outside the 0-64 bit range of the hash.
	ErrInvalidPerceptualDistance = errors.New("invalid perceptual distance: must be between 0 and 64")

	// ErrInvalidFuzzyThreshold is returned when the ssdeep score threshold
	// is outside its 0-100 scale.
	ErrInvalidFuzzyThreshold = errors.New("invalid fuzzy threshold: must be between 0 and 100")

	// ErrInvalidRetryDelay is returned when the backoff delays are not
	// positive or the cap is below the base.
	ErrInvalidRetryDelay = errors.New("invalid retry delays: base must be positive and max must be >= base")

	// ErrInvalidRetryAttempts is returned when the transient-failure
	// attempt cap is not positive.
	ErrInvalidRetryAttempts = errors.New("invalid retry attempts: must be positive")

	// ErrInvalidMaxRequeues is returned when the suspension re-queue
	// allowance is negative. Zero is valid and disables re-queues.
	ErrInvalidMaxRequeues = errors.New("invalid max requeues: must be non-negative")
)
