package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These are chosen for a hostile, slow, rate-limit-happy remote network:
// conservative concurrency, generous backoff, and dedup thresholds that
// favour precision over recall.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "fedcrawl"

	// DefaultWorkers is the size of the bounded worker pool. The pool is
	// independent of the account count: workers without an eligible
	// account park rather than spin. Eight workers keeps a handful of
	// accounts busy without flooding the remote.
	DefaultWorkers = 8

	// DefaultMaxDepth limits how many hops from the nearest seed the
	// discovery frontier will accept. Entity graphs on the remote
	// network are dense; beyond a few hops relevance drops sharply.
	DefaultMaxDepth = 4

	// DefaultTargetBudget is the maximum number of entities a run will
	// accept out of Pending. This is a hard admission limit, not a goal:
	// discovery stops admitting once the count is reached while
	// in-progress entities are allowed to finish.
	DefaultTargetBudget = 500

	// DefaultCacheSize is the capacity of the fingerprint recency cache.
	// It is sized to the working set of the most recently processed
	// batches, not the corpus: forwarded content tends to recur within
	// hours, which a few thousand entries cover.
	DefaultCacheSize = 4096

	// DefaultPerceptualMaxDistance is the maximum Hamming distance (in
	// bits of a 64-bit difference hash) at which two images are
	// near-duplicates. The boundary is inclusive. 10 bits tolerates
	// recompression and resizing without matching unrelated images.
	DefaultPerceptualMaxDistance = 10

	// DefaultFuzzyThreshold is the minimum ssdeep match score (0-100) at
	// which two text/file payloads are near-duplicates. The boundary is
	// inclusive. 80 catches trivial edits of reposted content.
	DefaultFuzzyThreshold = 80

	// DefaultDepthWeight is how strongly depth discounts an entity's
	// effective frontier priority. The relative weighting of priority
	// and depth is a policy choice, so it is a knob rather than a
	// constant; 0.5 gives the crawl its breadth-first bias.
	DefaultDepthWeight = 0.5

	// DefaultRefBonus is the additive priority increment applied each
	// time another independent reference to a known entity is found.
	DefaultRefBonus = 1.0

	// DefaultPriorityCap bounds the accumulated reference bonus so
	// indegree alone cannot dominate depth and budget constraints.
	DefaultPriorityCap = 16.0

	// DefaultMaxRequeues is how many times a Suspended entity is
	// automatically re-queued before becoming permanently Inaccessible.
	DefaultMaxRequeues = 2

	// DefaultRetryBaseDelay is the initial backoff after a transient
	// fetch failure. It doubles per attempt with random jitter.
	DefaultRetryBaseDelay = 2 * time.Second

	// DefaultRetryMaxDelay caps the exponential backoff.
	DefaultRetryMaxDelay = 2 * time.Minute

	// DefaultRetryMaxAttempts is the transient-failure attempt cap per
	// task. Past it the entity is recorded as inaccessible; the run
	// continues.
	DefaultRetryMaxAttempts = 5
)

// Config holds all configuration options for the archiving engine.
//
// Design decision: one flat struct instead of nested sub-configs. The
// option count is manageable, and flat fields keep CLI flag binding and
// YAML overrides trivial. Revisit if the surface grows much further.
type Config struct {
	// ArchiveDir is the directory holding the SQLite archive database.
	// Defaults to the XDG data directory for fedcrawl.
	ArchiveDir string

	// Workers is the size of the bounded worker pool.
	Workers int

	// MaxDepth is the frontier's hop budget from the nearest seed.
	// Pushes beyond it are silently dropped.
	MaxDepth int

	// TargetBudget is the maximum number of entities admitted per run.
	TargetBudget int

	// CacheSize is the capacity of the fingerprint recency cache.
	CacheSize int

	// PerceptualMaxDistance is the inclusive Hamming-distance threshold
	// for perceptual near-duplicates, in bits.
	PerceptualMaxDistance int

	// FuzzyThreshold is the inclusive ssdeep score threshold (0-100)
	// for fuzzy near-duplicates.
	FuzzyThreshold int

	// EnablePerceptual toggles the perceptual fingerprint tier. When
	// off, visual content is deduplicated at the exact tier only.
	EnablePerceptual bool

	// EnableFuzzy toggles the fuzzy fingerprint tier.
	EnableFuzzy bool

	// DepthWeight scales how strongly depth discounts frontier priority.
	DepthWeight float64

	// RefBonus is the additive priority increment per inbound reference.
	RefBonus float64

	// PriorityCap bounds the accumulated priority of any entity.
	PriorityCap float64

	// MaxRequeues bounds automatic re-queues of suspended entities.
	MaxRequeues int

	// RetryBaseDelay is the initial transient-failure backoff delay.
	RetryBaseDelay time.Duration

	// RetryMaxDelay caps the transient-failure backoff delay.
	RetryMaxDelay time.Duration

	// RetryMaxAttempts is the transient-failure attempt cap per task.
	RetryMaxAttempts int

	// Verbose enables debug-level log output.
	Verbose bool

	// ConfigFilePath is the path to the YAML configuration file. Empty
	// means search the default locations (see FindConfigFile).
	ConfigFilePath string

	// Entities holds per-entity overrides loaded from the config file.
	// Populated by LoadConfigFile; nil when no file was found.
	Entities *File
}

// NewConfig creates a Config with default values.
//
// Design decision: a constructor instead of relying on zero values,
// because most defaults are non-zero and the constructor doubles as
// documentation of what they are.
func NewConfig() *Config {
	return &Config{
		ArchiveDir:            XDGDataDir(),
		Workers:               DefaultWorkers,
		MaxDepth:              DefaultMaxDepth,
		TargetBudget:          DefaultTargetBudget,
		CacheSize:             DefaultCacheSize,
		PerceptualMaxDistance: DefaultPerceptualMaxDistance,
		FuzzyThreshold:        DefaultFuzzyThreshold,
		EnablePerceptual:      true,
		EnableFuzzy:           true,
		DepthWeight:           DefaultDepthWeight,
		RefBonus:              DefaultRefBonus,
		PriorityCap:           DefaultPriorityCap,
		MaxRequeues:           DefaultMaxRequeues,
		RetryBaseDelay:        DefaultRetryBaseDelay,
		RetryMaxDelay:         DefaultRetryMaxDelay,
		RetryMaxAttempts:      DefaultRetryMaxAttempts,
	}
}

// XDGDataDir returns the XDG data directory for fedcrawl.
// On Linux: ~/.local/share/fedcrawl
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for fedcrawl.
// On Linux: ~/.config/fedcrawl
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks whether the configuration is usable.
// It returns one of the package sentinel errors on the first violation.
func (c *Config) Validate() error {
	if c.Workers <= 0 {
		return ErrInvalidWorkers
	}
	if c.MaxDepth < 0 {
		return ErrInvalidMaxDepth
	}
	if c.TargetBudget <= 0 {
		return ErrInvalidTargetBudget
	}
	if c.CacheSize <= 0 {
		return ErrInvalidCacheSize
	}
	if c.PerceptualMaxDistance < 0 || c.PerceptualMaxDistance > 64 {
		return ErrInvalidPerceptualDistance
	}
	if c.FuzzyThreshold < 0 || c.FuzzyThreshold > 100 {
		return ErrInvalidFuzzyThreshold
	}
	if c.RetryBaseDelay <= 0 || c.RetryMaxDelay < c.RetryBaseDelay {
		return ErrInvalidRetryDelay
	}
	if c.RetryMaxAttempts <= 0 {
		return ErrInvalidRetryAttempts
	}
	if c.MaxRequeues < 0 {
		return ErrInvalidMaxRequeues
	}
	return nil
}
