package fingerprint

import (
	"context"
	"fmt"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/fedcrawl/fedcrawl/internal/model"
	"github.com/fedcrawl/fedcrawl/internal/store"
)

// Result is the outcome of one fingerprint check.
type Result struct {
	// Outcome classifies the payload as new, an exact duplicate, or a
	// near-duplicate.
	Outcome model.Outcome

	// Score is the similarity of a near-duplicate on a 0-100 scale
	// (ssdeep score for fuzzy matches, scaled inverse Hamming distance
	// for perceptual matches). Zero unless Outcome is NearDuplicate.
	Score float64

	// MatchedRef locates the first-seen item this payload duplicates.
	// Zero value unless Outcome is a duplicate.
	MatchedRef model.ItemRef

	// Fingerprints is the full fingerprint set derived from the payload.
	Fingerprints model.FingerprintSet
}

// Store answers "have I seen this, or something very similar, before?"
// across the entire corpus.
//
// The Store itself is cheap shared state: the recency cache and the
// similarity thresholds. All durable reads and writes go through a
// per-batch Session so they ride the batch's transaction.
type Store struct {
	// cache is the bounded recency cache, exact digest -> first-seen ref.
	cache *lru.Cache[string, model.ItemRef]

	// perceptualMaxDistance is the inclusive Hamming-distance threshold.
	perceptualMaxDistance int

	// fuzzyThreshold is the inclusive ssdeep score threshold.
	fuzzyThreshold int

	// perceptualOn and fuzzyOn toggle the secondary tiers.
	perceptualOn bool
	fuzzyOn      bool

	// logger is used for structured logging.
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithPerceptualMaxDistance sets the inclusive Hamming-distance threshold
// (in bits of the 64-bit hash) for perceptual near-duplicates.
func WithPerceptualMaxDistance(bits int) Option {
	return func(s *Store) {
		s.perceptualMaxDistance = bits
	}
}

// WithFuzzyThreshold sets the inclusive ssdeep score threshold (0-100)
// for fuzzy near-duplicates.
func WithFuzzyThreshold(score int) Option {
	return func(s *Store) {
		s.fuzzyThreshold = score
	}
}

// WithPerceptual toggles the perceptual secondary tier.
func WithPerceptual(on bool) Option {
	return func(s *Store) {
		s.perceptualOn = on
	}
}

// WithFuzzy toggles the fuzzy secondary tier.
func WithFuzzy(on bool) Option {
	return func(s *Store) {
		s.fuzzyOn = on
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a Store with a recency cache of the given capacity.
func New(cacheSize int, opts ...Option) (*Store, error) {
	cache, err := lru.New[string, model.ItemRef](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create recency cache: %w", err)
	}

	s := &Store{
		cache:                 cache,
		perceptualMaxDistance: 10,
		fuzzyThreshold:        80,
		perceptualOn:          true,
		fuzzyOn:               true,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s, nil
}

// CacheLen returns the number of entries in the recency cache.
func (s *Store) CacheLen() int {
	return s.cache.Len()
}

// Session binds the Store to one batch transaction.
//
// All checks for a fetched batch run through one Session. Cache inserts
// accumulate in the session and are published to the shared cache only by
// Promote, after the batch commits. A rolled-back batch must not leave
// cache entries claiming its content is known.
func (s *Store) Session(batch *store.Batch) *Session {
	return &Session{
		store: s,
		batch: batch,
	}
}

// Session is a per-batch view of the Store. Not safe for concurrent use;
// each in-flight batch owns exactly one.
type Session struct {
	store *Store
	batch *store.Batch

	// pending holds cache inserts deferred until the batch commits.
	pending []pendingEntry
}

type pendingEntry struct {
	digest string
	ref    model.ItemRef
}

// Check fingerprints one content item and classifies it against the
// corpus. Every duplicate outcome increments the matched row's duplicate
// counter inside the batch transaction. A storage failure fails closed:
// the returned error means the item must not be treated as ingested.
func (ses *Session) Check(ctx context.Context, item *model.ContentItem) (Result, error) {
	s := ses.store
	set := computeSet(item.Payload, item.Kind, s.perceptualOn, s.fuzzyOn)
	selfRef := model.ItemRef{EntityID: item.EntityID, Offset: item.Offset}

	// Stage 1: recency cache. A hit skips the durable lookup entirely;
	// the duplicate counter still advances inside the transaction.
	if ref, ok := s.cache.Get(set.Exact); ok {
		if err := ses.batch.IncrementDuplicate(ctx, set.Exact); err != nil {
			return Result{}, fmt.Errorf("duplicate increment failed: %w", err)
		}
		return Result{
			Outcome:      model.OutcomeExactDuplicate,
			MatchedRef:   ref,
			Fingerprints: set,
		}, nil
	}

	// Stage 2: durable exact index.
	row, err := ses.batch.LookupExact(ctx, set.Exact)
	if err != nil {
		return Result{}, fmt.Errorf("exact lookup failed: %w", err)
	}
	if row != nil {
		if err := ses.batch.IncrementDuplicate(ctx, set.Exact); err != nil {
			return Result{}, fmt.Errorf("duplicate increment failed: %w", err)
		}
		ses.stageCacheInsert(set.Exact, row.FirstSeen)
		return Result{
			Outcome:      model.OutcomeExactDuplicate,
			MatchedRef:   row.FirstSeen,
			Fingerprints: set,
		}, nil
	}

	// Stage 3: same-kind secondary similarity.
	if set.Perceptual != "" || set.Fuzzy != "" {
		match, score, err := ses.findNearDuplicate(ctx, item.Kind, set)
		if err != nil {
			return Result{}, err
		}
		if match != nil {
			if err := ses.batch.IncrementDuplicate(ctx, match.ExactDigest); err != nil {
				return Result{}, fmt.Errorf("duplicate increment failed: %w", err)
			}
			return Result{
				Outcome:      model.OutcomeNearDuplicate,
				Score:        score,
				MatchedRef:   match.FirstSeen,
				Fingerprints: set,
			}, nil
		}
	}

	// New content: register atomically within the batch.
	if err := ses.batch.Register(ctx, &store.FingerprintRow{
		ExactDigest: set.Exact,
		Kind:        item.Kind,
		Perceptual:  set.Perceptual,
		Fuzzy:       set.Fuzzy,
		FirstSeen:   selfRef,
	}); err != nil {
		return Result{}, fmt.Errorf("fingerprint registration failed: %w", err)
	}
	ses.stageCacheInsert(set.Exact, selfRef)

	return Result{
		Outcome:      model.OutcomeNew,
		Fingerprints: set,
	}, nil
}

// findNearDuplicate scans same-kind secondary fingerprints for the best
// match at or above the configured threshold. The threshold boundary is
// inclusive: similarity exactly at the threshold is a near-duplicate.
func (ses *Session) findNearDuplicate(ctx context.Context, kind model.MediaKind, set model.FingerprintSet) (*store.FingerprintRow, float64, error) {
	s := ses.store

	candidates, err := ses.batch.SecondaryCandidates(ctx, kind)
	if err != nil {
		return nil, 0, fmt.Errorf("secondary scan failed: %w", err)
	}

	var best *store.FingerprintRow
	var bestScore float64

	for i := range candidates {
		cand := &candidates[i]

		switch {
		case set.Perceptual != "" && cand.Perceptual != "":
			dist, err := hammingDistance(set.Perceptual, cand.Perceptual)
			if err != nil {
				s.logger.Warn("skipping unparseable perceptual hash",
					"digest", cand.ExactDigest,
					"error", err,
				)
				continue
			}
			if dist <= s.perceptualMaxDistance {
				score := float64(perceptualBits-dist) / perceptualBits * 100
				if best == nil || score > bestScore {
					best = cand
					bestScore = score
				}
			}
		case set.Fuzzy != "" && cand.Fuzzy != "":
			score := fuzzyScore(set.Fuzzy, cand.Fuzzy)
			if score >= s.fuzzyThreshold {
				if best == nil || float64(score) > bestScore {
					best = cand
					bestScore = float64(score)
				}
			}
		}
	}

	return best, bestScore, nil
}

// stageCacheInsert queues a cache insert for publication after the batch
// commits.
func (ses *Session) stageCacheInsert(digest string, ref model.ItemRef) {
	ses.pending = append(ses.pending, pendingEntry{digest: digest, ref: ref})
}

// Promote publishes the session's cache inserts to the shared recency
// cache. Call only after the underlying batch committed successfully;
// skipping Promote after a rollback is what keeps the cache coherent.
func (ses *Session) Promote() {
	for _, e := range ses.pending {
		ses.store.cache.Add(e.digest, e.ref)
	}
	ses.pending = nil
}
