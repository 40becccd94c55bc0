package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fedcrawl/fedcrawl/internal/model"
)

// FingerprintRow is one record of the durable fingerprint index.
// Rows are append-only: duplicate detections increment DuplicateCount,
// the first-seen reference is never overwritten.
type FingerprintRow struct {
	// ExactDigest is the hex BLAKE2b-256 digest of the payload. Primary key.
	ExactDigest string

	// Kind is the media kind of the first-seen payload. Secondary
	// similarity search is restricted to rows of the same kind.
	Kind model.MediaKind

	// Perceptual is the hex 64-bit difference hash, empty for
	// non-perceptual kinds.
	Perceptual string

	// Fuzzy is the ssdeep signature, empty for non-fuzzy kinds.
	Fuzzy string

	// FirstSeen locates the content item that introduced this fingerprint.
	FirstSeen model.ItemRef

	// DuplicateCount is the number of subsequent duplicates observed.
	DuplicateCount int64
}

// Batch is one logical unit of archiving progress: the fingerprint
// registrations and duplicate increments for one fetched batch of content,
// plus the checkpoint advance that seals it.
//
// Everything a Batch does happens inside a single SQLite transaction. The
// transaction commits in Commit together with the checkpoint upsert, so a
// crash either preserves the entire batch or none of it. Reads within the
// batch see its own uncommitted writes, which is what makes two identical
// items inside one batch deduplicate against each other.
type Batch struct {
	tx       *sql.Tx
	entityID model.EntityID
	done     bool
}

// BeginBatch starts a batch transaction for one entity.
// Exactly one batch per entity is in flight at a time; the scheduler
// enforces this with its one-task-per-entity rule.
func (adb *ArchiveDB) BeginBatch(ctx context.Context, entityID model.EntityID) (*Batch, error) {
	tx, err := adb.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin batch: %w", err)
	}

	return &Batch{tx: tx, entityID: entityID}, nil
}

// LookupExact returns the fingerprint row for an exact digest, or nil
// when the digest has never been registered.
func (b *Batch) LookupExact(ctx context.Context, digest string) (*FingerprintRow, error) {
	query := `
	SELECT exact_digest, media_kind, perceptual, fuzzy, first_seen_entity, first_seen_offset, duplicate_count
	FROM fingerprints
	WHERE exact_digest = ?
	`

	var row FingerprintRow
	var kind, firstEntity string

	err := b.tx.QueryRowContext(ctx, query, digest).Scan(
		&row.ExactDigest,
		&kind,
		&row.Perceptual,
		&row.Fuzzy,
		&firstEntity,
		&row.FirstSeen.Offset,
		&row.DuplicateCount,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up exact digest: %w", err)
	}

	row.Kind = model.MediaKind(kind)
	row.FirstSeen.EntityID = model.EntityID(firstEntity)

	return &row, nil
}

// SecondaryCandidates returns all rows of the given media kind that carry
// a secondary fingerprint. The caller computes similarity in-process; the
// kind index restricts the scan to comparable entries. The scan is linear
// in the archive's same-kind row count, which is fine at current corpus
// sizes. TODO: prefilter with a BK-tree or hash banding once archives
// reach millions of rows per kind.
func (b *Batch) SecondaryCandidates(ctx context.Context, kind model.MediaKind) ([]FingerprintRow, error) {
	query := `
	SELECT exact_digest, media_kind, perceptual, fuzzy, first_seen_entity, first_seen_offset, duplicate_count
	FROM fingerprints
	WHERE media_kind = ? AND (perceptual != '' OR fuzzy != '')
	`

	rows, err := b.tx.QueryContext(ctx, query, kind.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query secondary candidates: %w", err)
	}
	defer rows.Close()

	var results []FingerprintRow
	for rows.Next() {
		var row FingerprintRow
		var k, firstEntity string

		if err := rows.Scan(
			&row.ExactDigest,
			&k,
			&row.Perceptual,
			&row.Fuzzy,
			&firstEntity,
			&row.FirstSeen.Offset,
			&row.DuplicateCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan secondary candidate: %w", err)
		}

		row.Kind = model.MediaKind(k)
		row.FirstSeen.EntityID = model.EntityID(firstEntity)
		results = append(results, row)
	}

	return results, rows.Err()
}

// Register inserts a new fingerprint row.
// The digest must not already exist; the primary key enforces this and a
// violation surfaces as an error rather than a silent overwrite.
func (b *Batch) Register(ctx context.Context, row *FingerprintRow) error {
	query := `
	INSERT INTO fingerprints (exact_digest, media_kind, perceptual, fuzzy, first_seen_entity, first_seen_offset, duplicate_count)
	VALUES (?, ?, ?, ?, ?, ?, 0)
	`

	_, err := b.tx.ExecContext(ctx, query,
		row.ExactDigest,
		row.Kind.String(),
		row.Perceptual,
		row.Fuzzy,
		row.FirstSeen.EntityID.String(),
		row.FirstSeen.Offset,
	)
	if err != nil {
		return fmt.Errorf("failed to register fingerprint: %w", err)
	}

	return nil
}

// IncrementDuplicate increments the duplicate counter of an existing row.
func (b *Batch) IncrementDuplicate(ctx context.Context, digest string) error {
	query := `UPDATE fingerprints SET duplicate_count = duplicate_count + 1 WHERE exact_digest = ?`

	res, err := b.tx.ExecContext(ctx, query, digest)
	if err != nil {
		return fmt.Errorf("failed to increment duplicate count: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check duplicate increment: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("no fingerprint row for digest %s", digest)
	}

	return nil
}

// Commit advances the entity's checkpoint to newOffset and commits the
// transaction. The checkpoint upsert takes the maximum of the stored and
// the new offset, so a re-processed batch can never move it backward.
func (b *Batch) Commit(ctx context.Context, newOffset int64) error {
	if b.done {
		return fmt.Errorf("batch already finished")
	}

	query := `
	INSERT INTO checkpoints (entity_id, last_completed_offset, updated_at)
	VALUES (?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(entity_id) DO UPDATE SET
		last_completed_offset = MAX(last_completed_offset, excluded.last_completed_offset),
		updated_at = CURRENT_TIMESTAMP
	`

	if _, err := b.tx.ExecContext(ctx, query, b.entityID.String(), newOffset); err != nil {
		_ = b.tx.Rollback()
		b.done = true
		return fmt.Errorf("failed to advance checkpoint: %w", err)
	}

	if err := b.tx.Commit(); err != nil {
		b.done = true
		return fmt.Errorf("failed to commit batch: %w", err)
	}

	b.done = true
	return nil
}

// Rollback abandons the batch. Safe to call after Commit; it becomes a
// no-op, which lets callers defer it unconditionally.
func (b *Batch) Rollback() error {
	if b.done {
		return nil
	}
	b.done = true
	return b.tx.Rollback()
}
