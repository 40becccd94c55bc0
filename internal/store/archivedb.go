package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/fedcrawl/fedcrawl/internal/model"
)

// ArchiveDB provides SQLite-based storage for crawl progress, content
// fingerprints, and account health. It manages connection pooling and is
// safe for concurrent use; all writes are serialized on one connection.
type ArchiveDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures ArchiveDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent
	// read performance. Recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates an ArchiveDB in the specified directory.
// If CreateIfNotExists is false and the database doesn't exist, an error
// is returned; resumption paths use this to distinguish "nothing to
// resume" from a fresh run.
func Open(dbDir string, opts Options) (*ArchiveDB, error) {
	dbPath := filepath.Join(dbDir, "fedcrawl.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("archive not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check archive path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create archive directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating
	// new files, mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	// SQLite supports only one writer; a single connection also makes
	// every Batch transaction see its own uncommitted writes without
	// extra bookkeeping.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	adb := &ArchiveDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := adb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return adb, nil
}

// Close closes the database connection.
func (adb *ArchiveDB) Close() error {
	return adb.db.Close()
}

// Path returns the path of the underlying database file.
func (adb *ArchiveDB) Path() string {
	return adb.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (adb *ArchiveDB) createTables() error {
	schema := `
	-- Entities track every discovered crawl target and its lifecycle state
	CREATE TABLE IF NOT EXISTS entities (
		entity_id TEXT PRIMARY KEY,
		source_id TEXT NOT NULL DEFAULT '',
		depth INTEGER NOT NULL,
		priority REAL NOT NULL,
		state TEXT NOT NULL,
		requeues INTEGER NOT NULL DEFAULT 0,
		discovered_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_entities_state ON entities(state);

	-- Checkpoints record the last completed content offset per entity
	CREATE TABLE IF NOT EXISTS checkpoints (
		entity_id TEXT PRIMARY KEY,
		last_completed_offset INTEGER NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Fingerprints index all archived content by exact digest,
	-- with optional secondary fingerprints for similarity search
	CREATE TABLE IF NOT EXISTS fingerprints (
		exact_digest TEXT PRIMARY KEY,
		media_kind TEXT NOT NULL,
		perceptual TEXT NOT NULL DEFAULT '',
		fuzzy TEXT NOT NULL DEFAULT '',
		first_seen_entity TEXT NOT NULL,
		first_seen_offset INTEGER NOT NULL,
		duplicate_count INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_fp_kind ON fingerprints(media_kind);

	-- Accounts track health of the credentialed identities
	CREATE TABLE IF NOT EXISTS accounts (
		account_id TEXT PRIMARY KEY,
		cooldown_until DATETIME,
		consecutive_failures INTEGER NOT NULL DEFAULT 0,
		suspended INTEGER NOT NULL DEFAULT 0
	);
	`

	_, err := adb.db.ExecContext(context.Background(), schema)
	return err
}

// UpsertEntity inserts or updates an entity row.
// The primary key is the entity ID; on conflict the mutable fields
// (priority, state, requeues) are refreshed while discovery metadata
// (source, depth, discovered_at) keeps its first-seen values.
func (adb *ArchiveDB) UpsertEntity(ctx context.Context, e *model.Entity) error {
	query := `
	INSERT INTO entities (entity_id, source_id, depth, priority, state, requeues)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(entity_id) DO UPDATE SET
		priority = excluded.priority,
		state = excluded.state,
		requeues = excluded.requeues
	`

	_, err := adb.db.ExecContext(ctx, query,
		e.ID.String(),
		e.SourceID.String(),
		e.Depth,
		e.Priority,
		e.State.String(),
		e.Requeues,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert entity: %w", err)
	}

	return nil
}

// UpdateEntityState updates only the lifecycle state of an entity.
func (adb *ArchiveDB) UpdateEntityState(ctx context.Context, id model.EntityID, state model.EntityState) error {
	query := `UPDATE entities SET state = ? WHERE entity_id = ?`

	_, err := adb.db.ExecContext(ctx, query, state.String(), id.String())
	if err != nil {
		return fmt.Errorf("failed to update entity state: %w", err)
	}

	return nil
}

// ListUnfinishedEntities returns all entities whose state is neither
// Completed nor Inaccessible. Resume uses this to rebuild the frontier.
// In-progress entities are returned as Pending: their in-flight tasks
// died with the previous process and must be re-dispatched.
func (adb *ArchiveDB) ListUnfinishedEntities(ctx context.Context) ([]model.Entity, error) {
	query := `
	SELECT entity_id, source_id, depth, priority, state, requeues, discovered_at
	FROM entities
	WHERE state NOT IN (?, ?)
	ORDER BY discovered_at ASC
	`

	rows, err := adb.db.QueryContext(ctx, query,
		model.StateCompleted.String(), model.StateInaccessible.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list unfinished entities: %w", err)
	}
	defer rows.Close()

	var results []model.Entity
	for rows.Next() {
		var e model.Entity
		var id, sourceID, state, discoveredAt string

		if err := rows.Scan(&id, &sourceID, &e.Depth, &e.Priority, &state, &e.Requeues, &discoveredAt); err != nil {
			return nil, fmt.Errorf("failed to scan entity: %w", err)
		}

		e.ID = model.EntityID(id)
		e.SourceID = model.EntityID(sourceID)
		e.State = model.EntityState(state)
		e.DiscoveredAt = parseTimestamp(discoveredAt)

		if e.State == model.StateInProgress {
			e.State = model.StatePending
		}

		results = append(results, e)
	}

	return results, rows.Err()
}

// EntityCounts returns the number of entities per lifecycle state.
func (adb *ArchiveDB) EntityCounts(ctx context.Context) (map[model.EntityState]int, error) {
	query := `SELECT state, COUNT(*) FROM entities GROUP BY state`

	rows, err := adb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count entities: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.EntityState]int)
	for rows.Next() {
		var state string
		var n int
		if err := rows.Scan(&state, &n); err != nil {
			return nil, fmt.Errorf("failed to scan entity count: %w", err)
		}
		counts[model.EntityState(state)] = n
	}

	return counts, rows.Err()
}

// Checkpoint returns the last completed offset for an entity.
// The second return value is false when no checkpoint exists yet,
// in which case fetching starts from offset zero.
func (adb *ArchiveDB) Checkpoint(ctx context.Context, id model.EntityID) (int64, bool, error) {
	query := `SELECT last_completed_offset FROM checkpoints WHERE entity_id = ?`

	var offset int64
	err := adb.db.QueryRowContext(ctx, query, id.String()).Scan(&offset)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read checkpoint: %w", err)
	}

	return offset, true, nil
}

// AccountState is the persisted health of one account.
type AccountState struct {
	// ID is the account identifier.
	ID model.AccountID

	// CooldownUntil is when the account becomes eligible again.
	// Zero when the account is not cooling down.
	CooldownUntil time.Time

	// ConsecutiveFailures counts transient failures since the last success.
	ConsecutiveFailures int

	// Suspended marks the account terminally unusable for this
	// process lifetime.
	Suspended bool
}

// SaveAccountState inserts or updates an account's persisted health.
func (adb *ArchiveDB) SaveAccountState(ctx context.Context, st AccountState) error {
	var cooldown any
	if !st.CooldownUntil.IsZero() {
		cooldown = st.CooldownUntil.UTC().Format("2006-01-02 15:04:05")
	}

	suspended := 0
	if st.Suspended {
		suspended = 1
	}

	query := `
	INSERT INTO accounts (account_id, cooldown_until, consecutive_failures, suspended)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(account_id) DO UPDATE SET
		cooldown_until = excluded.cooldown_until,
		consecutive_failures = excluded.consecutive_failures,
		suspended = excluded.suspended
	`

	_, err := adb.db.ExecContext(ctx, query, st.ID.String(), cooldown, st.ConsecutiveFailures, suspended)
	if err != nil {
		return fmt.Errorf("failed to save account state: %w", err)
	}

	return nil
}

// LoadAccountStates returns the persisted health of all known accounts.
func (adb *ArchiveDB) LoadAccountStates(ctx context.Context) ([]AccountState, error) {
	query := `SELECT account_id, cooldown_until, consecutive_failures, suspended FROM accounts`

	rows, err := adb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load account states: %w", err)
	}
	defer rows.Close()

	var results []AccountState
	for rows.Next() {
		var st AccountState
		var id string
		var cooldown sql.NullString
		var suspended int

		if err := rows.Scan(&id, &cooldown, &st.ConsecutiveFailures, &suspended); err != nil {
			return nil, fmt.Errorf("failed to scan account state: %w", err)
		}

		st.ID = model.AccountID(id)
		st.Suspended = suspended != 0
		if cooldown.Valid && cooldown.String != "" {
			st.CooldownUntil = parseTimestamp(cooldown.String)
		}

		results = append(results, st)
	}

	return results, rows.Err()
}

// DuplicateStats returns the total number of fingerprint rows and the
// total number of duplicate detections recorded against them.
func (adb *ArchiveDB) DuplicateStats(ctx context.Context) (rowCount, duplicates int64, err error) {
	query := `SELECT COUNT(*), COALESCE(SUM(duplicate_count), 0) FROM fingerprints`

	if err := adb.db.QueryRowContext(ctx, query).Scan(&rowCount, &duplicates); err != nil {
		return 0, 0, fmt.Errorf("failed to read duplicate stats: %w", err)
	}

	return rowCount, duplicates, nil
}

// timestampFormats contains the timestamp formats SQLite may return.
// More specific formats come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple
// formats, because SQLite returns timestamps in different formats
// depending on configuration. Returns zero time when nothing matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
