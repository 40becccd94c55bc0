package model

import "time"

// CrawlReport summarizes the durable progress of a crawl archive. It is
// the Status surface rendered for operators and downstream tooling.
type CrawlReport struct {
	// GeneratedAt is when the report was assembled.
	GeneratedAt time.Time `json:"generated_at"`

	// ArchivePath is the database file the report was read from.
	ArchivePath string `json:"archive_path"`

	// Entity lifecycle counts.
	EntitiesPending      int `json:"entities_pending"`
	EntitiesInProgress   int `json:"entities_in_progress"`
	EntitiesCompleted    int `json:"entities_completed"`
	EntitiesInaccessible int `json:"entities_inaccessible"`
	EntitiesSuspended    int `json:"entities_suspended"`

	// UniqueItems is the number of distinct fingerprinted payloads.
	UniqueItems int64 `json:"unique_items"`

	// DuplicatesFound is the total duplicate observations across all
	// fingerprints.
	DuplicatesFound int64 `json:"duplicates_found"`

	// Account pool health.
	AccountsKnown     int `json:"accounts_known"`
	AccountsSuspended int `json:"accounts_suspended"`
}

// TotalEntities returns the number of entities the archive knows about.
func (r *CrawlReport) TotalEntities() int {
	return r.EntitiesPending + r.EntitiesInProgress + r.EntitiesCompleted +
		r.EntitiesInaccessible + r.EntitiesSuspended
}

// DeduplicationRatio returns the fraction of observed items that were
// duplicates, in [0, 1]. Zero when nothing has been ingested.
func (r *CrawlReport) DeduplicationRatio() float64 {
	total := r.UniqueItems + r.DuplicatesFound
	if total == 0 {
		return 0
	}
	return float64(r.DuplicatesFound) / float64(total)
}
