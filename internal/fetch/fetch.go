package fetch

import (
	"context"

	"github.com/fedcrawl/fedcrawl/internal/model"
)

// Batch is the result of one fetch task: a page of content items for an
// entity starting at the requested offset, plus any entity references
// discovered inside that content.
type Batch struct {
	// Items are the fetched content items, in increasing offset order.
	Items []model.ContentItem

	// NextOffset is the offset to resume from after this batch. It is
	// the checkpoint value the scheduler persists on success.
	NextOffset int64

	// HasMore reports whether the entity has content beyond NextOffset.
	// When false the entity is complete.
	HasMore bool

	// Refs are entity references discovered in the batch's content
	// (forwards, mentions, invite links). The scheduler feeds them into
	// the discovery frontier.
	Refs []model.EntityRef
}

// Fetcher retrieves content from the remote network on behalf of a
// specific account.
//
// Implementations must be safe for concurrent use across distinct
// accounts. The scheduler guarantees per-account serialization: it never
// issues two concurrent calls bound to the same account, because the
// remote network enforces ordering per identity.
type Fetcher interface {
	// FetchBatch fetches a page of content for entity starting at
	// fromOffset, using the credentials of account.
	//
	// Errors are classified by type: *RateLimitedError for
	// remote-specified waits, *PermanentError for terminal faults,
	// anything else for transient faults. Returning a nil Batch with a
	// nil error is invalid.
	FetchBatch(ctx context.Context, account model.AccountID, entity model.EntityID, fromOffset int64) (*Batch, error)
}
