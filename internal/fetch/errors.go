package fetch

import (
	"errors"
	"fmt"
	"time"
)

// RateLimitedError reports that the remote network demanded a wait before
// the account may issue further requests.
//
// Rate limits are not failures: the remote specifies the exact wait, so
// the scheduler cools the account down for RetryAfter and re-queues the
// task unchanged. No exponential backoff is applied on top.
type RateLimitedError struct {
	// RetryAfter is the wait duration demanded by the remote.
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited: retry after %s", e.RetryAfter)
}

// FaultScope attributes a permanent fault to either the entity being
// fetched or the account doing the fetching.
type FaultScope int

// Permanent fault scopes.
const (
	// ScopeEntity means the entity itself is gone or off limits
	// (deleted, access revoked). The entity becomes inaccessible.
	ScopeEntity FaultScope = iota
	// ScopeAccount means the account's credentials are dead (banned,
	// revoked). The account is suspended and the task is re-dispatched
	// on a different account.
	ScopeAccount
)

// String returns the string representation of the scope.
func (s FaultScope) String() string {
	switch s {
	case ScopeEntity:
		return "entity"
	case ScopeAccount:
		return "account"
	default:
		return "unknown"
	}
}

// PermanentError reports a fault that retrying cannot fix.
type PermanentError struct {
	// Scope attributes the fault to the entity or the account.
	Scope FaultScope

	// Reason is a short human-readable cause ("channel deleted",
	// "account banned").
	Reason string
}

// Error implements the error interface.
func (e *PermanentError) Error() string {
	return fmt.Sprintf("permanent %s fault: %s", e.Scope, e.Reason)
}

// AsRateLimited extracts a *RateLimitedError from err's chain.
func AsRateLimited(err error) (*RateLimitedError, bool) {
	var rl *RateLimitedError
	if errors.As(err, &rl) {
		return rl, true
	}
	return nil, false
}

// AsPermanent extracts a *PermanentError from err's chain.
func AsPermanent(err error) (*PermanentError, bool) {
	var pe *PermanentError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
