// Package fetch defines the boundary between the archiving engine and the
// remote federated messaging network.
//
// The engine never speaks the remote protocol itself. A connector, built
// by the embedding program, implements the Fetcher interface and is
// injected into the scheduler. This keeps the engine testable without
// network access and keeps protocol churn out of the core.
//
// The package also defines the fetch error taxonomy the scheduler routes
// on: rate limits (RateLimitedError), permanent faults scoped to either the
// entity or the account (PermanentError), and everything else, which is
// treated as transient and retried with backoff.
package fetch
