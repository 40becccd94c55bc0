// Package accounts manages the pool of crawler identities used to reach
// the network.
//
// Accounts are a scarce, perishable resource: the network rate-limits
// them, and repeated abuse gets them suspended permanently. The pool
// tracks three axes of availability per account:
//
//   - busy: leased to a worker right now. At most one worker holds an
//     account at a time, so the network never sees concurrent requests
//     from the same identity.
//   - cooling down: told to back off until a deadline after a rate
//     limit response.
//   - suspended: permanently removed from rotation after a
//     network-issued ban. Suspension is never reversed by the engine.
//
// Acquire hands out the eligible account that has been idle longest,
// spreading request load evenly across the pool instead of hammering
// the first healthy account.
package accounts
