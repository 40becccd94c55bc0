package accounts

import "errors"

var (
	// ErrNoAccounts is returned when a pool is created without any accounts.
	ErrNoAccounts = errors.New("accounts: pool requires at least one account")

	// ErrUnknownAccount is returned when an operation names an account
	// that was never registered with the pool.
	ErrUnknownAccount = errors.New("accounts: unknown account")
)
