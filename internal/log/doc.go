// Package log provides secure logging for the archiving engine, built on
// the standard slog package.
//
// The engine handles material that must never reach shared logs: account
// session strings, API credentials for the remote network, and phone
// numbers tied to the credentialed identities. The SecureHandler wraps any
// slog.Handler and masks attribute values that look like credentials, by
// key name or by value shape, before the underlying handler sees them.
//
// Even in verbose mode, masked values stay masked. A debug log that leaks
// one session string burns the account it belongs to.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Info("account cooled down",
//	    "account", "acct-7",
//	    "session", "1b7c...",   // masked in output
//	)
package log
