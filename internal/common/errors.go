package common

import "errors"

// Error kinds recognized across component boundaries. Components return these
// wrapped with fmt.Errorf("...: %w", ...); only the HTTP layer converts them
// into user-facing text.
var (
	// ErrAccessDenied means no identity is attached to the request, or the
	// credentials did not verify.
	ErrAccessDenied = errors.New("access denied")

	// ErrQuotaExceeded means the free-tier daily cap has been reached. New input
	// is rejected but existing history remains readable.
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrProviderUnavailable means the language-model round trip failed. The
	// user's own message has already been persisted; the turn is recoverable.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrUnknownTool means the model requested a tool that is not registered.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrLedgerUnavailable means the quota ledger could not be read or written.
	// Access must be denied rather than risk unmetered usage.
	ErrLedgerUnavailable = errors.New("ledger unavailable")
)
