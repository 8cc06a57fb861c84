package session

import "errors"

// Sentinel errors for the session package. Both are value-level,
// recoverable conditions; check with errors.Is.
var (
	// ErrEmptyPool means no cards qualified for the requested session.
	// The host surfaces this as "nothing to study", not a failure.
	ErrEmptyPool = errors.New("session: no eligible cards")
	// ErrUnknownCard means the caller graded a card that is not in the
	// active session. This is a host programming error and is reported
	// rather than silently ignored.
	ErrUnknownCard = errors.New("session: unknown card")
)
