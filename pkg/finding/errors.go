package finding

import "errors"

// Sentinel errors for common scan failure modes.
// Callers should use errors.Is() to check for these.
var (
	// ErrTimeout indicates the target did not respond within the
	// configured deadline.
	ErrTimeout = errors.New("finding: timeout")

	// ErrTargetUnreachable indicates the target host could not be
	// reached (DNS failure, connection refused, etc.).
	ErrTargetUnreachable = errors.New("finding: target unreachable")

	// ErrNoParameters indicates the target exposed nothing injectable
	// and synthesis produced no candidates either.
	ErrNoParameters = errors.New("finding: no injectable parameters")

	// ErrRateLimited indicates the target is rate-limiting requests.
	ErrRateLimited = errors.New("finding: target rate limiting detected")
)
