package config

import "errors"

// Configuration validation errors returned by Config.Validate.
//
// Design decision: We use package-level sentinel errors so callers can use
// errors.Is() while users still get a readable message.
var (
	// ErrInvalidBaseURL is returned when the forum URL is not an absolute
	// http or https URL.
	ErrInvalidBaseURL = errors.New("invalid base URL: must be an absolute http(s) URL")

	// ErrInvalidCategory is returned when the category path is empty or the
	// category id is not positive.
	ErrInvalidCategory = errors.New("invalid category: path must be set and id must be positive")

	// ErrInvalidDateWindow is returned when the window start lies after its end.
	ErrInvalidDateWindow = errors.New("invalid date window: from must not be after to")

	// ErrInvalidTimeout is returned when a request, validation or login
	// timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidConcurrency is returned when the topic worker count is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidRateLimit is returned when the request rate or burst is negative.
	// A rate of zero disables limiting.
	ErrInvalidRateLimit = errors.New("invalid rate limit: must be non-negative")

	// ErrInvalidRetries is returned when the retry count or a backoff delay is negative.
	ErrInvalidRetries = errors.New("invalid retry settings: must be non-negative")

	// ErrInvalidFingerprint is returned for an unknown fingerprint algorithm.
	ErrInvalidFingerprint = errors.New("invalid fingerprint algorithm: use sha256 or sha3-256")

	// ErrConflictingProxy is returned when both an external proxy and the
	// embedded Tor daemon are requested.
	ErrConflictingProxy = errors.New("conflicting proxy settings: --proxy and --tor cannot be used together")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")
)
