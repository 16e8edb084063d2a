package smartthings

import "errors"

// Domain-specific errors for SmartThings API operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrAuth indicates the API rejected our credentials (401/403).
	// Retrying cannot succeed without a new token, so callers must not retry.
	ErrAuth = errors.New("smartthings: authentication failed")

	// ErrUpstream indicates a transient upstream failure (connection error,
	// 429, or 5xx) that persisted through the configured retry budget.
	ErrUpstream = errors.New("smartthings: upstream request failed")

	// ErrNotFound indicates the requested device no longer exists upstream.
	ErrNotFound = errors.New("smartthings: device not found")
)
