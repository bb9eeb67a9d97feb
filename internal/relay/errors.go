package relay

import "errors"

// Transfer error kinds. Every failure crossing the pipeline boundary wraps
// exactly one of these; provider-specific causes are flattened into the
// message so they never escape as typed errors.
var (
	// ErrFileTooLarge is returned before any I/O when the declared size
	// exceeds the configured ceiling.
	ErrFileTooLarge = errors.New("file exceeds size ceiling")
	// ErrFetchFailed covers origin read errors and local staging errors.
	// No remote side effect has occurred; retrying the whole transfer is safe.
	ErrFetchFailed = errors.New("fetch from origin failed")
	// ErrUploadFailed covers backend store errors. Retry safety depends on
	// the backend's atomicity.
	ErrUploadFailed = errors.New("upload to backend failed")
	// ErrBackendUnavailable is returned when the gateway never reached ready;
	// the transfer fails fast without fetching.
	ErrBackendUnavailable = errors.New("backend unavailable")
)
