package domain

import (
	"github.com/cockroachdb/errors"
)

// Generation failures. Callers classify with errors.Is; detail is attached
// by wrapping, never by defining new sentinels per call site.
var (
	// ErrInvalidContext means the caller supplied an incomplete context.
	// Not retried; surfaced to the caller.
	ErrInvalidContext = errors.New("invalid generation context")

	// ErrTimeout means the external call exceeded its bound. The next
	// scheduled fire is the retry.
	ErrTimeout = errors.New("generative api call timed out")

	// ErrTransport covers connection failures, non-2xx statuses and
	// malformed payloads.
	ErrTransport = errors.New("generative api transport error")

	// ErrEmptyResponse means the API answered successfully with nothing usable.
	ErrEmptyResponse = errors.New("generative api returned an empty response")
)

var (
	ErrJobNotFound      = errors.New("job not found")
	ErrJobAlreadyExists = errors.New("job already registered")
	ErrPersonaNotFound  = errors.New("persona not found")
)

// IsRetryable reports whether a failed generation may succeed on a later fire.
func IsRetryable(err error) bool {
	return errors.IsAny(err, ErrTimeout, ErrTransport, ErrEmptyResponse)
}
