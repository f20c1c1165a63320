package attribution

import (
	"errors"
	"fmt"
)

// Failure classes of an attribution request. None of them reach the host app:
// the tracker logs and discards them.
var (
	ErrNotConfigured  = errors.New("attribution: api key not configured")
	ErrEncode         = errors.New("attribution: failed to encode request body")
	ErrTransport      = errors.New("attribution: transport failure")
	ErrTimeout        = errors.New("attribution: request timeout")
	ErrCanceled       = errors.New("attribution: request canceled by caller")
	ErrStatus         = errors.New("attribution: unexpected response status")
	ErrDecode         = errors.New("attribution: failed to decode response body")
	ErrDeliveryFailed = errors.New("attribution: request failed")
	ErrMissingInstall = errors.New("attribution: install id is required")
)

// StatusError carries the status code of a non-2xx response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("attribution: server returned status %d", e.Code)
	}
	return fmt.Sprintf("attribution: server returned status %d: %s", e.Code, e.Body)
}

func (e *StatusError) Unwrap() error {
	return ErrStatus
}

// IsRetryable reports whether err is a failure worth another attempt: any
// non-2xx status, a transport failure or an attempt timeout. Encode, decode
// and caller cancellation errors are final.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransport) || errors.Is(err, ErrTimeout) || errors.Is(err, ErrStatus)
}
