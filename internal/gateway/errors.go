package gateway

import (
	"fmt"
)

// StatusCodeError is returned when a remote endpoint answers with an
// unexpected HTTP status.
type StatusCodeError struct {
	Code    int
	Message string
}

func NewStatusCodeError(code int, message string) *StatusCodeError {
	return &StatusCodeError{Code: code, Message: message}
}

func (e *StatusCodeError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("unexpected status code %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("unexpected status code %d", e.Code)
}

// RemoteWriteError wraps a failure of a remote mutating call. Writes never
// fall back to the local store once the remote path has been chosen, so this
// is always surfaced to the caller.
type RemoteWriteError struct {
	Op  string
	Err error
}

func (e *RemoteWriteError) Error() string {
	return fmt.Sprintf("remote %s failed: %v", e.Op, e.Err)
}

func (e *RemoteWriteError) Unwrap() error {
	return e.Err
}
