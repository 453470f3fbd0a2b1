package catalog

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when an identifier does not resolve remotely.
var ErrNotFound = errors.New("catalog record not found")

// TransportError means the remote catalog service could not be reached
// (network failure or timeout). Callers decide whether to retry; the
// client itself never does.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("catalog %s: transport error: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RemoteError means the catalog service answered but rejected or failed
// the call (4xx semantic rejection, 5xx remote fault). Message carries
// the remote service's reason verbatim where it provided one.
type RemoteError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("catalog %s: remote error %d: %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("catalog %s: remote error %d", e.Op, e.StatusCode)
}

// IsTransport reports whether err is a network/timeout failure
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsNotFound reports whether err means the identifier did not resolve
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
