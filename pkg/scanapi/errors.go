package scanapi

import (
	"errors"
	"fmt"
	"net"
	"syscall"
)

// NetworkError means the request never produced a response: DNS, connect,
// TLS, timeout or a cancelled context.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("scanapi: %s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the underlying failure was a timeout.
func (e *NetworkError) Timeout() bool {
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// Refused reports whether the service actively refused the connection.
func (e *NetworkError) Refused() bool {
	return errors.Is(e.Err, syscall.ECONNREFUSED)
}

// APIError is a response received with a non-2xx status. Message is the
// body's "error" field, or a per-operation fallback.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// IsNetwork reports whether err (or anything it wraps) is a NetworkError.
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// AsAPIError extracts an APIError from the chain.
func AsAPIError(err error) (*APIError, bool) {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}
