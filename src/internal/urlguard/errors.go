package urlguard

import (
	"fmt"
	"time"
)

// ValidationError reports a URL rejected by Validate. No request was sent,
// unless it was raised for a redirect hop.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// TimeoutError reports a fetch aborted because it outlived its timeout.
type TimeoutError struct {
	URL   string
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return "Request timeout - URL took too long to respond"
}

// Timeout and Temporary make it a net.Error.
func (e *TimeoutError) Timeout() bool { return true }
func (e *TimeoutError) Temporary() bool { return false }

// TransportError covers DNS, connection, TLS, redirect and decoding failures.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("Failed to fetch URL: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
