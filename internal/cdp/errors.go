package cdp

import (
	"errors"
	"fmt"
)

// ErrConnectionClosed reports that the connection shut down, either through
// Close or because the transport failed. Pending calls and event streams end
// with an error wrapping this sentinel; Connection.Err carries the cause.
var ErrConnectionClosed = errors.New("cdp: connection closed")

// DecodeError reports an inbound message that matches no known frame shape.
// It is fatal: the connection shuts down and every pending call and event
// stream ends.
type DecodeError struct {
	Data  []byte
	cause error
}

func (e *DecodeError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("cdp: malformed frame: %v: %s", e.cause, e.Data)
	}
	return fmt.Sprintf("cdp: malformed frame: %s", e.Data)
}

func (e *DecodeError) Unwrap() error { return e.cause }

// NotSentError reports that a request never reached the transport. The
// remote end has not seen it and no reply will ever arrive.
type NotSentError struct {
	Method    string
	ID        int64
	SessionID string
	Cause     error
}

func (e *NotSentError) Error() string {
	return fmt.Sprintf("cdp: %s (id %d) not sent: %v", e.Method, e.ID, e.Cause)
}

func (e *NotSentError) Unwrap() error { return e.Cause }

// CommandError reports that the remote end rejected a request. This is a
// normal protocol outcome, not a transport failure.
type CommandError struct {
	Method    string
	ID        int64
	SessionID string
	Remote    *Error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("cdp: %s (id %d) failed: %v", e.Method, e.ID, e.Remote)
}

func (e *CommandError) Unwrap() error { return e.Remote }
