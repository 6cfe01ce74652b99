package rfc

import (
	"errors"
	"fmt"
	"log"
)

// Sentinel errors for simple, non-parameterized failure conditions.
var (
	ErrCommunicatorClosed = errors.New("rfc: communicator closed")
	ErrNoProvider         = errors.New("rfc: no provider")
)

// DomainError reports an illegal state transition — calling accept twice,
// closing a connection that never opened, and similar programmer errors.
// DomainErrors are never sent over the wire.
type DomainError struct {
	Op     string
	Reason string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("rfc: %s: %s", e.Op, e.Reason)
}

// RuntimeError reports an operation that failed because of the current,
// legitimately reachable state of the connection (e.g. close() called
// while a previous close is already draining).
type RuntimeError struct {
	Op     string
	Reason string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("rfc: %s: %s", e.Op, e.Reason)
}

// TransportError wraps a network or port-level failure. Every suspension
// pending at the time of such a failure completes with a TransportError.
type TransportError struct {
	Cause error
}

func (e *TransportError) Error() string {
	if e.Cause == nil {
		return "rfc: transport error"
	}
	return fmt.Sprintf("rfc: transport error: %v", e.Cause)
}

func (e *TransportError) Unwrap() error { return e.Cause }

// RemoteError is the error a caller observes when the remote provider
// threw during a function Invoke. Name is preserved verbatim from the wire
// so callers can distinguish error kinds without sharing a Go type.
type RemoteError struct {
	Name    string
	Message string
	Stack   string
}

func (e *RemoteError) Error() string {
	if e.Name == "" || e.Name == "Error" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Name, e.Message)
}

// NoProviderError is returned when a function Invoke arrives but the local
// Communicator has no provider (it is nil, or has been cleared by Destructor).
type NoProviderError struct {
	Listener string
}

func (e *NoProviderError) Error() string {
	return fmt.Sprintf("rfc: no provider for listener %q", e.Listener)
}

func (e *NoProviderError) RFCName() string { return "NoProviderError" }

// ResolutionError is returned when a listener path does not lead to a
// callable member: a missing intermediate segment, a missing final
// segment, or a final segment that is not callable.
type ResolutionError struct {
	Listener string
	Segment  string
	Reason   string
}

func (e *ResolutionError) Error() string {
	if e.Segment == "" {
		return fmt.Sprintf("rfc: cannot resolve listener %q: %s", e.Listener, e.Reason)
	}
	return fmt.Sprintf("rfc: cannot resolve listener %q at %q: %s", e.Listener, e.Segment, e.Reason)
}

func (e *ResolutionError) RFCName() string { return "ResolutionError" }

// TaggedError lets a provider method raise an error that keeps a stable
// name across the wire — the Go equivalent of throwing a named error class.
type TaggedError struct {
	Name    string
	Message string
}

func (e *TaggedError) Error() string { return e.Message }

func (e *TaggedError) RFCName() string { return e.Name }

// namedError is implemented by any error that wants its name preserved in
// the wire ErrorValue instead of falling back to the generic "Error".
type namedError interface {
	RFCName() string
}

func errorName(err error) string {
	if n, ok := err.(namedError); ok {
		return n.RFCName()
	}
	return "Error"
}

// ErrorHandler is called for every error the framework could not deliver to
// a direct caller: an inbound record that failed to decode, a reply that
// failed to encode or send. A return whose uid is not pending is dropped
// without being reported. It must not block.
type ErrorHandler func(error)

// LogErrors returns an ErrorHandler that logs every such error to the given
// logger.
func LogErrors(logger *log.Logger) ErrorHandler {
	return func(err error) {
		logger.Printf("[rfc] %v", err)
	}
}
