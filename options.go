package rfc

// Recorder observes the lifecycle of every Invoke a Communicator sends or
// completes — an optional audit trail, not part of the core call path.
// See the audit package for a Postgres-backed implementation.
type Recorder interface {
	RecordSend(uid uint32, listener string, params []Param)
	RecordReturn(uid uint32, success bool)
}

// CommunicatorOption configures a Communicator at construction time.
type CommunicatorOption func(*Communicator)

// WithErrorHandler installs the ErrorHandler that receives errors which
// cannot be delivered to a direct caller.
func WithErrorHandler(h ErrorHandler) CommunicatorOption {
	return func(c *Communicator) {
		c.onError = h
	}
}

// WithRecorder installs a Recorder that observes every Invoke this
// Communicator sends or completes.
func WithRecorder(r Recorder) CommunicatorOption {
	return func(c *Communicator) {
		c.recorder = r
	}
}
