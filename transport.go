package rfc

// Adapter is the contract every transport (WebSocket, worker process, the
// in-process symmetric pair used in tests) must satisfy to plug into a
// Communicator. Implementations own their underlying socket/port; the
// Communicator never closes it directly, only requests closure through
// whatever close method the concrete adapter exposes.
type Adapter interface {
	// SendData serializes and hands off one wire record. It must be
	// synchronous with respect to the caller; any buffering is the
	// adapter's concern.
	SendData(data []byte) error

	// SetInboundHandler registers the callback invoked with each decoded
	// inbound payload. Malformed payloads and framework control messages
	// ("READY", "CLOSE") must be intercepted by the adapter and never
	// reach this handler.
	SetInboundHandler(fn func(data []byte))

	// SetCloseHandler registers the callback invoked exactly once when the
	// adapter's connection goes away, with a non-nil error for an unclean
	// close and nil for a clean one.
	SetCloseHandler(fn func(err error))

	// InspectReady reports whether the adapter currently accepts outbound
	// sends, distinguishing why not when it doesn't. Adapters backed by an
	// Acceptor delegate to Acceptor.Inspect; the in-process pseudo-transport
	// used in tests has no state machine and returns nil once connected.
	InspectReady() error
}
