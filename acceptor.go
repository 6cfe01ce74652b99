package rfc

import "sync/atomic"

// AcceptorState is one of the states in the lifecycle shared by every
// transport: NONE, ACCEPTING, OPEN, REJECTING, CLOSING, CLOSED, OPENING.
type AcceptorState int32

const (
	StateNone AcceptorState = iota
	StateAccepting
	StateOpen
	StateRejecting
	StateClosing
	StateClosed
	StateOpening
)

func (s AcceptorState) String() string {
	switch s {
	case StateNone:
		return "NONE"
	case StateAccepting:
		return "ACCEPTING"
	case StateOpen:
		return "OPEN"
	case StateRejecting:
		return "REJECTING"
	case StateClosing:
		return "CLOSING"
	case StateClosed:
		return "CLOSED"
	case StateOpening:
		return "OPENING"
	default:
		return "UNKNOWN"
	}
}

// Acceptor is the handshake/lifecycle state machine shared by every
// transport. Transitions outside the table below fail with a DomainError
// rather than silently clamping to a nearby state.
//
//	NONE --accept()--> ACCEPTING --ready--> OPEN --close()--> CLOSING --drained--> CLOSED
//	NONE --reject()--> REJECTING --drained--> CLOSED
//	OPEN --peer close--> CLOSING --drained--> CLOSED
//	CLOSED --open()--> OPENING --listening--> OPEN
type Acceptor struct {
	state atomic.Int32
}

// NewAcceptor returns an Acceptor in state NONE.
func NewAcceptor() *Acceptor {
	a := &Acceptor{}
	a.state.Store(int32(StateNone))
	return a
}

// State returns the current state.
func (a *Acceptor) State() AcceptorState {
	return AcceptorState(a.state.Load())
}

// Inspect returns an error iff the acceptor is not OPEN, distinguishing the
// three ways it can fail to be ready.
func (a *Acceptor) Inspect() error {
	switch a.State() {
	case StateOpen:
		return nil
	case StateClosed:
		return &DomainError{Op: "inspect", Reason: "already closed"}
	case StateClosing:
		return &RuntimeError{Op: "inspect", Reason: "closing in progress"}
	default:
		return &DomainError{Op: "inspect", Reason: "not yet opened"}
	}
}

func (a *Acceptor) transition(op string, from, to AcceptorState) error {
	if !a.state.CompareAndSwap(int32(from), int32(to)) {
		return &DomainError{Op: op, Reason: "illegal transition from " + a.State().String()}
	}
	return nil
}

// Accept may only be called in NONE; it transitions NONE -> ACCEPTING. The
// caller finalizes the handshake by calling Ready once message/close
// callbacks are registered with the transport.
func (a *Acceptor) Accept() error {
	return a.transition("accept", StateNone, StateAccepting)
}

// Ready completes an in-progress Accept, transitioning ACCEPTING -> OPEN.
func (a *Acceptor) Ready() error {
	return a.transition("ready", StateAccepting, StateOpen)
}

// Reject may only be called in NONE; it transitions NONE -> REJECTING.
func (a *Acceptor) Reject() error {
	return a.transition("reject", StateNone, StateRejecting)
}

// Close requests a graceful shutdown, transitioning OPEN -> CLOSING. It is
// also used to record a peer-initiated close.
func (a *Acceptor) Close() error {
	return a.transition("close", StateOpen, StateClosing)
}

// Drained marks the connection fully torn down, transitioning CLOSING or
// REJECTING -> CLOSED.
func (a *Acceptor) Drained() error {
	if err := a.transition("drained", StateClosing, StateClosed); err == nil {
		return nil
	}
	return a.transition("drained", StateRejecting, StateClosed)
}

// Open is the server-side-only re-entry point, transitioning CLOSED -> OPENING.
func (a *Acceptor) Open() error {
	return a.transition("open", StateClosed, StateOpening)
}

// Listening completes an in-progress Open, transitioning OPENING -> OPEN.
func (a *Acceptor) Listening() error {
	return a.transition("listening", StateOpening, StateOpen)
}
