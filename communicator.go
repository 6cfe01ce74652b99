package rfc

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"sync/atomic"
)

// callResult is delivered on a pendingCall's channel exactly once.
type callResult struct {
	value json.RawMessage
	err   error
}

type pendingCall struct {
	resultCh chan callResult
}

// Communicator is the per-connection engine: it owns the pending-call
// table and the provider reference for the lifetime of a peer connection,
// assigns outbound Invoke ids, resolves inbound listener paths against the
// local provider, and routes returns back to their suspended caller.
//
// A Communicator's bookkeeping (id allocation, table mutation) is
// logically single-threaded; adapters crossing a real goroutine boundary
// must linearize inbound deliveries before calling into it, which in Go
// means simply not sharing a Communicator's internal state outside of its
// own methods — the mutex below is the concession Go's real threads force
// on an otherwise cooperative design.
type Communicator struct {
	mu       sync.Mutex
	provider any
	pending  map[uint32]*pendingCall
	closed   bool

	nextUid atomic.Uint32

	adapter  Adapter
	onError  ErrorHandler
	recorder Recorder
}

// NewCommunicator constructs a Communicator with the given (possibly nil)
// provider, wired to adapter. Without a WithErrorHandler option, errors that
// cannot be delivered to a direct caller are silently dropped.
func NewCommunicator(provider any, adapter Adapter, opts ...CommunicatorOption) *Communicator {
	c := &Communicator{
		provider: provider,
		pending:  make(map[uint32]*pendingCall),
		adapter:  adapter,
	}
	for _, opt := range opts {
		opt(c)
	}
	adapter.SetInboundHandler(c.replyData)
	adapter.SetCloseHandler(func(err error) { c.Destructor(err) })
	return c
}

// SetProvider installs the object whose members are exposed for remote
// invocation, replacing the one given to NewCommunicator. Destructor clears
// the provider on its own, without calling SetProvider.
func (c *Communicator) SetProvider(provider any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.provider = provider
}

// sendInvoke is the operation used by driver-generated call closures: it
// assigns a fresh uid, registers a pending-call slot, hands the encoded
// record to the adapter, and blocks until the matching return arrives, ctx
// is cancelled, or the communicator is destroyed.
//
// A ctx cancellation does not remove the pending-table slot — the call may
// still be answered later, or drained at Destructor.
func (c *Communicator) sendInvoke(ctx context.Context, listener string, params []Param) (json.RawMessage, error) {
	if err := c.adapter.InspectReady(); err != nil {
		return nil, err
	}

	uid := c.nextUid.Add(1) - 1

	pc := &pendingCall{resultCh: make(chan callResult, 1)}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrCommunicatorClosed
	}
	c.pending[uid] = pc
	c.mu.Unlock()

	data, err := encodeFunctionInvoke(uid, listener, params)
	if err != nil {
		c.removePending(uid)
		return nil, err
	}

	c.notifyRecorder(func(r Recorder) { r.RecordSend(uid, listener, params) })

	if err := c.adapter.SendData(data); err != nil {
		c.removePending(uid)
		terr := &TransportError{Cause: err}
		return nil, terr
	}

	select {
	case res := <-pc.resultCh:
		return res.value, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Communicator) removePending(uid uint32) {
	c.mu.Lock()
	delete(c.pending, uid)
	c.mu.Unlock()
}

// replyData is the inbound-message callback wired to the adapter: it
// classifies the payload and routes a function Invoke for local execution
// or a return for delivery to its suspended caller.
func (c *Communicator) replyData(data []byte) {
	rec, err := decodeRecord(data)
	if err != nil {
		c.reportError(err)
		return
	}
	switch v := rec.(type) {
	case *FunctionInvoke:
		go c.invokeLocal(v)
	case *ReturnInvoke:
		c.completeReturn(v)
	}
}

func (c *Communicator) completeReturn(r *ReturnInvoke) {
	c.mu.Lock()
	pc, ok := c.pending[r.Uid]
	if ok {
		delete(c.pending, r.Uid)
	}
	c.mu.Unlock()

	if !ok {
		// Return for an already-cancelled, already-completed, or unknown
		// id: silently dropped.
		return
	}

	c.notifyRecorder(func(rr Recorder) { rr.RecordReturn(r.Uid, r.Success) })

	if r.Success {
		pc.resultCh <- callResult{value: r.Value}
		return
	}
	pc.resultCh <- callResult{err: decodeErrorValue(r.Value)}
}

// invokeLocal resolves and executes an inbound function Invoke, then sends
// its return. It runs off the adapter's own delivery goroutine so that a
// suspending provider method cannot stall the processing of unrelated
// inbound returns.
func (c *Communicator) invokeLocal(f *FunctionInvoke) {
	c.mu.Lock()
	provider := c.provider
	c.mu.Unlock()

	var value json.RawMessage
	var callErr error

	if provider == nil {
		callErr = &NoProviderError{Listener: f.Listener}
	} else {
		value, callErr = resolveAndCall(provider, f.Listener, f.Parameters)
	}

	success := callErr == nil
	var wireValue json.RawMessage
	if success {
		wireValue = value
	} else {
		wireValue = encodeErrorValue(callErr)
	}

	data, err := encodeReturnInvoke(f.Uid, success, wireValue)
	if err != nil {
		c.reportError(err)
		return
	}

	// A function Invoke arriving during CLOSING is answered iff the
	// adapter still accepts output; otherwise the reply is dropped.
	if err := c.adapter.InspectReady(); err != nil {
		return
	}
	if err := c.adapter.SendData(data); err != nil {
		c.reportError(&TransportError{Cause: err})
	}
}

// Destructor marks the communicator as shutting down and fails every entry
// still in the pending table, in uid order (which, since uids are assigned
// in strictly increasing order, is also insertion order), using err if
// given or a generic "communicator closed" error otherwise. Calling
// Destructor more than once is a no-op on the table but still returns.
func (c *Communicator) Destructor(err error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	pending := c.pending
	c.pending = make(map[uint32]*pendingCall)
	c.provider = nil
	c.mu.Unlock()

	failErr := err
	if failErr == nil {
		failErr = ErrCommunicatorClosed
	}

	uids := make([]uint32, 0, len(pending))
	for uid := range pending {
		uids = append(uids, uid)
	}
	sort.Slice(uids, func(i, j int) bool { return uids[i] < uids[j] })

	for _, uid := range uids {
		pending[uid].resultCh <- callResult{err: failErr}
	}
}

func (c *Communicator) reportError(err error) {
	if c.onError != nil {
		c.onError(err)
	}
}

func (c *Communicator) notifyRecorder(fn func(Recorder)) {
	if c.recorder != nil {
		fn(c.recorder)
	}
}
