package rfc

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// WSServerAdapter implements Adapter over one accepted WebSocket
// connection, gated by an Acceptor. A new WSServerAdapter is created per
// accepted connection; NewWSServerAdapter plus Accept implement the
// NONE -> ACCEPTING -> OPEN half of the Acceptor's transition table.
type WSServerAdapter struct {
	id       string
	acceptor *Acceptor
	path     string

	mu      sync.Mutex
	conn    *websocket.Conn
	inbound func([]byte)
	onClose func(error)
}

// NewWSServerAdapter returns an adapter in Acceptor state NONE, not yet
// bound to a connection.
func NewWSServerAdapter() *WSServerAdapter {
	return &WSServerAdapter{id: uuid.New().String(), acceptor: NewAcceptor()}
}

// State returns the underlying Acceptor's current state.
func (a *WSServerAdapter) State() AcceptorState { return a.acceptor.State() }

// Path returns the path component of the HTTP upgrade request that
// produced this connection, once Accept has run.
func (a *WSServerAdapter) Path() string { return a.path }

// Accept upgrades r to a WebSocket connection and transitions the
// underlying Acceptor NONE -> ACCEPTING -> OPEN, registering the read loop
// in between so no inbound frame can race the handler wiring. Accept may
// only be called once; a second call observes a state other than NONE and
// fails with a DomainError.
func (a *WSServerAdapter) Accept(upgrader websocket.Upgrader, w http.ResponseWriter, r *http.Request) error {
	if err := a.acceptor.Accept(); err != nil {
		return err
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return &TransportError{Cause: err}
	}

	a.mu.Lock()
	a.conn = conn
	a.path = r.URL.Path
	a.mu.Unlock()

	go a.readLoop()

	return a.acceptor.Ready()
}

// Reject declines the connection without upgrading it, transitioning
// NONE -> REJECTING -> CLOSED.
func (a *WSServerAdapter) Reject(w http.ResponseWriter, statusCode int) error {
	if err := a.acceptor.Reject(); err != nil {
		return err
	}
	w.WriteHeader(statusCode)
	return a.acceptor.Drained()
}

func (a *WSServerAdapter) SendData(data []byte) error {
	if err := a.acceptor.Inspect(); err != nil {
		return err
	}
	a.mu.Lock()
	conn := a.conn
	a.mu.Unlock()
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return &TransportError{Cause: err}
	}
	return nil
}

func (a *WSServerAdapter) SetInboundHandler(fn func([]byte)) {
	a.mu.Lock()
	a.inbound = fn
	a.mu.Unlock()
}

func (a *WSServerAdapter) SetCloseHandler(fn func(error)) {
	a.mu.Lock()
	a.onClose = fn
	a.mu.Unlock()
}

func (a *WSServerAdapter) InspectReady() error { return a.acceptor.Inspect() }

// Close requests a graceful shutdown, transitioning OPEN -> CLOSING and
// physically closing the socket once drained. A second call observes
// CLOSING/CLOSED and fails with a domain error rather than silently
// re-closing.
func (a *WSServerAdapter) Close() error {
	if err := a.acceptor.Close(); err != nil {
		return err
	}
	a.mu.Lock()
	conn := a.conn
	a.mu.Unlock()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), nil)
	err := conn.Close()
	a.finish(nil)
	return err
}

func (a *WSServerAdapter) readLoop() {
	for {
		a.mu.Lock()
		conn := a.conn
		a.mu.Unlock()

		_, data, err := conn.ReadMessage()
		if err != nil {
			a.handleReadError(err)
			return
		}

		a.mu.Lock()
		handler := a.inbound
		a.mu.Unlock()
		if handler != nil {
			handler(data)
		}
	}
}

func (a *WSServerAdapter) handleReadError(err error) {
	var closeErr error
	if ce, ok := err.(*websocket.CloseError); ok && isCleanClose(ce.Code) {
		closeErr = nil
	} else {
		closeErr = &TransportError{Cause: err}
	}
	// A failed OPEN -> CLOSING transition means Close already ran and has
	// invoked the close handler itself.
	if err := a.acceptor.Close(); err != nil {
		return
	}
	a.finish(closeErr)
}

func (a *WSServerAdapter) finish(closeErr error) {
	_ = a.acceptor.Drained()
	a.mu.Lock()
	onClose := a.onClose
	a.mu.Unlock()
	if onClose != nil {
		onClose(closeErr)
	}
}

// WSClientAdapter implements Adapter by dialing a WebSocket server. Unlike
// the server side it carries no Acceptor: InspectReady reports "ready" once
// Dial has returned successfully, and an "already closed" error once the
// adapter has been closed (not a state-machine rejection).
type WSClientAdapter struct {
	id string

	mu      sync.Mutex
	conn    *websocket.Conn
	closed  bool
	inbound func([]byte)
	onClose func(error)
}

// NewWSClientAdapter dials url and returns a connected adapter.
func NewWSClientAdapter(ctx context.Context, rawURL string, cfg Config) (*WSClientAdapter, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("rfc: parse url: %w", err)
	}

	dialer := websocket.Dialer{HandshakeTimeout: cfg.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, &TransportError{Cause: err}
	}

	a := &WSClientAdapter{id: uuid.New().String(), conn: conn}
	go a.readLoop()
	return a, nil
}

// DialWS resolves cfg (env-var fallback, scheme normalization, timeout
// defaults) and dials the resulting URL, the entry point a standalone
// program reaches for instead of wiring resolveConfig itself.
func DialWS(ctx context.Context, cfg Config) (*WSClientAdapter, error) {
	resolved, err := resolveConfig(cfg)
	if err != nil {
		return nil, err
	}
	return NewWSClientAdapter(ctx, resolved.URL, resolved)
}

func (a *WSClientAdapter) SendData(data []byte) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return &DomainError{Op: "send", Reason: "already closed"}
	}
	conn := a.conn
	a.mu.Unlock()
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return &TransportError{Cause: err}
	}
	return nil
}

func (a *WSClientAdapter) SetInboundHandler(fn func([]byte)) {
	a.mu.Lock()
	a.inbound = fn
	a.mu.Unlock()
}

func (a *WSClientAdapter) SetCloseHandler(fn func(error)) {
	a.mu.Lock()
	a.onClose = fn
	a.mu.Unlock()
}

func (a *WSClientAdapter) InspectReady() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return &DomainError{Op: "inspect", Reason: "already closed"}
	}
	return nil
}

// Close physically closes the connection and invokes the close handler with
// a nil error. A second call is a no-op that returns nil, matching the
// "already closed" branch of InspectReady rather than re-closing.
func (a *WSClientAdapter) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	conn := a.conn
	onClose := a.onClose
	a.mu.Unlock()

	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), nil)
	err := conn.Close()
	if onClose != nil {
		onClose(nil)
	}
	return err
}

func (a *WSClientAdapter) readLoop() {
	for {
		a.mu.Lock()
		conn := a.conn
		a.mu.Unlock()

		_, data, err := conn.ReadMessage()
		if err != nil {
			a.handleReadError(err)
			return
		}

		a.mu.Lock()
		handler := a.inbound
		a.mu.Unlock()
		if handler != nil {
			handler(data)
		}
	}
}

func (a *WSClientAdapter) handleReadError(err error) {
	var closeErr error
	if ce, ok := err.(*websocket.CloseError); ok && isCleanClose(ce.Code) {
		closeErr = nil
	} else {
		closeErr = &TransportError{Cause: err}
	}

	a.mu.Lock()
	alreadyClosed := a.closed
	a.closed = true
	onClose := a.onClose
	a.mu.Unlock()

	if !alreadyClosed && onClose != nil {
		onClose(closeErr)
	}
}
