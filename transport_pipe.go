package rfc

import (
	"errors"
	"sync"
)

// PipeAdapter is a symmetric in-process pseudo-transport: a direct
// function reference as sender, no state machine, InspectReady constant
// "ready" until Close. It exists primarily for deterministic tests and
// for demos that don't need a real socket.
type PipeAdapter struct {
	mu      sync.Mutex
	peer    *PipeAdapter
	closed  bool
	inbound func([]byte)
	onClose func(error)
}

// NewPipePair returns two PipeAdapters wired to each other: data sent on
// one is delivered, asynchronously, to the other's inbound handler.
func NewPipePair() (*PipeAdapter, *PipeAdapter) {
	a := &PipeAdapter{}
	b := &PipeAdapter{}
	a.peer = b
	b.peer = a
	return a, b
}

func (p *PipeAdapter) SendData(data []byte) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return &DomainError{Op: "send", Reason: "already closed"}
	}
	peer := p.peer
	p.mu.Unlock()

	cp := append([]byte(nil), data...)
	go func() {
		peer.mu.Lock()
		handler := peer.inbound
		closed := peer.closed
		peer.mu.Unlock()
		if !closed && handler != nil {
			handler(cp)
		}
	}()
	return nil
}

func (p *PipeAdapter) SetInboundHandler(fn func([]byte)) {
	p.mu.Lock()
	p.inbound = fn
	p.mu.Unlock()
}

func (p *PipeAdapter) SetCloseHandler(fn func(error)) {
	p.mu.Lock()
	p.onClose = fn
	p.mu.Unlock()
}

func (p *PipeAdapter) InspectReady() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return &DomainError{Op: "inspect", Reason: "already closed"}
	}
	return nil
}

// Close tears down both ends of the pair. A second call is a no-op.
func (p *PipeAdapter) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	onClose := p.onClose
	peer := p.peer
	p.mu.Unlock()

	if onClose != nil {
		onClose(nil)
	}

	go func() {
		peer.mu.Lock()
		if peer.closed {
			peer.mu.Unlock()
			return
		}
		peer.closed = true
		peerOnClose := peer.onClose
		peer.mu.Unlock()
		if peerOnClose != nil {
			peerOnClose(errors.New("rfc: peer closed"))
		}
	}()
	return nil
}
