package rfc

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"
)

// ProcessAdapter implements a Worker-style transport over a child
// process's stdin/stdout: newline-delimited JSON for Invoke records, with
// "READY" and "CLOSE" intercepted as framework control messages before
// they ever reach the inbound handler. It is the closest Go analogue to a
// Worker's postMessage port.
type ProcessAdapter struct {
	w       io.Writer
	writeMu sync.Mutex

	mu      sync.Mutex
	closed  bool
	inbound func([]byte)
	onClose func(error)

	readyCh   chan struct{}
	readyOnce sync.Once
}

// NewProcessAdapter wraps r/w (typically a child process's Stdout/Stdin, or
// vice versa on the child's own side) and starts its read loop.
func NewProcessAdapter(r io.Reader, w io.Writer) *ProcessAdapter {
	p := &ProcessAdapter{w: w, readyCh: make(chan struct{})}
	go p.readLoop(r)
	return p
}

func (p *ProcessAdapter) readLoop(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		switch string(line) {
		case "READY":
			// Only the first READY is echoed, so the echo itself does not
			// bounce back and forth between the two sides.
			p.readyOnce.Do(func() {
				_ = p.writeControl("READY")
				close(p.readyCh)
			})
			continue
		case "CLOSE":
			_ = p.Close()
			continue
		}

		p.mu.Lock()
		handler := p.inbound
		p.mu.Unlock()
		if handler != nil {
			cp := append([]byte(nil), line...)
			handler(cp)
		}
	}

	p.mu.Lock()
	alreadyClosed := p.closed
	p.closed = true
	onClose := p.onClose
	p.mu.Unlock()

	if !alreadyClosed {
		var closeErr error
		if err := scanner.Err(); err != nil {
			closeErr = &TransportError{Cause: err}
		}
		if onClose != nil {
			onClose(closeErr)
		}
	}
}

// Handshake sends the initial READY and blocks until the peer echoes it
// back, guaranteeing the peer has attached its message handler before any
// Invoke is sent.
func (p *ProcessAdapter) Handshake(ctx context.Context) error {
	if err := p.writeControl("READY"); err != nil {
		return err
	}
	select {
	case <-p.readyCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *ProcessAdapter) writeControl(s string) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	_, err := fmt.Fprintln(p.w, s)
	if err != nil {
		return &TransportError{Cause: err}
	}
	return nil
}

func (p *ProcessAdapter) SendData(data []byte) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return &DomainError{Op: "send", Reason: "already closed"}
	}
	p.mu.Unlock()

	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	if _, err := p.w.Write(data); err != nil {
		return &TransportError{Cause: err}
	}
	if _, err := p.w.Write([]byte("\n")); err != nil {
		return &TransportError{Cause: err}
	}
	return nil
}

func (p *ProcessAdapter) SetInboundHandler(fn func([]byte)) {
	p.mu.Lock()
	p.inbound = fn
	p.mu.Unlock()
}

func (p *ProcessAdapter) SetCloseHandler(fn func(error)) {
	p.mu.Lock()
	p.onClose = fn
	p.mu.Unlock()
}

func (p *ProcessAdapter) InspectReady() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return &DomainError{Op: "inspect", Reason: "already closed"}
	}
	return nil
}

// Close sends a cooperative "CLOSE" control message to the peer and marks
// this side closed. A second call is a no-op.
func (p *ProcessAdapter) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	onClose := p.onClose
	p.mu.Unlock()

	_ = p.writeControl("CLOSE")
	if onClose != nil {
		onClose(nil)
	}
	return nil
}
