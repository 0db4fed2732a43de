package message

import (
	"context"
	"sync"
)

// Port delivers messages to the other side of the page/shell boundary.
type Port interface {
	Send(ctx context.Context, m Message) error
}

// ChannelPort is an in-process Port backed by a buffered channel.
type ChannelPort struct {
	ch        chan Message
	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

// NewChannelPort creates a ChannelPort with the given buffer size.
func NewChannelPort(buffer int) *ChannelPort {
	if buffer < 0 {
		buffer = 0
	}
	return &ChannelPort{ch: make(chan Message, buffer)}
}

// Send enqueues m, blocking while the buffer is full.
func (p *ChannelPort) Send(ctx context.Context, m Message) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrClosed
	}

	select {
	case p.ch <- m:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Receive returns the next message. It returns ErrClosed once the port is
// closed and drained.
func (p *ChannelPort) Receive(ctx context.Context) (Message, error) {
	select {
	case m, ok := <-p.ch:
		if !ok {
			return nil, ErrClosed
		}
		return m, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close closes the port. Pending messages can still be received.
func (p *ChannelPort) Close() {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.ch)
		p.mu.Unlock()
	})
}
