package memory

import (
	"context"
	"sync"

	"phone-trivia/internal/domain"
	"phone-trivia/internal/protocol"
)

// Bus is an in-process broadcast bus. Send delivers synchronously to every
// subscriber, in subscription order, on the caller's goroutine.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   []subscription
	closed bool
}

type subscription struct {
	id      int
	handler func(protocol.Message)
}

func NewBus() *Bus {
	return &Bus{}
}

func (b *Bus) Send(ctx context.Context, msg protocol.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return domain.ErrBusClosed
	}
	subs := append([]subscription(nil), b.subs...)
	b.mu.RUnlock()

	for _, s := range subs {
		s.handler(msg)
	}
	return nil
}

// Subscribe registers handler. The returned cancel is safe to call more than
// once.
func (b *Bus) Subscribe(handler func(protocol.Message)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, handler: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// Subscribers returns the number of live subscriptions.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.subs = nil
	return nil
}
