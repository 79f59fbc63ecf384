// Package mailbox provides an unbounded FIFO queue that never blocks the
// producer. Consumers either block in Pop or select on Notify and drain with
// TryPop.
package mailbox

import (
	"context"
	"errors"
	"sync"
)

var ErrClosed = errors.New("mailbox: closed")

type Mailbox[T any] struct {
	mu     sync.Mutex
	items  []T
	closed bool
	notify chan struct{}
	done   chan struct{}
}

func New[T any]() *Mailbox[T] {
	return &Mailbox[T]{
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Push appends v. It returns false once the mailbox is closed.
func (m *Mailbox[T]) Push(v T) bool {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return false
	}
	m.items = append(m.items, v)
	m.mu.Unlock()
	m.signal()
	return true
}

// TryPop removes the oldest item without blocking.
func (m *Mailbox[T]) TryPop() (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var zero T
	if len(m.items) == 0 {
		return zero, false
	}
	v := m.items[0]
	m.items[0] = zero
	m.items = m.items[1:]
	if len(m.items) > 0 {
		m.signal()
	}
	return v, true
}

// Pop blocks until an item is available, ctx ends, or the mailbox is closed
// and drained.
func (m *Mailbox[T]) Pop(ctx context.Context) (T, error) {
	for {
		if v, ok := m.TryPop(); ok {
			return v, nil
		}
		var zero T
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-m.notify:
		case <-m.done:
			if v, ok := m.TryPop(); ok {
				return v, nil
			}
			return zero, ErrClosed
		}
	}
}

// Notify fires at least once after items become available.
func (m *Mailbox[T]) Notify() <-chan struct{} {
	return m.notify
}

// Done is closed by Close.
func (m *Mailbox[T]) Done() <-chan struct{} {
	return m.done
}

func (m *Mailbox[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Close rejects further pushes. Items already queued remain poppable.
func (m *Mailbox[T]) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	close(m.done)
}

func (m *Mailbox[T]) signal() {
	select {
	case m.notify <- struct{}{}:
	default:
	}
}
