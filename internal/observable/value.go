// Package observable provides a latest-value stream.
//
// A Value always holds a current value. Subscribers receive the current value
// right away and then every later one, but a subscriber that falls behind
// only ever sees the newest value: undelivered older values are replaced.
package observable

import (
	"sync"

	"github.com/google/uuid"
)

type Value[T any] struct {
	mu      sync.RWMutex
	cur     T
	version uint64
	subs    map[string]chan T
	closed  bool
}

func New[T any](initial T) *Value[T] {
	return &Value[T]{cur: initial, subs: make(map[string]chan T)}
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.cur
}

// Version counts the values published with Set.
func (v *Value[T]) Version() uint64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.version
}

// Set publishes x to all subscribers. It never blocks and is a no-op once
// the value is closed.
func (v *Value[T]) Set(x T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.cur = x
	v.version++
	for _, ch := range v.subs {
		offer(ch, x)
	}
}

// offer replaces whatever is buffered in ch with x. Only Set and Subscribe
// send, both under the write lock, so the final send cannot block.
func offer[T any](ch chan T, x T) {
	select {
	case ch <- x:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	ch <- x
}

// Subscribe registers a new subscriber. The returned channel is closed by
// Unsubscribe or Close.
func (v *Value[T]) Subscribe() (string, <-chan T) {
	ch := make(chan T, 1)
	id := uuid.NewString()

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		close(ch)
		return id, ch
	}
	ch <- v.cur
	v.subs[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (v *Value[T]) Unsubscribe(id string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	ch, ok := v.subs[id]
	if !ok {
		return false
	}
	delete(v.subs, id)
	close(ch)
	return true
}

// Subscribers returns the number of active subscriptions.
func (v *Value[T]) Subscribers() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.subs)
}

// Close ends the stream: all subscriber channels are closed and later Set
// calls are ignored.
func (v *Value[T]) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.closed = true
	for id, ch := range v.subs {
		close(ch)
		delete(v.subs, id)
	}
}
