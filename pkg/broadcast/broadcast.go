package broadcast

import (
	"sync"
)

// Broadcaster distributes events to subscribers without ever blocking the
// publisher. Each subscriber holds at most one pending event; a slow
// subscriber only sees the latest one.
type Broadcaster[E any] struct {
	mu          sync.Mutex
	subscribers []chan E
	lastValue   *E
	closed      bool
}

// creates a new Broadcaster instance
// E is the type of events that will be broadcasted
// New subscribers will receive the last broadcasted value immediately upon subscription
func NewBroadcaster[E any]() *Broadcaster[E] {
	return &Broadcaster[E]{
		subscribers: make([]chan E, 0),
	}
}

func (b *Broadcaster[E]) Subscribe() <-chan E {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan E, 1)
	if b.closed {
		close(ch)
		return ch
	}
	if b.lastValue != nil {
		ch <- *b.lastValue
	}
	b.subscribers = append(b.subscribers, ch)
	return ch
}

func (b *Broadcaster[E]) Unsubscribe(ch <-chan E) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, subscriber := range b.subscribers {
		if subscriber == ch {
			close(subscriber) // Close the channel to signal no more messages
			b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
			return
		}
	}
}

func (b *Broadcaster[E]) Broadcast(event E) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.lastValue = &event
	for _, subscriber := range b.subscribers {
		select {
		case subscriber <- event:
		default:
			// replace the pending event with the newer one
			select {
			case <-subscriber:
			default:
			}
			subscriber <- event
		}
	}
}

// Close closes all subscriber channels. Later broadcasts are dropped.
func (b *Broadcaster[E]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for _, subscriber := range b.subscribers {
		close(subscriber)
	}
	b.subscribers = nil
}
