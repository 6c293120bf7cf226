package eventbus

import "sync"

// Policy decides what happens when a subscriber's buffer is full.
type Policy int

const (
	// DropNewest discards the event being published.
	DropNewest Policy = iota
	// LatestWins discards the oldest queued event to make room.
	LatestWins
)

// ParsePolicy maps a configuration value to a Policy. Empty means DropNewest.
func ParsePolicy(s string) (Policy, bool) {
	switch s {
	case "", "drop":
		return DropNewest, true
	case "latest":
		return LatestWins, true
	}
	return DropNewest, false
}

const defaultBuffer = 8

type subscriber[T any] struct {
	ch     chan T
	policy Policy
}

// SubscribeOption customizes a subscription.
type SubscribeOption func(*subscribeOptions)

type subscribeOptions struct {
	buffer int
	policy Policy
}

// WithBuffer sets the subscriber channel capacity.
func WithBuffer(n int) SubscribeOption {
	return func(o *subscribeOptions) {
		if n > 0 {
			o.buffer = n
		}
	}
}

// WithPolicy sets the overflow policy.
func WithPolicy(p Policy) SubscribeOption {
	return func(o *subscribeOptions) { o.policy = p }
}

// TypedBus is a type-safe publish/subscribe bus for events of type T.
// Publish never blocks: slow subscribers lose events according to their policy.
type TypedBus[T any] struct {
	mu     sync.RWMutex
	subs   []*subscriber[T]
	closed bool
}

// NewTyped creates a new TypedBus.
func NewTyped[T any]() *TypedBus[T] { return &TypedBus[T]{} }

// Publish sends the event to all subscribers. Delivery is non-blocking.
func (b *TypedBus[T]) Publish(e T) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, s := range b.subs {
		s.offer(e)
	}
}

func (s *subscriber[T]) offer(e T) {
	select {
	case s.ch <- e:
		return
	default:
	}
	if s.policy != LatestWins {
		return
	}
	// Publish holds the read lock, so concurrent publishers may race here.
	// Each attempt evicts at most one stale event.
	for i := 0; i < 2; i++ {
		select {
		case <-s.ch:
		default:
		}
		select {
		case s.ch <- e:
			return
		default:
		}
	}
}

// Subscribe registers a subscriber and returns its channel.
func (b *TypedBus[T]) Subscribe(opts ...SubscribeOption) <-chan T {
	o := subscribeOptions{buffer: defaultBuffer}
	for _, opt := range opts {
		opt(&o)
	}
	ch := make(chan T, o.buffer)
	b.mu.Lock()
	if b.closed {
		close(ch)
	} else {
		b.subs = append(b.subs, &subscriber[T]{ch: ch, policy: o.policy})
	}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes the subscriber and closes its channel.
func (b *TypedBus[T]) Unsubscribe(sub <-chan T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.ch == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			if !b.closed {
				close(s.ch)
			}
			return
		}
	}
}

// Subscribers returns the number of registered subscribers.
func (b *TypedBus[T]) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close closes the bus and all subscriber channels.
func (b *TypedBus[T]) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	for _, s := range b.subs {
		close(s.ch)
	}
	b.subs = nil
	b.mu.Unlock()
}

// Closed reports whether Close has been called.
func (b *TypedBus[T]) Closed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.closed
}
