package pubsub

import (
	"context"
	"sync"
	"time"
)

const defaultBufferSize = 64

// Broker is a generic pub/sub event broker.
// It allows multiple subscribers to receive events published by publishers.
type Broker[T any] struct {
	subs       map[chan Event[T]]struct{}
	mu         sync.RWMutex
	done       chan struct{}
	bufferSize int
}

// NewBroker creates a new broker with the default buffer size (64).
func NewBroker[T any]() *Broker[T] {
	return NewBrokerWithBuffer[T](defaultBufferSize)
}

// NewBrokerWithBuffer creates a new broker with a custom buffer size.
func NewBrokerWithBuffer[T any](size int) *Broker[T] {
	return &Broker[T]{
		subs:       make(map[chan Event[T]]struct{}),
		done:       make(chan struct{}),
		bufferSize: size,
	}
}

// Subscribe creates a new subscription channel.
// The channel is automatically closed when ctx is cancelled.
func (b *Broker[T]) Subscribe(ctx context.Context) <-chan Event[T] {
	sub := b.Register()
	go func() {
		<-ctx.Done()
		sub.Close()
	}()
	return sub.C
}

// Subscription is an explicit handle for a broker subscription.
// Close removes the subscriber and closes its channel; it is safe to
// call more than once. Subscriptions are collected by owners that need
// deterministic cleanup (e.g. a session's resource scope) instead of
// tying the lifetime to a context.
type Subscription[T any] struct {
	C      <-chan Event[T]
	broker *Broker[T]
	ch     chan Event[T]
	once   sync.Once
}

// Close removes the subscription from the broker and closes the channel.
func (s *Subscription[T]) Close() {
	s.once.Do(func() {
		s.broker.mu.Lock()
		defer s.broker.mu.Unlock()

		select {
		case <-s.broker.done:
			return // Broker already closed the channel
		default:
		}

		if _, ok := s.broker.subs[s.ch]; ok {
			delete(s.broker.subs, s.ch)
			close(s.ch)
		}
	})
}

// Register creates a subscription with an explicit Close handle.
func (b *Broker[T]) Register() *Subscription[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	// A closed broker hands back an already-closed channel
	select {
	case <-b.done:
		ch := make(chan Event[T])
		close(ch)
		sub := &Subscription[T]{C: ch, broker: b, ch: ch}
		sub.once.Do(func() {})
		return sub
	default:
	}

	ch := make(chan Event[T], b.bufferSize)
	b.subs[ch] = struct{}{}
	return &Subscription[T]{C: ch, broker: b, ch: ch}
}

// Publish sends an event to all subscribers.
// Non-blocking: drops events if subscriber channel is full.
func (b *Broker[T]) Publish(eventType EventType, payload T) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	select {
	case <-b.done:
		return
	default:
	}

	event := Event[T]{
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	for sub := range b.subs {
		select {
		case sub <- event:
			// Delivered
		default:
			// Channel full - drop to prevent blocking
		}
	}
}

// Close shuts down the broker and all subscriber channels.
func (b *Broker[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case <-b.done:
		return // Already closed
	default:
	}

	close(b.done)
	for sub := range b.subs {
		close(sub)
	}
	b.subs = nil
}

// SubscriberCount returns the number of active subscribers.
func (b *Broker[T]) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
