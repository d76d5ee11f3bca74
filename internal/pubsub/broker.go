// Package pubsub fans typed events out to any number of subscribers.
package pubsub

import (
	"context"
	"fmt"
	"sync"

	"github.com/thruflo/ranker/internal/logging"
)

const defaultChannelBufferSize = 64

// Broker delivers every published event to each subscriber in publish order.
// When a subscriber falls a full buffer behind, its oldest queued event is
// discarded so the newest one always arrives.
type Broker[T any] struct {
	subs       map[chan Event[T]]context.CancelFunc
	mu         sync.RWMutex
	isClosed   bool
	bufferSize int
	log        *logging.Logger
}

func NewBroker[T any]() *Broker[T] {
	return NewBrokerWithBuffer[T](defaultChannelBufferSize)
}

// NewBrokerWithBuffer creates a broker whose subscriber channels hold size events.
func NewBrokerWithBuffer[T any](size int) *Broker[T] {
	if size < 1 {
		size = 1
	}
	return &Broker[T]{
		subs:       make(map[chan Event[T]]context.CancelFunc),
		bufferSize: size,
		log:        logging.With("payload_type", fmt.Sprintf("%T", *new(T))),
	}
}

func (b *Broker[T]) Shutdown() {
	b.mu.Lock()
	if b.isClosed {
		b.mu.Unlock()
		return
	}
	b.isClosed = true

	for ch, cancel := range b.subs {
		cancel()
		close(ch)
		delete(b.subs, ch)
	}
	b.mu.Unlock()
	b.log.Debug("pubsub broker shut down")
}

// Subscribe returns a channel that receives events until ctx is done or the
// broker shuts down. Subscribing to a closed broker yields a closed channel.
func (b *Broker[T]) Subscribe(ctx context.Context) <-chan Event[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.isClosed {
		closedCh := make(chan Event[T])
		close(closedCh)
		return closedCh
	}

	subCtx, subCancel := context.WithCancel(ctx)
	subscriberChannel := make(chan Event[T], b.bufferSize)
	b.subs[subscriberChannel] = subCancel

	go func() {
		<-subCtx.Done()
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[subscriberChannel]; ok {
			close(subscriberChannel)
			delete(b.subs, subscriberChannel)
		}
	}()

	return subscriberChannel
}

// Publish never blocks on a slow subscriber.
func (b *Broker[T]) Publish(eventType EventType, payload T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.isClosed {
		b.log.Warn("attempted to publish on a closed pubsub broker", "type", eventType)
		return
	}

	event := Event[T]{Type: eventType, Payload: payload}

	for ch := range b.subs {
		select {
		case ch <- event:
			continue
		default:
		}

		// Full: make room by dropping the oldest queued event.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- event:
		default:
		}
		b.log.Warn("pubsub subscriber lagging, dropped oldest event", "type", eventType)
	}
}

func (b *Broker[T]) GetSubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
