// Package feed fans committed purchases out to live order-feed subscribers.
package feed

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/credicambios/internal/model"
)

// DefaultBuffer is the per-subscriber channel size used when none is given.
const DefaultBuffer = 64

// Broker delivers each published order to every current subscriber.
// Publish never blocks: a subscriber whose buffer is full misses the event.
type Broker struct {
	mu     sync.RWMutex
	subs   map[uint64]chan model.OrderEvent
	nextID uint64
	buffer int
	closed bool
}

// NewBroker creates a Broker whose subscriber channels hold buffer events.
func NewBroker(buffer int) *Broker {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Broker{
		subs:   make(map[uint64]chan model.OrderEvent),
		buffer: buffer,
	}
}

// Subscribe registers a new subscriber. The returned channel is closed when
// the unsubscribe func is called or the broker is closed. Subscribing to a
// closed broker yields an already-closed channel.
func (b *Broker) Subscribe() (<-chan model.OrderEvent, func()) {
	ch := make(chan model.OrderEvent, b.buffer)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() { b.remove(id) })
	}
}

func (b *Broker) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// Publish delivers event to every subscriber with room for it.
func (b *Broker) Publish(event model.OrderEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for id, ch := range b.subs {
		select {
		case ch <- event:
		default:
			log.Warn().
				Uint64("subscriber", id).
				Int64("transaction_id", event.TransactionID).
				Msg("order feed subscriber is slow, dropping event")
		}
	}
}

// Subscribers returns the number of active subscribers.
func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close closes every subscriber channel and rejects further subscriptions.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
