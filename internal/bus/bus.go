// Package bus is a page-scoped publish/subscribe mechanism. Delivery is
// synchronous: Publish returns after every current subscriber of the
// channel has run, in subscription order. Nothing is stored, so a
// subscriber only sees messages published after it subscribed.
package bus

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Handler receives a message published on a subscribed channel.
type Handler func(ctx context.Context, msg Message)

type entry struct {
	id      uint64
	handler Handler
}

type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[Channel][]entry
	logger *zap.Logger
}

func New(logger *zap.Logger) *Bus {
	return &Bus{
		subs:   make(map[Channel][]entry),
		logger: logger,
	}
}

// Subscription is returned by Subscribe.
type Subscription struct {
	bus     *Bus
	channel Channel
	id      uint64
	once    sync.Once
}

// Unsubscribe stops delivery. Calling it more than once is harmless.
func (s *Subscription) Unsubscribe() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		s.bus.remove(s.channel, s.id)
	})
}

// Subscribe registers h for every later message on ch.
func (b *Bus) Subscribe(ch Channel, h Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	b.subs[ch] = append(b.subs[ch], entry{id: b.nextID, handler: h})
	b.logger.Debug("bus subscribe", zap.String("channel", string(ch)), zap.Uint64("id", b.nextID))

	return &Subscription{bus: b, channel: ch, id: b.nextID}
}

func (b *Bus) remove(ch Channel, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entries := b.subs[ch]
	for i, e := range entries {
		if e.id == id {
			// Copy so a Publish iterating the old slice is unaffected.
			next := make([]entry, 0, len(entries)-1)
			next = append(next, entries[:i]...)
			next = append(next, entries[i+1:]...)
			b.subs[ch] = next
			break
		}
	}
	b.logger.Debug("bus unsubscribe", zap.String("channel", string(ch)), zap.Uint64("id", id))
}

// Publish delivers msg to the subscribers present when Publish is called.
// Handlers may subscribe or unsubscribe while being delivered to.
func (b *Bus) Publish(ctx context.Context, msg Message) {
	ch := msg.Channel()

	b.mu.RLock()
	entries := b.subs[ch]
	b.mu.RUnlock()

	b.logger.Debug("bus publish", zap.String("channel", string(ch)), zap.Int("subscribers", len(entries)))
	for _, e := range entries {
		e.handler(ctx, cloneMessage(msg))
	}
}

// SubscriberCount reports how many handlers listen on ch.
func (b *Bus) SubscriberCount(ch Channel) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[ch])
}

// On subscribes a handler for one message variant.
func On[M Message](b *Bus, fn func(ctx context.Context, msg M)) *Subscription {
	var zero M
	return b.Subscribe(zero.Channel(), func(ctx context.Context, msg Message) {
		if m, ok := msg.(M); ok {
			fn(ctx, m)
		}
	})
}
