package services

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// StreamHub multiplexes collection events to many SSE clients over a
// single event bus subscription.
type StreamHub struct {
	bus *EventBus

	mu          sync.RWMutex
	subscribers map[chan []byte]struct{}
}

// NewStreamHub starts relaying bus events until ctx is done.
func NewStreamHub(ctx context.Context, bus *EventBus) *StreamHub {
	hub := &StreamHub{
		bus:         bus,
		subscribers: make(map[chan []byte]struct{}),
	}

	go hub.run(ctx)

	return hub
}

func (h *StreamHub) run(ctx context.Context) {
	for {
		pubsub := h.bus.Subscribe(ctx)
		ch := pubsub.Channel(redis.WithChannelSize(256))

		h.relay(ctx, ch)
		_ = pubsub.Close()

		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-time.After(time.Second):
			// connection dropped; resubscribe
		}
	}
}

func (h *StreamHub) relay(ctx context.Context, ch <-chan *redis.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.broadcast([]byte(msg.Payload))
		}
	}
}

func (h *StreamHub) broadcast(payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subscribers {
		select {
		case sub <- payload:
		default:
			// Slow subscriber: drop its oldest event.
			select {
			case <-sub:
			default:
			}
			select {
			case sub <- payload:
			default:
			}
		}
	}
}

func (h *StreamHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subscribers {
		delete(h.subscribers, sub)
		close(sub)
	}
}

// Subscribe registers a new listener and returns a channel plus cleanup function.
func (h *StreamHub) Subscribe() (<-chan []byte, func()) {
	ch := make(chan []byte, 32)

	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()

	unsubscribe := func() {
		h.mu.Lock()
		if _, ok := h.subscribers[ch]; ok {
			delete(h.subscribers, ch)
			close(ch)
		}
		h.mu.Unlock()
	}

	return ch, unsubscribe
}

// Listeners reports how many clients are attached.
func (h *StreamHub) Listeners() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}
