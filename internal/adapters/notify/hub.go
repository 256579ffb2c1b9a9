// internal/adapters/notify/hub.go
package notify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ammerola/inventory-be/internal/core/domain"
	"github.com/ammerola/inventory-be/internal/core/ports"
)

// DefaultBuffer is the per-subscriber queue length used when none is given.
const DefaultBuffer = 64

// Hub delivers changes to in-process subscribers in publish order. A
// subscriber whose buffer is full misses the change.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uint64]chan domain.Change
	nextID uint64
	closed bool
	logger *slog.Logger
}

var _ ports.ChangeNotifier = (*Hub)(nil)

// NewHub creates an empty hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		subs:   make(map[uint64]chan domain.Change),
		logger: logger.With(slog.String("component", "hub")),
	}
}

// Subscribe registers a subscriber. The returned cancel func removes it
// and closes the channel.
func (h *Hub) Subscribe(buffer int) (<-chan domain.Change, func()) {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan domain.Change, buffer)
	if h.closed {
		close(ch)
		return ch, func() {}
	}

	id := h.nextID
	h.nextID++
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() { h.remove(id) })
	}
}

func (h *Hub) remove(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(ch)
	}
}

// Notify hands change to every subscriber without blocking.
func (h *Hub) Notify(ctx context.Context, change domain.Change) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, ch := range h.subs {
		select {
		case ch <- change:
		default:
			h.logger.WarnContext(ctx, "subscriber buffer full, change dropped",
				slog.Uint64("subscriber", id),
				slog.String("collection", string(change.Collection)),
				slog.String("op", string(change.Op)))
		}
	}
	return nil
}

// Subscribers returns the number of live subscribers
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close disconnects every subscriber. Later subscriptions get a closed
// channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}
