// Package realtime holds the registry of connected push observers.
// The hub is the only process-wide mutable structure shared between the
// notification write path and the streaming read path; it supports
// concurrent subscribe, unsubscribe and broadcast.
package realtime

import (
	"log"
	"sync"

	"mailbox-status-backend/internal/model"
)

// observerBuffer is the per-observer channel capacity. An observer that
// falls this far behind is considered dead and is dropped.
const observerBuffer = 16

// Observer is one connected real-time client. Notifications arrive on C
// in creation order; C is closed when the observer is dropped by the hub.
type Observer struct {
	C  chan model.Notification
	id uint64
}

// Hub fans notifications out to every connected observer. A slow or
// dead observer never blocks delivery to the others; a failed send is
// treated as an implicit disconnect.
type Hub struct {
	mu        sync.Mutex
	observers map[uint64]*Observer
	nextID    uint64
}

// NewHub creates an empty observer registry.
func NewHub() *Hub {
	return &Hub{observers: make(map[uint64]*Observer)}
}

// Subscribe registers a new observer. The caller must eventually call
// Unsubscribe with the returned observer.
func (h *Hub) Subscribe() *Observer {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	obs := &Observer{C: make(chan model.Notification, observerBuffer), id: h.nextID}
	h.observers[obs.id] = obs
	return obs
}

// Unsubscribe removes an observer. Safe to call after the hub has
// already dropped it.
func (h *Hub) Unsubscribe(obs *Observer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.drop(obs)
}

// Broadcast delivers a notification to every connected observer and
// returns the number of successful deliveries. Observers whose buffer
// is full are dropped.
func (h *Hub) Broadcast(n model.Notification) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	delivered := 0
	for _, obs := range h.observers {
		select {
		case obs.C <- n:
			delivered++
		default:
			log.Printf("dropping unresponsive notification observer %d", obs.id)
			h.drop(obs)
		}
	}
	return delivered
}

// Count returns the number of connected observers.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.observers)
}

// drop removes and closes an observer. Caller holds h.mu.
func (h *Hub) drop(obs *Observer) {
	if _, ok := h.observers[obs.id]; !ok {
		return
	}
	delete(h.observers, obs.id)
	close(obs.C)
}
