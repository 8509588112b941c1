package hub

import (
	"sync"

	"github.com/motionview/mvbridge/internal/metrics"
)

// Sink receives broadcast lines. A sink that returns an error from Send is
// considered dead and is pruned from the hub after the current publish pass.
type Sink interface {
	Send(line string) error
}

// Hub fans each published line out to every registered sink. Membership is a
// set: subscribing the same sink twice has no additional effect, and
// unsubscribing an unknown sink is a no-op. Delivery is best-effort: a
// failing sink never blocks or fails delivery to the others.
type Hub struct {
	mu   sync.Mutex
	subs map[Sink]struct{}
}

// New constructs an empty hub.
func New() *Hub {
	return &Hub{subs: make(map[Sink]struct{})}
}

// Subscribe registers sink for future publishes. A sink added while a
// publish pass is in flight may miss that particular line.
func (h *Hub) Subscribe(sink Sink) {
	if sink == nil {
		return
	}
	h.mu.Lock()
	h.subs[sink] = struct{}{}
	count := len(h.subs)
	h.mu.Unlock()
	metrics.SetSubscribers(count)
}

// Unsubscribe removes sink. Safe to call for a sink that was never
// registered or was already pruned.
func (h *Hub) Unsubscribe(sink Sink) {
	h.mu.Lock()
	delete(h.subs, sink)
	count := len(h.subs)
	h.mu.Unlock()
	metrics.SetSubscribers(count)
}

// Count reports the number of registered sinks.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Publish delivers line to every sink registered at the start of the pass.
// The subscriber set is snapshotted under the lock and the sends happen
// outside it, so a slow sink cannot block Subscribe or Unsubscribe. Sinks
// whose Send fails are removed after the pass completes.
func (h *Hub) Publish(line string) {
	h.mu.Lock()
	current := make([]Sink, 0, len(h.subs))
	for sink := range h.subs {
		current = append(current, sink)
	}
	h.mu.Unlock()

	var dead []Sink
	for _, sink := range current {
		if err := sink.Send(line); err != nil {
			dead = append(dead, sink)
		}
	}

	metrics.IncLinesPublished()

	if len(dead) == 0 {
		return
	}
	h.mu.Lock()
	for _, sink := range dead {
		delete(h.subs, sink)
	}
	count := len(h.subs)
	h.mu.Unlock()
	metrics.SetSubscribers(count)
}
