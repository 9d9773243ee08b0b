package events

import (
	"context"
	"sync"
)

const subscriberBuffer = 16

// Hub is an in-process publisher with per-job subscriptions. Slow
// subscribers lose events rather than block the publisher.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[*subscription]struct{}
	closed bool
}

type subscription struct {
	ch chan Event
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*subscription]struct{})}
}

// Subscribe returns a channel of events for jobID ("" receives every job)
// and a cancel func that must be called to release it.
func (h *Hub) Subscribe(jobID string) (<-chan Event, func()) {
	sub := &subscription{ch: make(chan Event, subscriberBuffer)}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(sub.ch)
		return sub.ch, func() {}
	}
	set, ok := h.subs[jobID]
	if !ok {
		set = make(map[*subscription]struct{})
		h.subs[jobID] = set
	}
	set[sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if set, ok := h.subs[jobID]; ok {
				if _, ok := set[sub]; ok {
					delete(set, sub)
					close(sub.ch)
				}
				if len(set) == 0 {
					delete(h.subs, jobID)
				}
			}
		})
	}
}

func (h *Hub) Publish(ctx context.Context, ev Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed || ev.Job == nil {
		return nil
	}
	for _, key := range []string{ev.Job.ID, ""} {
		for sub := range h.subs[key] {
			select {
			case sub.ch <- ev:
			default:
			}
		}
	}
	return nil
}

// Subscribers reports how many subscriptions are open for jobID.
func (h *Hub) Subscribers(jobID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[jobID])
}

// Close ends every subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for key, set := range h.subs {
		for sub := range set {
			close(sub.ch)
		}
		delete(h.subs, key)
	}
}
