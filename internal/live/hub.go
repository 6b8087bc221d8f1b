// Package live implements the in-process notification hub behind the store
// order feed.  A store dashboard subscribes to its own store id and gets a
// signal whenever an order for that store is created or changes status; the
// consumer then re-queries the full order list (snapshot semantics, like a
// standing query).  Subscriptions are cancellable handles and must be
// released when the consumer goes away so no standing registration leaks.
package live

import "sync"

// Subscription is a cancellable handle on a store's order feed.  C receives
// an empty struct whenever something about the store's orders changed.  The
// channel has capacity one and notifications coalesce: a slow consumer sees
// at least one pending signal, never a backlog, and publishers never block.
type Subscription struct {
	C       chan struct{}
	hub     *Hub
	storeID uint64
	once    sync.Once
}

// Cancel releases the subscription.  Safe to call more than once.  After
// Cancel returns no further notifications are delivered on C.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.hub.remove(s)
	})
}

// Hub fans order-change signals out to per-store subscribers.
type Hub struct {
	mu   sync.Mutex
	subs map[uint64]map[*Subscription]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[uint64]map[*Subscription]struct{})}
}

// Subscribe registers a new subscription for the given store.
func (h *Hub) Subscribe(storeID uint64) *Subscription {
	s := &Subscription{
		C:       make(chan struct{}, 1),
		hub:     h,
		storeID: storeID,
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[storeID]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.subs[storeID] = set
	}
	set[s] = struct{}{}
	return s
}

// Notify signals every subscriber of the given store.  The send is
// non-blocking; a subscriber that already has a pending signal is skipped,
// which is fine since consumers re-query the full snapshot per signal.
func (h *Hub) Notify(storeID uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs[storeID] {
		select {
		case s.C <- struct{}{}:
		default:
		}
	}
}

func (h *Hub) remove(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.subs[s.storeID]
	delete(set, s)
	if len(set) == 0 {
		delete(h.subs, s.storeID)
	}
}
