package events

import (
	"context"
	"sync"
)

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Notifier decouples the store from its consumers: every published event is
// delivered to every registered handler, synchronously, in registration
// order.
type Notifier interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(handler EventHandler) *Subscription
}

// Subscription is the handle returned by Subscribe. Each call to Subscribe
// produces an independent registration, even for the same handler.
type Subscription struct {
	notifier *notifier
	id       uint64
}

// Unsubscribe removes the registration. Calling it during a notification
// pass does not affect delivery within that pass; subsequent publishes skip
// the handler. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.notifier == nil {
		return
	}
	s.notifier.remove(s.id)
	s.notifier = nil
}

type registration struct {
	id      uint64
	handler EventHandler
}

// notifier is a simple synchronous implementation.
type notifier struct {
	mu      sync.Mutex
	nextID  uint64
	entries []registration
}

// NewNotifier creates a notifier instance.
func NewNotifier() Notifier {
	return &notifier{}
}

// Subscribe registers a handler and returns its subscription handle.
func (n *notifier) Subscribe(handler EventHandler) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nextID++
	n.entries = append(n.entries, registration{id: n.nextID, handler: handler})
	return &Subscription{notifier: n, id: n.nextID}
}

// Publish synchronously invokes every handler registered at the start of the
// pass. Handler errors do not stop delivery to later handlers.
func (n *notifier) Publish(ctx context.Context, event Event) error {
	n.mu.Lock()
	snapshot := make([]registration, len(n.entries))
	copy(snapshot, n.entries)
	n.mu.Unlock()

	for _, entry := range snapshot {
		if err := entry.handler(ctx, event); err != nil {
			// continue processing other handlers despite errors
		}
	}
	return nil
}

func (n *notifier) remove(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, entry := range n.entries {
		if entry.id == id {
			n.entries = append(n.entries[:i], n.entries[i+1:]...)
			return
		}
	}
}
