package events

import "sync"

// Handler receives the payload of a published event
type Handler func(payload any)

// Observer receives every event with its payload
type Observer func(ev Event, payload any)

// Bus dispatches published events to their subscribers.
// Handlers run synchronously, in subscription order.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[Event][]Handler
}

// NewBus creates a bus with no subscriber.
func NewBus() *Bus {
	return &Bus{subscribers: make(map[Event][]Handler)}
}

// Subscribe registers handler for ev.
func (b *Bus) Subscribe(ev Event, handler Handler) error {
	if !ev.Valid() {
		return &UnknownEventError{Name: string(ev)}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[ev] = append(b.subscribers[ev], handler)
	return nil
}

// SubscribeAll registers observer for every event of the catalogue.
func (b *Bus) SubscribeAll(observer Observer) {
	for _, ev := range catalogue {
		ev := ev
		// catalogue events are always valid
		_ = b.Subscribe(ev, func(payload any) { observer(ev, payload) })
	}
}

// Publish calls the handlers of ev with payload.
func (b *Bus) Publish(ev Event, payload any) error {
	if !ev.Valid() {
		return &UnknownEventError{Name: string(ev)}
	}
	b.mu.RLock()
	handlers := make([]Handler, len(b.subscribers[ev]))
	copy(handlers, b.subscribers[ev])
	b.mu.RUnlock()

	for _, h := range handlers {
		h(payload)
	}
	return nil
}

// Subscribers returns the number of handlers registered for ev.
func (b *Bus) Subscribers(ev Event) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[ev])
}
