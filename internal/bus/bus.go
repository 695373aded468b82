// Package bus fans parameter-change events out to registered listeners.
// Dispatch is synchronous and ordered: events are delivered in the order
// they appear within the triggering edit entry, to listeners in
// registration order, with no coalescing across commits.
package bus

import (
	"sync"

	"scenetune/internal/param"
)

// Source tags which operation produced an event.
type Source string

const (
	SourceCommit Source = "commit"
	SourceUndo   Source = "undo"
	SourceRedo   Source = "redo"
)

// Event describes one parameter's value transition.
type Event struct {
	Name   string
	Old    param.Value
	New    param.Value
	Source Source
}

// Listener receives events synchronously on the publishing goroutine.
type Listener func(Event)

// Bus is an observer registry. The zero value is not usable; call New.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   []subscription
}

type subscription struct {
	id int
	fn Listener
}

// Subscription is a handle for cancelling a listener registration.
type Subscription struct {
	bus *Bus
	id  int
}

// New returns an empty bus.
func New() *Bus {
	return &Bus{}
}

// Subscribe registers a listener and returns its cancellation handle.
func (b *Bus) Subscribe(fn Listener) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.subs = append(b.subs, subscription{id: b.nextID, fn: fn})
	return &Subscription{bus: b, id: b.nextID}
}

// Cancel removes the listener. Cancelling twice is a no-op.
func (s *Subscription) Cancel() {
	if s == nil || s.bus == nil {
		return
	}
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	for i, sub := range s.bus.subs {
		if sub.id == s.id {
			s.bus.subs = append(s.bus.subs[:i], s.bus.subs[i+1:]...)
			break
		}
	}
	s.bus = nil
}

// Publish delivers each event, in order, to every listener in registration
// order before returning.
func (b *Bus) Publish(events []Event) {
	b.mu.Lock()
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()

	for _, evt := range events {
		for _, sub := range subs {
			sub.fn(evt)
		}
	}
}
