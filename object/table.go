package object

import (
	"sync"
)

// Event types for object lifecycle notifications.
type EventType uint8

const (
	EventCreated EventType = iota
	EventFreed
)

// Event represents an object lifecycle event.
type Event struct {
	Ref     *Ref
	TypeKey string
	Type    EventType
}

// Observer receives notifications about object lifecycle events.
type Observer interface {
	OnObjectEvent(Event)
}

// Stats is a snapshot of a table's lifetime accounting.
type Stats struct {
	Created uint64
	Freed   uint64
	Live    int
}

// Table tracks every object created through it until the last reference
// is released. It exists for leak accounting: anything still live at
// shutdown is a reference somebody forgot to release.
type Table struct {
	live      map[*Ref]struct{}
	observers []Observer
	created   uint64
	freed     uint64
	mu        sync.RWMutex
	obsMu     sync.RWMutex
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{
		live: make(map[*Ref]struct{}),
	}
}

// New creates a tracked payload with a reference count of one.
func (t *Table) New(typeKey string, payload any) *Ref {
	return t.NewWithFinalizer(typeKey, payload, nil)
}

// NewWithFinalizer creates a tracked payload. The table drops its
// accounting entry when the last reference goes, then runs the caller's
// finalizer.
func (t *Table) NewWithFinalizer(typeKey string, payload any, finalizer func(any)) *Ref {
	var r *Ref
	r = NewWithFinalizer(typeKey, payload, func(p any) {
		t.onFree(r)
		if finalizer != nil {
			finalizer(p)
		}
	})

	t.mu.Lock()
	t.live[r] = struct{}{}
	t.created++
	t.mu.Unlock()

	t.notify(Event{Type: EventCreated, Ref: r, TypeKey: typeKey})
	return r
}

// Live returns the number of objects with outstanding references.
func (t *Table) Live() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.live)
}

// Stats returns a snapshot of the lifetime accounting.
func (t *Table) Stats() Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return Stats{
		Created: t.created,
		Freed:   t.freed,
		Live:    len(t.live),
	}
}

// Each iterates over the live objects. The iteration order is not
// defined; return false to stop early.
func (t *Table) Each(fn func(*Ref) bool) {
	t.mu.RLock()
	refs := make([]*Ref, 0, len(t.live))
	for r := range t.live {
		refs = append(refs, r)
	}
	t.mu.RUnlock()

	for _, r := range refs {
		if !fn(r) {
			return
		}
	}
}

// Subscribe adds an observer for lifecycle events.
func (t *Table) Subscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, o)
}

// Unsubscribe removes an observer.
func (t *Table) Unsubscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	for i, obs := range t.observers {
		if obs == o {
			t.observers = append(t.observers[:i], t.observers[i+1:]...)
			return
		}
	}
}

func (t *Table) onFree(r *Ref) {
	t.mu.Lock()
	delete(t.live, r)
	t.freed++
	t.mu.Unlock()

	t.notify(Event{Type: EventFreed, Ref: r, TypeKey: r.typeKey})
}

func (t *Table) notify(e Event) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, o := range t.observers {
		o.OnObjectEvent(e)
	}
}
