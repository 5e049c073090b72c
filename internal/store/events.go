// Package store holds the authoritative in-memory Event and Template
// collections. Every mutation notifies subscribed listeners with a full
// snapshot so persistence happens as a side effect of the store itself.
package store

import (
	"slices"
	"sync"

	appLog "sessioncal/internal/log"
	"sessioncal/internal/model"
)

// EventListener receives the whole collection after each committed
// mutation. It runs while the store is locked and must not call back into
// the store.
type EventListener func(events []model.Event)

type EventStore struct {
	mu        sync.RWMutex
	events    []model.Event
	ids       IDGenerator
	listeners []EventListener
}

// NewEventStore returns a store seeded with initial. A nil ids falls back to
// UUIDGenerator. Seeding does not notify listeners.
func NewEventStore(ids IDGenerator, initial []model.Event) *EventStore {
	if ids == nil {
		ids = UUIDGenerator{}
	}
	return &EventStore{
		events: slices.Clone(initial),
		ids:    ids,
	}
}

// Subscribe registers fn to be called after every mutation.
func (s *EventStore) Subscribe(fn EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// NewID returns a fresh id from the store's generator.
func (s *EventStore) NewID() string {
	return s.ids.NewID()
}

// Add appends events in order. Events without an id get a fresh one; events
// whose id is already present are skipped. It returns the events actually
// added.
func (s *EventStore) Add(events ...model.Event) []model.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{}, len(s.events)+len(events))
	for _, e := range s.events {
		seen[e.ID] = struct{}{}
	}

	added := make([]model.Event, 0, len(events))
	for _, e := range events {
		if e.ID == "" {
			e.ID = s.ids.NewID()
		}
		if _, dup := seen[e.ID]; dup {
			appLog.Debug("store: skip duplicate id", "id", e.ID)
			continue
		}
		seen[e.ID] = struct{}{}
		added = append(added, e)
	}
	if len(added) == 0 {
		return added
	}

	s.events = append(s.events, added...)
	appLog.Debug("store: events added", "count", len(added), "total", len(s.events))
	s.notifyLocked()
	return added
}

// Update replaces every mutable field of the event with the given id. The
// id of fields is ignored. It reports whether the event existed; an unknown
// id is a no-op.
func (s *EventStore) Update(id string, fields model.Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return false
	}
	fields.ID = id
	s.events[i] = fields
	appLog.Debug("store: event updated", "id", id)
	s.notifyLocked()
	return true
}

// Remove deletes the event with the given id and reports whether it existed.
func (s *EventStore) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return false
	}
	s.events = slices.Delete(s.events, i, i+1)
	appLog.Debug("store: event removed", "id", id, "total", len(s.events))
	s.notifyLocked()
	return true
}

// ReplaceAll discards the current collection and installs events. Callers
// must have obtained confirmation first.
func (s *EventStore) ReplaceAll(events []model.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = slices.Clone(events)
	if s.events == nil {
		s.events = []model.Event{}
	}
	appLog.Debug("store: events replaced", "total", len(s.events))
	s.notifyLocked()
}

// ByDate returns the events on date in store order.
func (s *EventStore) ByDate(date string) []model.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Event, 0)
	for _, e := range s.events {
		if e.Date == date {
			out = append(out, e)
		}
	}
	return out
}

// Get returns the event with the given id.
func (s *EventStore) Get(id string) (model.Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexLocked(id)
	if i < 0 {
		return model.Event{}, false
	}
	return s.events[i], true
}

// All returns a copy of the collection in store order.
func (s *EventStore) All() []model.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Event, len(s.events))
	copy(out, s.events)
	return out
}

func (s *EventStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

func (s *EventStore) indexLocked(id string) int {
	return slices.IndexFunc(s.events, func(e model.Event) bool { return e.ID == id })
}

func (s *EventStore) notifyLocked() {
	if len(s.listeners) == 0 {
		return
	}
	snapshot := make([]model.Event, len(s.events))
	copy(snapshot, s.events)
	for _, fn := range s.listeners {
		fn(snapshot)
	}
}
