package schedule

import (
	"github.com/google/uuid"

	"scheduler/internal/model"
)

// Store holds the ordered event collection. Insertion order is display order.
// Events are never removed.
//
// Store is not safe for concurrent use; the workflow owning it serializes
// access.
type Store struct {
	events []model.Event
}

// NewStore builds a store from an initial collection, assigning IDs to
// events that do not have one yet.
func NewStore(events ...model.Event) *Store {
	s := &Store{}
	s.Reset(events)
	return s
}

// Reset replaces the whole collection. It is used once, by the start-up load.
func (s *Store) Reset(events []model.Event) {
	s.events = make([]model.Event, 0, len(events))
	for _, e := range events {
		s.Append(e)
	}
}

// Append adds e at the end of the collection and returns the stored copy.
func (s *Store) Append(e model.Event) model.Event {
	if e.ID == "" {
		e.ID = newID()
	}
	s.events = append(s.events, e)
	return e
}

// Replace swaps the event with the given ID for e in place. The stored event
// keeps id regardless of e.ID.
func (s *Store) Replace(id string, e model.Event) (model.Event, error) {
	i := s.index(id)
	if i < 0 {
		return model.Event{}, ErrNotFound
	}
	e.ID = id
	s.events[i] = e
	return e, nil
}

func (s *Store) Get(id string) (model.Event, bool) {
	i := s.index(id)
	if i < 0 {
		return model.Event{}, false
	}
	return s.events[i], true
}

// List returns a copy of the collection in insertion order.
func (s *Store) List() []model.Event {
	out := make([]model.Event, len(s.events))
	copy(out, s.events)
	return out
}

func (s *Store) Len() int {
	return len(s.events)
}

func (s *Store) index(id string) int {
	if id == "" {
		return -1
	}
	for i := range s.events {
		if s.events[i].ID == id {
			return i
		}
	}
	return -1
}

func newID() string {
	return uuid.NewString()
}
