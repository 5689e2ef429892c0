package session

import (
	"sync"
)

// Store is the exclusive owner of the session State. All mutation goes through
// dispatched events; readers get value snapshots and can subscribe to changes.
//
// The store carries a monotonic generation counter that advances whenever a
// session-changing event (login, restore, logout) is applied. Orchestrator
// operations capture the generation when they start and dispatch their
// terminal event with DispatchIf, so a result that resolves after the session
// has moved on is discarded instead of resurrecting stale state.
type Store struct {
	// dispatchMu serializes the full apply+notify path so subscribers observe
	// events in dispatch order. mu alone protects state reads.
	dispatchMu sync.Mutex
	mu         sync.Mutex

	state State
	gen   uint64

	subs   map[int]func(State)
	nextID int
}

// NewStore creates a store holding the empty anonymous state.
func NewStore() *Store {
	return &Store{subs: make(map[int]func(State))}
}

// State returns a snapshot of the current session state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Generation returns the current session generation.
func (s *Store) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// Snapshot returns the current state together with its generation.
func (s *Store) Snapshot() (State, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone(), s.gen
}

// Dispatch applies an event unconditionally.
func (s *Store) Dispatch(ev Event) {
	s.apply(ev, nil)
}

// DispatchIf applies an event only if the store's generation still equals
// gen. It reports whether the event was applied; a false return means the
// result was stale and has been discarded.
func (s *Store) DispatchIf(gen uint64, ev Event) bool {
	return s.apply(ev, func(current uint64) bool { return current == gen })
}

// Subscribe registers a listener invoked with a state snapshot after every
// applied event. The returned function removes the subscription. Listeners
// are called in dispatch order; a listener must not dispatch synchronously.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// apply runs the reducer and notifies subscribers with the resulting
// snapshot. The dispatch mutex is held across both, so listeners observe
// events in the order they were applied.
func (s *Store) apply(ev Event, guard func(uint64) bool) bool {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	s.mu.Lock()
	if guard != nil && !guard(s.gen) {
		s.mu.Unlock()
		return false
	}
	s.state = Reduce(s.state, ev)
	if bumpsGeneration(ev) {
		s.gen++
	}
	snap := s.state.clone()
	listeners := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
	return true
}
