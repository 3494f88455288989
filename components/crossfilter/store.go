package crossfilter

import "sync"

// StoreAction names a filter store mutation.
type StoreAction string

const (
	ActionSelect   StoreAction = "select"
	ActionDeselect StoreAction = "deselect"
	ActionRemove   StoreAction = "remove"
	ActionClear    StoreAction = "clear"
)

// StoreEvent is published after every effective store mutation.
type StoreEvent struct {
	Action   StoreAction `json:"action"`
	ColumnID string      `json:"columnId,omitempty"`
	Value    string      `json:"value,omitempty"`
	State    FilterState `json:"state"`
	Version  uint64      `json:"version"`
}

// StoreListener receives store events synchronously, after the lock is
// released, in subscription order.
type StoreListener func(StoreEvent)

// FilterStore holds the active filter set. It can only be changed through
// Toggle, Remove and Clear.
type FilterStore struct {
	mu      sync.RWMutex
	state   FilterState
	version uint64
	subs    map[int]StoreListener
	order   []int
	next    int
}

// NewFilterStore builds an empty store.
func NewFilterStore() *FilterStore {
	return &FilterStore{
		state: FilterState{},
		subs:  map[int]StoreListener{},
	}
}

// Toggle flips value for column and reports whether it is now selected.
func (s *FilterStore) Toggle(column, value string) bool {
	s.mu.Lock()
	selected := !s.state.Has(column, value)
	s.state = s.state.Toggle(column, value)
	event := s.eventLocked(ActionDeselect, column, value)
	if selected {
		event.Action = ActionSelect
	}
	listeners := s.listenersLocked()
	s.mu.Unlock()

	publish(listeners, event)
	return selected
}

// Remove drops every value for column. It reports false, and publishes
// nothing, when the column had no filter.
func (s *FilterStore) Remove(column string) bool {
	s.mu.Lock()
	if _, ok := s.state[column]; !ok {
		s.mu.Unlock()
		return false
	}
	s.state = s.state.Remove(column)
	event := s.eventLocked(ActionRemove, column, "")
	listeners := s.listenersLocked()
	s.mu.Unlock()

	publish(listeners, event)
	return true
}

// Clear drops all filters.
func (s *FilterStore) Clear() {
	s.mu.Lock()
	if s.state.IsEmpty() {
		s.mu.Unlock()
		return
	}
	s.state = FilterState{}
	event := s.eventLocked(ActionClear, "", "")
	listeners := s.listenersLocked()
	s.mu.Unlock()

	publish(listeners, event)
}

// Snapshot returns a copy of the current state.
func (s *FilterStore) Snapshot() FilterState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// State returns a copy of the current state together with its version.
func (s *FilterStore) State() (FilterState, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone(), s.version
}

// Selected returns the labels selected for column.
func (s *FilterStore) Selected(column string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.state[column]...)
}

// Has reports whether value is selected for column.
func (s *FilterStore) Has(column, value string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Has(column, value)
}

// Version increases with every effective mutation.
func (s *FilterStore) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Subscribe registers a listener and returns its cancel func.
func (s *FilterStore) Subscribe(fn StoreListener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	s.subs[id] = fn
	s.order = append(s.order, id)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subs[id]; !ok {
			return
		}
		delete(s.subs, id)
		for i, sub := range s.order {
			if sub == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
}

func (s *FilterStore) eventLocked(action StoreAction, column, value string) StoreEvent {
	s.version++
	return StoreEvent{
		Action:   action,
		ColumnID: column,
		Value:    value,
		State:    s.state.Clone(),
		Version:  s.version,
	}
}

func (s *FilterStore) listenersLocked() []StoreListener {
	out := make([]StoreListener, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.subs[id])
	}
	return out
}

func publish(listeners []StoreListener, event StoreEvent) {
	for _, fn := range listeners {
		fn(event)
	}
}
