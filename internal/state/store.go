package state

import (
	"sort"
	"sync"
	"time"
)

// #region store-struct
// Store holds loop states in memory, keyed by (context, layer). Nothing is
// persisted; a restart starts every layer from default beliefs.
type Store struct {
	mu      sync.Mutex
	entries map[Key]*entry
	now     func() time.Time
}

type entry struct {
	mu    sync.Mutex
	state *LoopState
}

// #endregion store-struct

// #region constructor
// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		entries: make(map[Key]*entry),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// #endregion constructor

// #region with
// With runs fn against the state for key, creating it with default beliefs
// when absent. Calls for the same key are serialized; different keys run
// concurrently.
func (s *Store) With(key Key, fn func(*LoopState)) {
	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		e = &entry{state: NewLoopState(key, s.now())}
		s.entries[key] = e
	}
	s.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.state)
	e.state.UpdatedAt = s.now()
}

// #endregion with

// #region get
// Get returns a copy of the state for key.
func (s *Store) Get(key Key) (LoopState, bool) {
	s.mu.Lock()
	e, ok := s.entries[key]
	s.mu.Unlock()
	if !ok {
		return LoopState{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone(), true
}

// #endregion get

// #region reset
// Reset destroys the state for key. The next call for key starts from
// default beliefs. Returns false when there was nothing to reset.
func (s *Store) Reset(key Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[key]; !ok {
		return false
	}
	delete(s.entries, key)
	return true
}

// Evict destroys every state belonging to contextID and returns how many
// were removed.
func (s *Store) Evict(contextID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k := range s.entries {
		if k.ContextID == contextID {
			delete(s.entries, k)
			n++
		}
	}
	return n
}

// #endregion reset

// #region list
// List returns copies of all states ordered by context then layer.
func (s *Store) List() []LoopState {
	s.mu.Lock()
	entries := make([]*entry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	s.mu.Unlock()

	out := make([]LoopState, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		out = append(out, e.state.Clone())
		e.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ContextID != out[j].ContextID {
			return out[i].ContextID < out[j].ContextID
		}
		return out[i].LayerID < out[j].LayerID
	})
	return out
}

// Len returns the number of live states.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// #endregion list
