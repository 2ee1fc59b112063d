// Package state provides the run-scoped keyed store through which one
// agent's output becomes another's input. A Store belongs to exactly one
// workflow run: the coordinator creates it, passes it explicitly to every
// component, and discards it when the run completes.
package state

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/p-breslin/enterprise-agents/internal/types"
)

// Store is a thread-safe mapping from state key to structured value.
// Writes are keyed and non-overlapping by construction (each agent owns its
// output key), and a publish is all-or-nothing: readers never observe a
// partially written value.
type Store struct {
	runID  types.ID
	mu     sync.RWMutex
	values map[string]any
}

// NewStore creates an empty Store scoped to the given run.
func NewStore(runID types.ID) *Store {
	return &Store{
		runID:  runID,
		values: make(map[string]any),
	}
}

// RunID returns the id of the workflow run this store belongs to.
func (s *Store) RunID() types.ID {
	return s.runID
}

// Publish stores value under key, overwriting any previous value for the
// same key (re-runs of a workflow instance reuse their keys). The value is
// detached from the caller by a JSON round-trip before it becomes visible,
// so a later mutation by the producer cannot leak into readers and a failed
// serialization leaves the key untouched.
func (s *Store) Publish(key string, value any) error {
	if key == "" {
		return fmt.Errorf("state key cannot be empty")
	}

	detached, err := detach(value)
	if err != nil {
		return fmt.Errorf("value for state key %q is not serializable: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = detached
	return nil
}

// Get returns the value published under key and whether it exists.
func (s *Store) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[key]
	return value, ok
}

// Require returns the value published under key, or a MISSING_STATE error
// when no agent has published it.
func (s *Store) Require(key string) (any, error) {
	value, ok := s.Get(key)
	if !ok {
		return nil, types.NewError(types.MISSING_STATE,
			fmt.Sprintf("no value published under state key %q", key))
	}
	return value, nil
}

// Has reports whether a value has been published under key.
func (s *Store) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.values[key]
	return ok
}

// Keys returns all published state keys in sorted order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.values))
	for key := range s.values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// detach deep-copies a value through JSON so the stored document shares no
// memory with the caller. Strings and nil skip the round-trip.
func detach(value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		return v, nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}

	var copied any
	if err := json.Unmarshal(data, &copied); err != nil {
		return nil, err
	}
	return copied, nil
}
