package graph

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/p-breslin/enterprise-agents/internal/types"
)

// MemoryStore is an in-process Store used for dry runs and tests. It mirrors
// the search-or-create and partial-update semantics of the ArangoDB store.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memCollection
}

type memCollection struct {
	edge bool
	docs map[string]map[string]any
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]*memCollection),
	}
}

// EnsureCollections creates any missing vertex and edge collections.
func (s *MemoryStore) EnsureCollections(_ context.Context, vertices, edges []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, name := range vertices {
		if _, ok := s.collections[name]; !ok {
			s.collections[name] = &memCollection{docs: make(map[string]map[string]any)}
		}
	}
	for _, name := range edges {
		if _, ok := s.collections[name]; !ok {
			s.collections[name] = &memCollection{edge: true, docs: make(map[string]map[string]any)}
		}
	}
	return nil
}

// Upsert finds a document matching search and applies the partial update, or
// inserts the insert document when nothing matches.
func (s *MemoryStore) Upsert(_ context.Context, collection string, search, insert, update map[string]any) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	col, ok := s.collections[collection]
	if !ok {
		return nil, types.NewError(types.GRAPH_UPSERT_FAILED,
			fmt.Sprintf("collection %q does not exist", collection))
	}

	if doc := col.find(search); doc != nil {
		for k, v := range update {
			doc[k] = v
		}
		return copyDoc(doc), nil
	}

	key, _ := insert["_key"].(string)
	if key == "" {
		return nil, types.NewError(types.GRAPH_UPSERT_FAILED,
			fmt.Sprintf("insert document for collection %q has no _key", collection))
	}

	doc := copyDoc(insert)
	col.docs[key] = doc
	return copyDoc(doc), nil
}

// Exists reports whether a document with the given key exists.
func (s *MemoryStore) Exists(_ context.Context, collection, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	col, ok := s.collections[collection]
	if !ok {
		return false, nil
	}
	_, ok = col.docs[key]
	return ok, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}

// Document returns a copy of one stored document, for tests and dry-run
// reporting.
func (s *MemoryStore) Document(collection, key string) (map[string]any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	col, ok := s.collections[collection]
	if !ok {
		return nil, false
	}
	doc, ok := col.docs[key]
	if !ok {
		return nil, false
	}
	return copyDoc(doc), true
}

// Count returns the number of documents in a collection.
func (s *MemoryStore) Count(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	col, ok := s.collections[collection]
	if !ok {
		return 0
	}
	return len(col.docs)
}

// Keys returns the sorted document keys of a collection.
func (s *MemoryStore) Keys(collection string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	col, ok := s.collections[collection]
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(col.docs))
	for k := range col.docs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// find returns the first document whose fields all equal the search values.
func (c *memCollection) find(search map[string]any) map[string]any {
	// _key lookups are the common case and have a direct index.
	if key, ok := search["_key"].(string); ok && len(search) == 1 {
		return c.docs[key]
	}

	for _, doc := range c.docs {
		matched := true
		for k, v := range search {
			if !reflect.DeepEqual(doc[k], v) {
				matched = false
				break
			}
		}
		if matched {
			return doc
		}
	}
	return nil
}

func copyDoc(doc map[string]any) map[string]any {
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}
