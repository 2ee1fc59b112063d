package graph

import (
	"context"
)

// Store is the graph-store collaborator boundary. Implementations must
// provide natural-key search-or-create semantics over independent vertex and
// edge collections.
type Store interface {
	// EnsureCollections creates any missing vertex and edge collections.
	EnsureCollections(ctx context.Context, vertices, edges []string) error

	// Upsert finds a document matching search in the collection and applies
	// the partial update to it, or inserts the insert document when nothing
	// matches. It returns the resulting document.
	Upsert(ctx context.Context, collection string, search, insert, update map[string]any) (map[string]any, error)

	// Exists reports whether a document with the given key exists.
	Exists(ctx context.Context, collection, key string) (bool, error)

	// Close releases the underlying connection, if any.
	Close() error
}
