package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p-breslin/enterprise-agents/internal/types"
)

func TestMemoryStore_UpsertInsertsThenUpdates(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.EnsureCollections(ctx, []string{"Epic"}, nil))

	doc, err := store.Upsert(ctx, "Epic",
		map[string]any{"_key": "PLAT-1"},
		map[string]any{"_key": "PLAT-1", "summary": "Platform rework", "project": "PLAT"},
		map[string]any{"summary": "Platform rework"})
	require.NoError(t, err)
	assert.Equal(t, "Platform rework", doc["summary"])

	// Second upsert matches and applies only the partial update.
	doc, err = store.Upsert(ctx, "Epic",
		map[string]any{"_key": "PLAT-1"},
		map[string]any{"_key": "PLAT-1", "summary": "renamed", "project": "OTHER"},
		map[string]any{"summary": "renamed"})
	require.NoError(t, err)
	assert.Equal(t, "renamed", doc["summary"])
	assert.Equal(t, "PLAT", doc["project"])

	assert.Equal(t, 1, store.Count("Epic"))
}

func TestMemoryStore_UpsertUnknownCollection(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.Upsert(context.Background(), "Nope",
		map[string]any{"_key": "x"}, map[string]any{"_key": "x"}, map[string]any{})
	require.Error(t, err)
	assert.Equal(t, types.GRAPH_UPSERT_FAILED, types.CodeOf(err))
}

func TestMemoryStore_Exists(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.EnsureCollections(ctx, []string{"Person"}, nil))

	exists, err := store.Exists(ctx, "Person", "Jane_Doe")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = store.Upsert(ctx, "Person",
		map[string]any{"_key": "Jane_Doe"},
		map[string]any{"_key": "Jane_Doe", "name": "Jane Doe"},
		map[string]any{})
	require.NoError(t, err)

	exists, err = store.Exists(ctx, "Person", "Jane_Doe")
	require.NoError(t, err)
	assert.True(t, exists)

	// Collection names are case sensitive; no normalization happens.
	exists, err = store.Exists(ctx, "person", "Jane_Doe")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemoryStore_DocumentReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.EnsureCollections(ctx, []string{"Epic"}, nil))

	_, err := store.Upsert(ctx, "Epic",
		map[string]any{"_key": "PLAT-1"},
		map[string]any{"_key": "PLAT-1", "summary": "original"},
		map[string]any{})
	require.NoError(t, err)

	doc, ok := store.Document("Epic", "PLAT-1")
	require.True(t, ok)
	doc["summary"] = "mutated"

	doc2, ok := store.Document("Epic", "PLAT-1")
	require.True(t, ok)
	assert.Equal(t, "original", doc2["summary"])
}
