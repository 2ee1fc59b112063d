package state

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p-breslin/enterprise-agents/internal/types"
)

func TestStore_PublishAndGet(t *testing.T) {
	s := NewStore(types.NewID())

	require.NoError(t, s.Publish("epics_raw", map[string]any{"epics": []any{"ENG-1"}}))

	value, ok := s.Get("epics_raw")
	require.True(t, ok)
	doc, ok := value.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{"ENG-1"}, doc["epics"])

	assert.True(t, s.Has("epics_raw"))
	assert.False(t, s.Has("stories_raw"))
}

func TestStore_PublishDetachesValue(t *testing.T) {
	s := NewStore(types.NewID())

	original := map[string]any{"summary": "Auth revamp"}
	require.NoError(t, s.Publish("epic_0", original))

	// Mutating the producer's copy after publish must not affect readers.
	original["summary"] = "mutated"

	value, ok := s.Get("epic_0")
	require.True(t, ok)
	assert.Equal(t, "Auth revamp", value.(map[string]any)["summary"])
}

func TestStore_PublishOverwrites(t *testing.T) {
	s := NewStore(types.NewID())

	require.NoError(t, s.Publish("issues_raw", "first"))
	require.NoError(t, s.Publish("issues_raw", "second"))

	value, ok := s.Get("issues_raw")
	require.True(t, ok)
	assert.Equal(t, "second", value)
}

func TestStore_PublishRejectsEmptyKey(t *testing.T) {
	s := NewStore(types.NewID())
	assert.Error(t, s.Publish("", "anything"))
}

func TestStore_PublishUnserializableLeavesKeyUnset(t *testing.T) {
	s := NewStore(types.NewID())

	err := s.Publish("bad", map[string]any{"ch": make(chan int)})
	require.Error(t, err)
	assert.False(t, s.Has("bad"))
}

func TestStore_Require(t *testing.T) {
	s := NewStore(types.NewID())

	_, err := s.Require("missing")
	require.Error(t, err)
	assert.Equal(t, types.MISSING_STATE, types.CodeOf(err))

	require.NoError(t, s.Publish("present", "value"))
	value, err := s.Require("present")
	require.NoError(t, err)
	assert.Equal(t, "value", value)
}

func TestStore_Keys(t *testing.T) {
	s := NewStore(types.NewID())

	require.NoError(t, s.Publish("story_1", "b"))
	require.NoError(t, s.Publish("epic_0", "a"))

	assert.Equal(t, []string{"epic_0", "story_1"}, s.Keys())
}

func TestStore_ConcurrentKeyedWrites(t *testing.T) {
	s := NewStore(types.NewID())

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("agent_%d", i)
			require.NoError(t, s.Publish(key, map[string]any{"n": i}))
		}(i)
	}
	wg.Wait()

	assert.Len(t, s.Keys(), 32)
}
