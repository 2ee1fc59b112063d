package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p-breslin/enterprise-agents/internal/types"
)

func TestBuildBatch(t *testing.T) {
	values := map[string]any{
		"epics": map[string]any{
			"epics": []any{
				map[string]any{"epic_key": "PLAT-1", "summary": "Platform"},
			},
		},
		"stories": []any{
			map[string]any{"story_key": "PLAT-2", "epic_key": "PLAT-1"},
			map[string]any{"story_key": "PLAT-3", "epic_key": "PLAT-1"},
		},
	}

	batch, err := BuildBatch(values, []Mapping{
		{StateKey: "epics", ListField: "epics", EntityType: "Epic"},
		{StateKey: "stories", EntityType: "Story"},
	})
	require.NoError(t, err)

	require.Len(t, batch.Entities, 3)
	assert.Equal(t, "Epic", batch.Entities[0].Type)
	assert.Equal(t, "PLAT-1", batch.Entities[0].Attributes["epic_key"])
	assert.Equal(t, "Story", batch.Entities[1].Type)
	assert.Equal(t, "Story", batch.Entities[2].Type)
}

func TestBuildBatch_MissingStateKey(t *testing.T) {
	_, err := BuildBatch(map[string]any{}, []Mapping{
		{StateKey: "epics", EntityType: "Epic"},
	})
	require.Error(t, err)
	assert.Equal(t, types.MISSING_STATE, types.CodeOf(err))
}

func TestBuildBatch_MissingListField(t *testing.T) {
	values := map[string]any{
		"epics": map[string]any{"other": []any{}},
	}
	_, err := BuildBatch(values, []Mapping{
		{StateKey: "epics", ListField: "epics", EntityType: "Epic"},
	})
	require.Error(t, err)
	assert.Equal(t, types.EXTRACTION_FAILED, types.CodeOf(err))
}

func TestBuildBatch_NonObjectRecord(t *testing.T) {
	values := map[string]any{
		"epics": []any{"not an object"},
	}
	_, err := BuildBatch(values, []Mapping{
		{StateKey: "epics", EntityType: "Epic"},
	})
	require.Error(t, err)
	assert.Equal(t, types.EXTRACTION_FAILED, types.CodeOf(err))
}
