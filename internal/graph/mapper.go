package graph

import (
	"fmt"

	"github.com/p-breslin/enterprise-agents/internal/types"
)

// Mapping tells the graph-write step how to turn one session state payload
// into entity records: which state key to read, which field holds the record
// list, and which entity type each record becomes.
type Mapping struct {
	// StateKey names the session state entry holding an agent's output.
	StateKey string `yaml:"state_key" json:"state_key" mapstructure:"state_key"`

	// ListField names the payload field containing the record list. Empty
	// means the payload itself is the list.
	ListField string `yaml:"list_field,omitempty" json:"list_field,omitempty" mapstructure:"list_field"`

	// EntityType is the entity type of each record in the list.
	EntityType string `yaml:"entity_type" json:"entity_type" mapstructure:"entity_type"`
}

// BuildBatch converts state payloads into a record batch according to the
// mappings. values is keyed by state key; payloads are the JSON-shaped
// structures published by upstream agents.
func BuildBatch(values map[string]any, mappings []Mapping) (Batch, error) {
	var batch Batch

	for _, mapping := range mappings {
		payload, ok := values[mapping.StateKey]
		if !ok {
			return Batch{}, types.NewError(types.MISSING_STATE,
				fmt.Sprintf("mapping for entity type %q reads absent state key %q", mapping.EntityType, mapping.StateKey))
		}

		list, err := recordList(payload, mapping)
		if err != nil {
			return Batch{}, err
		}

		for i, item := range list {
			attrs, ok := item.(map[string]any)
			if !ok {
				return Batch{}, types.NewError(types.EXTRACTION_FAILED,
					fmt.Sprintf("state key %q record %d is not an object", mapping.StateKey, i))
			}
			batch.Entities = append(batch.Entities, EntityRecord{
				Type:       mapping.EntityType,
				Attributes: attrs,
			})
		}
	}

	return batch, nil
}

// recordList navigates a payload to its record list.
func recordList(payload any, mapping Mapping) ([]any, error) {
	if mapping.ListField != "" {
		obj, ok := payload.(map[string]any)
		if !ok {
			return nil, types.NewError(types.EXTRACTION_FAILED,
				fmt.Sprintf("state key %q payload is not an object", mapping.StateKey))
		}
		payload, ok = obj[mapping.ListField]
		if !ok {
			return nil, types.NewError(types.EXTRACTION_FAILED,
				fmt.Sprintf("state key %q payload has no field %q", mapping.StateKey, mapping.ListField))
		}
	}

	list, ok := payload.([]any)
	if !ok {
		return nil, types.NewError(types.EXTRACTION_FAILED,
			fmt.Sprintf("state key %q does not hold a record list", mapping.StateKey))
	}
	return list, nil
}
