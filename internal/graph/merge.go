package graph

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/p-breslin/enterprise-agents/internal/schema"
	"github.com/p-breslin/enterprise-agents/internal/types"
)

// EntityRecord is one validated extraction record destined for a vertex
// collection. Type names the entity type (and collection) using its
// canonical casing.
type EntityRecord struct {
	Type       string         `json:"type"`
	Attributes map[string]any `json:"attributes"`
}

// RelationshipRecord is one explicit edge record. SourceKey and TargetKey
// are natural keys; the engine sanitizes them the same way it sanitizes
// vertex keys so both sides always agree.
type RelationshipRecord struct {
	Type       string         `json:"type"`
	SourceKey  string         `json:"source_key"`
	TargetKey  string         `json:"target_key"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// Batch groups the records merged in one logical transaction scope. Entities
// merge before relationships so edges can reference vertices created in the
// same batch.
type Batch struct {
	Entities      []EntityRecord      `json:"entities,omitempty"`
	Relationships []RelationshipRecord `json:"relationships,omitempty"`
}

// LinkRule derives an edge from an attribute on entity records of one type,
// such as "a Story's epic_key names the Epic it belongs to" or "an Issue's
// assignee names a Person". A record whose conditioning attribute is null or
// absent is skipped, not an error.
type LinkRule struct {
	// Relationship names the relationship type (and edge collection).
	Relationship string `yaml:"relationship" json:"relationship" mapstructure:"relationship"`

	// RecordType names the entity type whose records carry the attribute.
	RecordType string `yaml:"record_type" json:"record_type" mapstructure:"record_type"`

	// Attribute is the conditioning attribute holding the opposite
	// endpoint's natural key.
	Attribute string `yaml:"attribute" json:"attribute" mapstructure:"attribute"`

	// RecordIsSource places the record at the edge's source end when true;
	// otherwise the record is the target and the attribute names the source.
	RecordIsSource bool `yaml:"record_is_source,omitempty" json:"record_is_source,omitempty" mapstructure:"record_is_source"`

	// EnsureEndpoint creates the opposite endpoint vertex from the
	// attribute value instead of requiring it to exist (the Person case).
	EnsureEndpoint bool `yaml:"ensure_endpoint,omitempty" json:"ensure_endpoint,omitempty" mapstructure:"ensure_endpoint"`

	// EndpointAttr is the attribute on the derived vertex that stores the
	// raw value, e.g. "name". Required when EnsureEndpoint is set.
	EndpointAttr string `yaml:"endpoint_attr,omitempty" json:"endpoint_attr,omitempty" mapstructure:"endpoint_attr"`
}

// MergeError records one failed record inside a batch.
type MergeError struct {
	Record string `json:"record"`
	Err    error  `json:"-"`
	Reason string `json:"reason"`
}

// MergeReport summarizes one batch: upsert counts, conditional skips, and
// per-record failures. A batch with failures still applies every sibling
// record that succeeded.
type MergeReport struct {
	VertexUpserts int          `json:"vertex_upserts"`
	EdgeUpserts   int          `json:"edge_upserts"`
	Skipped       int          `json:"skipped"`
	Errors        []MergeError `json:"errors,omitempty"`
}

// OK reports whether every record in the batch merged successfully.
func (r *MergeReport) OK() bool {
	return len(r.Errors) == 0
}

func (r *MergeReport) addError(record string, err error) {
	r.Errors = append(r.Errors, MergeError{Record: record, Err: err, Reason: err.Error()})
}

// Merger translates record batches into idempotent upserts against a Store.
// It never rolls back: each record succeeds or fails on its own, and the
// report aggregates the outcome.
type Merger struct {
	store    Store
	registry *schema.Registry
	rules    []LinkRule
	logger   *slog.Logger
}

// MergerOption configures a Merger.
type MergerOption func(*Merger)

// WithLinkRules sets the derived-edge rules applied to entity records.
func WithLinkRules(rules []LinkRule) MergerOption {
	return func(m *Merger) {
		m.rules = rules
	}
}

// WithMergerLogger sets the logger used for merge progress.
func WithMergerLogger(logger *slog.Logger) MergerOption {
	return func(m *Merger) {
		m.logger = logger
	}
}

// NewMerger creates a merge engine over a store and a schema registry.
func NewMerger(store Store, registry *schema.Registry, opts ...MergerOption) *Merger {
	m := &Merger{
		store:    store,
		registry: registry,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// EnsureCollections creates a vertex collection per registered entity type
// and an edge collection per registered relationship type.
func (m *Merger) EnsureCollections(ctx context.Context) error {
	var vertices, edges []string
	for _, def := range m.registry.EntityTypes() {
		vertices = append(vertices, def.Name)
	}
	for _, def := range m.registry.RelationshipTypes() {
		edges = append(edges, def.Name)
	}
	return m.store.EnsureCollections(ctx, vertices, edges)
}

// Merge applies one batch: entity vertices first, then edges derived from
// link rules, then explicit relationship records. Applying the same batch
// twice yields the same graph state.
func (m *Merger) Merge(ctx context.Context, batch Batch) *MergeReport {
	report := &MergeReport{}

	keys := make([]string, len(batch.Entities))
	for i, rec := range batch.Entities {
		key, err := m.mergeEntity(ctx, rec)
		if err != nil {
			report.addError(m.label(rec), err)
			continue
		}
		keys[i] = key
		report.VertexUpserts++
	}

	// Derived edges run after all vertices so same-batch references resolve.
	for i, rec := range batch.Entities {
		if keys[i] == "" {
			continue
		}
		for _, rule := range m.rules {
			if rule.RecordType != rec.Type {
				continue
			}
			m.applyLinkRule(ctx, rule, rec, keys[i], report)
		}
	}

	for _, rec := range batch.Relationships {
		if err := m.mergeRelationship(ctx, rec); err != nil {
			report.addError(fmt.Sprintf("%s:%s#%s", rec.Type, rec.SourceKey, rec.TargetKey), err)
			continue
		}
		report.EdgeUpserts++
	}

	m.logger.Info("merge batch applied",
		"vertices", report.VertexUpserts,
		"edges", report.EdgeUpserts,
		"skipped", report.Skipped,
		"errors", len(report.Errors))

	return report
}

// mergeEntity upserts one vertex and returns its derived key. Inserts carry
// the full declared attribute set; updates touch only mutable attributes.
func (m *Merger) mergeEntity(ctx context.Context, rec EntityRecord) (string, error) {
	def := m.registry.EntityType(rec.Type)
	if def == nil {
		return "", types.NewError(types.DANGLING_REFERENCE,
			fmt.Sprintf("unknown entity type %q", rec.Type))
	}
	if def.KeyAttr == "" {
		return "", types.NewError(types.GRAPH_UPSERT_FAILED,
			fmt.Sprintf("entity type %q declares no key attribute", rec.Type))
	}

	raw := stringAttr(rec.Attributes, def.KeyAttr)
	key := SanitizeKey(raw)
	if key == "" {
		return "", types.NewError(types.GRAPH_UPSERT_FAILED,
			fmt.Sprintf("%s record has empty key attribute %q", rec.Type, def.KeyAttr))
	}

	insert := map[string]any{"_key": key}
	for _, attr := range def.Attributes {
		if v, ok := rec.Attributes[attr.Name]; ok && v != nil {
			insert[attr.Name] = v
		}
	}

	update := map[string]any{}
	for _, name := range def.MutableAttributes() {
		if v, ok := rec.Attributes[name]; ok && v != nil {
			update[name] = v
		}
	}

	if _, err := m.store.Upsert(ctx, def.Name, map[string]any{"_key": key}, insert, update); err != nil {
		return "", err
	}
	return key, nil
}

// applyLinkRule evaluates one derived-edge rule against one merged record.
func (m *Merger) applyLinkRule(ctx context.Context, rule LinkRule, rec EntityRecord, recordKey string, report *MergeReport) {
	raw := stringAttr(rec.Attributes, rule.Attribute)
	if strings.TrimSpace(raw) == "" {
		// Null or absent conditioning attribute: skip, not an error.
		report.Skipped++
		return
	}

	relDef := m.registry.RelationshipType(rule.Relationship)
	if relDef == nil {
		report.addError(m.label(rec),
			types.NewError(types.DANGLING_REFERENCE,
				fmt.Sprintf("link rule references unknown relationship type %q", rule.Relationship)))
		return
	}

	otherKey := SanitizeKey(raw)

	var srcCol, srcKey, tgtCol, tgtKey string
	if rule.RecordIsSource {
		srcCol, srcKey = relDef.Source, recordKey
		tgtCol, tgtKey = relDef.Target, otherKey
	} else {
		srcCol, srcKey = relDef.Source, otherKey
		tgtCol, tgtKey = relDef.Target, recordKey
	}

	otherCol := relDef.Target
	if !rule.RecordIsSource {
		otherCol = relDef.Source
	}

	if rule.EnsureEndpoint {
		endpointAttr := rule.EndpointAttr
		if endpointAttr == "" {
			endpointAttr = "name"
		}
		insert := map[string]any{"_key": otherKey, endpointAttr: raw}
		if _, err := m.store.Upsert(ctx, otherCol, map[string]any{"_key": otherKey}, insert, map[string]any{}); err != nil {
			report.addError(m.label(rec), err)
			return
		}
		report.VertexUpserts++
	} else {
		exists, err := m.store.Exists(ctx, otherCol, otherKey)
		if err != nil {
			report.addError(m.label(rec), err)
			return
		}
		if !exists {
			report.addError(fmt.Sprintf("%s:%s", rule.Relationship, EdgeKey(srcKey, tgtKey)),
				types.NewError(types.DANGLING_REFERENCE,
					fmt.Sprintf("edge %s references missing %s/%s", rule.Relationship, otherCol, otherKey)))
			return
		}
	}

	if err := m.upsertEdge(ctx, relDef.Name, srcCol, srcKey, tgtCol, tgtKey, nil, nil); err != nil {
		report.addError(fmt.Sprintf("%s:%s", rule.Relationship, EdgeKey(srcKey, tgtKey)), err)
		return
	}
	report.EdgeUpserts++
}

// mergeRelationship upserts one explicit edge record. Both endpoints must
// already exist; a missing endpoint is a dangling reference for this record
// only.
func (m *Merger) mergeRelationship(ctx context.Context, rec RelationshipRecord) error {
	relDef := m.registry.RelationshipType(rec.Type)
	if relDef == nil {
		return types.NewError(types.DANGLING_REFERENCE,
			fmt.Sprintf("unknown relationship type %q", rec.Type))
	}

	srcKey := SanitizeKey(rec.SourceKey)
	tgtKey := SanitizeKey(rec.TargetKey)
	if srcKey == "" || tgtKey == "" {
		return types.NewError(types.GRAPH_UPSERT_FAILED,
			fmt.Sprintf("%s record has empty endpoint key", rec.Type))
	}

	for _, endpoint := range []struct{ col, key string }{
		{relDef.Source, srcKey},
		{relDef.Target, tgtKey},
	} {
		exists, err := m.store.Exists(ctx, endpoint.col, endpoint.key)
		if err != nil {
			return err
		}
		if !exists {
			return types.NewError(types.DANGLING_REFERENCE,
				fmt.Sprintf("edge %s references missing %s/%s", rec.Type, endpoint.col, endpoint.key))
		}
	}

	insert := make(map[string]any)
	update := make(map[string]any)
	for _, attr := range relDef.Attributes {
		if v, ok := rec.Attributes[attr.Name]; ok && v != nil {
			insert[attr.Name] = v
			if attr.Mutable {
				update[attr.Name] = v
			}
		}
	}

	return m.upsertEdge(ctx, relDef.Name, relDef.Source, srcKey, relDef.Target, tgtKey, insert, update)
}

// upsertEdge performs the keyed edge upsert shared by derived and explicit
// edges. The composite key makes repeated merges converge on one edge.
func (m *Merger) upsertEdge(ctx context.Context, collection, srcCol, srcKey, tgtCol, tgtKey string, extra, update map[string]any) error {
	key := EdgeKey(srcKey, tgtKey)

	insert := map[string]any{
		"_key":  key,
		"_from": DocumentID(srcCol, srcKey),
		"_to":   DocumentID(tgtCol, tgtKey),
	}
	for k, v := range extra {
		insert[k] = v
	}
	if update == nil {
		update = map[string]any{}
	}

	_, err := m.store.Upsert(ctx, collection, map[string]any{"_key": key}, insert, update)
	return err
}

// stringAttr fetches an attribute as a string, tolerating absence and null.
func stringAttr(attrs map[string]any, name string) string {
	v, ok := attrs[name]
	if !ok || v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

// label builds a short record identifier for error reporting, using the
// entity type's declared key attribute when available.
func (m *Merger) label(rec EntityRecord) string {
	if def := m.registry.EntityType(rec.Type); def != nil && def.KeyAttr != "" {
		if s := stringAttr(rec.Attributes, def.KeyAttr); s != "" {
			return rec.Type + ":" + s
		}
	}
	return rec.Type
}
