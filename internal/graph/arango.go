package graph

import (
	"context"
	"fmt"
	"time"

	driver "github.com/arangodb/go-driver"
	driverhttp "github.com/arangodb/go-driver/http"

	"github.com/p-breslin/enterprise-agents/internal/types"
)

// upsertQuery is the single AQL statement behind every merge operation.
// Bind variables keep document contents out of the query string.
const upsertQuery = `UPSERT @search
INSERT @insert
UPDATE @update
IN @@collection
RETURN NEW`

// ArangoConfig contains the connection settings for an ArangoDB store.
type ArangoConfig struct {
	Endpoints []string
	Database  string
	Username  string
	Password  string
	Timeout   time.Duration
}

// ArangoStore implements Store against an ArangoDB database.
type ArangoStore struct {
	db      driver.Database
	timeout time.Duration
}

// NewArangoStore connects to ArangoDB and opens the configured database.
func NewArangoStore(ctx context.Context, cfg ArangoConfig) (*ArangoStore, error) {
	conn, err := driverhttp.NewConnection(driverhttp.ConnectionConfig{
		Endpoints: cfg.Endpoints,
	})
	if err != nil {
		return nil, types.WrapError(types.GRAPH_UNAVAILABLE, "failed to create connection", err)
	}

	client, err := driver.NewClient(driver.ClientConfig{
		Connection:     conn,
		Authentication: driver.BasicAuthentication(cfg.Username, cfg.Password),
	})
	if err != nil {
		return nil, types.WrapError(types.GRAPH_UNAVAILABLE, "failed to create client", err)
	}

	db, err := client.Database(ctx, cfg.Database)
	if err != nil {
		return nil, types.WrapError(types.GRAPH_UNAVAILABLE,
			fmt.Sprintf("failed to open database %q", cfg.Database), err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &ArangoStore{db: db, timeout: timeout}, nil
}

// EnsureCollections creates any missing vertex and edge collections.
func (s *ArangoStore) EnsureCollections(ctx context.Context, vertices, edges []string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	for _, name := range vertices {
		if err := s.ensureCollection(ctx, name, driver.CollectionTypeDocument); err != nil {
			return err
		}
	}
	for _, name := range edges {
		if err := s.ensureCollection(ctx, name, driver.CollectionTypeEdge); err != nil {
			return err
		}
	}
	return nil
}

func (s *ArangoStore) ensureCollection(ctx context.Context, name string, typ driver.CollectionType) error {
	exists, err := s.db.CollectionExists(ctx, name)
	if err != nil {
		return types.WrapError(types.GRAPH_UNAVAILABLE,
			fmt.Sprintf("failed to check collection %q", name), err)
	}
	if exists {
		return nil
	}

	_, err = s.db.CreateCollection(ctx, name, &driver.CreateCollectionOptions{Type: typ})
	if err != nil && !driver.IsConflict(err) {
		return types.WrapError(types.GRAPH_UNAVAILABLE,
			fmt.Sprintf("failed to create collection %q", name), err)
	}
	return nil
}

// Upsert executes the search-or-create AQL statement and returns the
// resulting document.
func (s *ArangoStore) Upsert(ctx context.Context, collection string, search, insert, update map[string]any) (map[string]any, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	bindVars := map[string]any{
		"search":      search,
		"insert":      insert,
		"update":      update,
		"@collection": collection,
	}

	cursor, err := s.db.Query(ctx, upsertQuery, bindVars)
	if err != nil {
		return nil, types.WrapError(types.GRAPH_UPSERT_FAILED,
			fmt.Sprintf("upsert into %q failed", collection), err)
	}
	defer cursor.Close()

	var doc map[string]any
	if _, err := cursor.ReadDocument(ctx, &doc); err != nil {
		if driver.IsNoMoreDocuments(err) {
			return nil, nil
		}
		return nil, types.WrapError(types.GRAPH_UPSERT_FAILED,
			fmt.Sprintf("upsert into %q returned no document", collection), err)
	}
	return doc, nil
}

// Exists reports whether a document with the given key exists.
func (s *ArangoStore) Exists(ctx context.Context, collection, key string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	col, err := s.db.Collection(ctx, collection)
	if err != nil {
		if driver.IsNotFound(err) {
			return false, nil
		}
		return false, types.WrapError(types.GRAPH_UNAVAILABLE,
			fmt.Sprintf("failed to open collection %q", collection), err)
	}

	exists, err := col.DocumentExists(ctx, key)
	if err != nil {
		return false, types.WrapError(types.GRAPH_UNAVAILABLE,
			fmt.Sprintf("failed to check document %s/%s", collection, key), err)
	}
	return exists, nil
}

// Close releases the connection. The HTTP connection has no explicit close.
func (s *ArangoStore) Close() error {
	return nil
}
