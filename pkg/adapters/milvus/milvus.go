// Package milvus implements the vector store ports on a Milvus collection.
package milvus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/internal/logging"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/domain"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/ports"
	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

const (
	idField      = "id"
	contentField = "content"
	vectorField  = "embedding"
	maxIDLength  = 128
	maxContent   = 8192
	shards       = int32(1)
)

// api is the part of client.Client the store uses.
type api interface {
	HasCollection(ctx context.Context, collName string) (bool, error)
	CreateCollection(ctx context.Context, schema *entity.Schema, shardsNum int32, opts ...client.CreateCollectionOption) error
	CreateIndex(ctx context.Context, collName string, fieldName string, idx entity.Index, async bool, opts ...client.IndexOption) error
	LoadCollection(ctx context.Context, collName string, async bool, opts ...client.LoadCollectionOption) error
	Insert(ctx context.Context, collName string, partitionName string, columns ...entity.Column) (entity.Column, error)
	Search(ctx context.Context, collName string, partitions []string, expr string, outputFields []string,
		vectors []entity.Vector, vectorField string, metricType entity.MetricType, topK int, sp entity.SearchParam,
		opts ...client.SearchQueryOptionFunc) ([]client.SearchResult, error)
	Close() error
}

// Store searches a Milvus collection by embedding the query text.
type Store struct {
	api        api
	collection string
	embedder   ports.Embedder
	logger     *slog.Logger
}

var (
	_ ports.VectorStore = (*Store)(nil)
	_ ports.Indexer     = (*Store)(nil)
)

type Option func(*Store)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// Dial connects to the Milvus server at address.
func Dial(ctx context.Context, address, collection string, embedder ports.Embedder, opts ...Option) (*Store, error) {
	c, err := client.NewClient(ctx, client.Config{Address: address})
	if err != nil {
		return nil, domain.Unavailable("milvus connect", err)
	}
	return newStore(c, collection, embedder, opts...), nil
}

func newStore(c api, collection string, embedder ports.Embedder, opts ...Option) *Store {
	s := &Store{api: c, collection: collection, embedder: embedder, logger: logging.NewNop()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Close releases the connection.
func (s *Store) Close() error {
	return s.api.Close()
}

// Retrieve embeds query and returns the closest documents, best first.
func (s *Store) Retrieve(ctx context.Context, query string, limit int) ([]domain.SearchResult, error) {
	if s.embedder == nil {
		return nil, domain.Unavailable("vector search", errors.New("no embedder configured"))
	}
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	sp, err := entity.NewIndexFlatSearchParam()
	if err != nil {
		return nil, domain.CallFailed("vector search", err)
	}

	results, err := s.api.Search(ctx, s.collection, nil, "", []string{idField, contentField},
		[]entity.Vector{entity.FloatVector(vec)}, vectorField, entity.COSINE, limit, sp)
	if err != nil {
		return nil, domain.CallFailed("vector search", err)
	}
	if len(results) == 0 {
		return []domain.SearchResult{}, nil
	}

	r := results[0]
	if r.Err != nil {
		return nil, domain.CallFailed("vector search", r.Err)
	}
	contents, ids := findVarChar(r.Fields, contentField), findVarChar(r.Fields, idField)
	if contents == nil {
		return nil, domain.Unparseable("vector search", fmt.Errorf("result has no %s column", contentField))
	}

	out := make([]domain.SearchResult, 0, r.ResultCount)
	for i := 0; i < r.ResultCount && i < len(r.Scores); i++ {
		content, err := contents.ValueByIdx(i)
		if err != nil {
			return nil, domain.Unparseable("vector search", err)
		}
		hit := domain.SearchResult{Content: content, Score: float64(r.Scores[i])}
		if ids != nil {
			if id, err := ids.ValueByIdx(i); err == nil {
				hit.Metadata = map[string]any{"id": id}
			}
		}
		out = append(out, hit)
	}
	return out, nil
}

func findVarChar(cols []entity.Column, name string) *entity.ColumnVarChar {
	for _, col := range cols {
		if col.Name() != name {
			continue
		}
		if vc, ok := col.(*entity.ColumnVarChar); ok {
			return vc
		}
	}
	return nil
}

// EnsureCollection creates, indexes and loads the collection if missing.
func (s *Store) EnsureCollection(ctx context.Context) error {
	ok, err := s.api.HasCollection(ctx, s.collection)
	if err != nil {
		return domain.CallFailed("milvus has collection", err)
	}
	if ok {
		return s.api.LoadCollection(ctx, s.collection, false)
	}
	if s.embedder == nil || s.embedder.Dimensions() <= 0 {
		return domain.Unavailable("milvus create collection", errors.New("embedding dimensions unknown"))
	}
	dim := s.embedder.Dimensions()

	schema := entity.NewSchema().
		WithName(s.collection).
		WithField(entity.NewField().WithName(idField).WithDataType(entity.FieldTypeVarChar).WithIsPrimaryKey(true).WithMaxLength(maxIDLength)).
		WithField(entity.NewField().WithName(contentField).WithDataType(entity.FieldTypeVarChar).WithMaxLength(maxContent)).
		WithField(entity.NewField().WithName(vectorField).WithDataType(entity.FieldTypeFloatVector).WithDim(int64(dim)))

	if err := s.api.CreateCollection(ctx, schema, shards); err != nil {
		return domain.CallFailed("milvus create collection", err)
	}
	idx, err := entity.NewIndexAUTOINDEX(entity.COSINE)
	if err != nil {
		return domain.CallFailed("milvus create index", err)
	}
	if err := s.api.CreateIndex(ctx, s.collection, vectorField, idx, false); err != nil {
		return domain.CallFailed("milvus create index", err)
	}
	s.logger.Info("created milvus collection", "collection", s.collection, "dim", dim)
	return s.api.LoadCollection(ctx, s.collection, false)
}

// Upsert embeds and inserts docs.
func (s *Store) Upsert(ctx context.Context, docs []ports.Document) error {
	if len(docs) == 0 {
		return nil
	}
	if s.embedder == nil {
		return domain.Unavailable("milvus insert", errors.New("no embedder configured"))
	}
	ids := make([]string, 0, len(docs))
	contents := make([]string, 0, len(docs))
	vectors := make([][]float32, 0, len(docs))
	for _, d := range docs {
		vec, err := s.embedder.Embed(ctx, d.Content)
		if err != nil {
			return fmt.Errorf("embed %s: %w", d.ID, err)
		}
		ids = append(ids, d.ID)
		contents = append(contents, truncate(d.Content, maxContent))
		vectors = append(vectors, vec)
	}

	_, err := s.api.Insert(ctx, s.collection, "",
		entity.NewColumnVarChar(idField, ids),
		entity.NewColumnVarChar(contentField, contents),
		entity.NewColumnFloatVector(vectorField, s.embedder.Dimensions(), vectors),
	)
	if err != nil {
		return domain.CallFailed("milvus insert", err)
	}
	return nil
}

// truncate cuts s to at most n bytes on a rune boundary.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
