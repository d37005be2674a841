package milvus

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/internal/testutils"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/domain"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/ports"
	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	exists    bool
	created   *entity.Schema
	indexed   string
	loaded    int
	inserted  []entity.Column
	results   []client.SearchResult
	searchErr error
	topK      int
}

func (f *fakeAPI) HasCollection(ctx context.Context, name string) (bool, error) {
	return f.exists, nil
}

func (f *fakeAPI) CreateCollection(ctx context.Context, schema *entity.Schema, shardsNum int32, opts ...client.CreateCollectionOption) error {
	f.created = schema
	f.exists = true
	return nil
}

func (f *fakeAPI) CreateIndex(ctx context.Context, coll, field string, idx entity.Index, async bool, opts ...client.IndexOption) error {
	f.indexed = field
	return nil
}

func (f *fakeAPI) LoadCollection(ctx context.Context, name string, async bool, opts ...client.LoadCollectionOption) error {
	f.loaded++
	return nil
}

func (f *fakeAPI) Insert(ctx context.Context, coll, partition string, columns ...entity.Column) (entity.Column, error) {
	f.inserted = columns
	return columns[0], nil
}

func (f *fakeAPI) Search(ctx context.Context, coll string, partitions []string, expr string, outputFields []string,
	vectors []entity.Vector, vectorField string, metricType entity.MetricType, topK int, sp entity.SearchParam,
	opts ...client.SearchQueryOptionFunc) ([]client.SearchResult, error) {
	f.topK = topK
	return f.results, f.searchErr
}

func (f *fakeAPI) Close() error { return nil }

func TestRetrieve(t *testing.T) {
	f := &fakeAPI{results: []client.SearchResult{{
		ResultCount: 2,
		Scores:      []float32{0.92, 0.81},
		Fields: []entity.Column{
			entity.NewColumnVarChar(idField, []string{"a", "b"}),
			entity.NewColumnVarChar(contentField, []string{"그랜저 제원", "쏘나타 제원"}),
		},
	}}}
	s := newStore(f, "cars", &testutils.Embedder{Dims: 4})

	hits, err := s.Retrieve(context.Background(), "그랜저", 5)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "그랜저 제원", hits[0].Content)
	assert.InDelta(t, 0.92, hits[0].Score, 1e-6)
	assert.Equal(t, "b", hits[1].Metadata["id"])
	assert.Equal(t, 5, f.topK)
}

func TestRetrieve_Errors(t *testing.T) {
	ctx := context.Background()

	s := newStore(&fakeAPI{searchErr: errors.New("collection not loaded")}, "cars", &testutils.Embedder{Dims: 4})
	_, err := s.Retrieve(ctx, "q", 5)
	assert.Equal(t, domain.KindCallFailure, domain.KindOf(err))

	s = newStore(&fakeAPI{results: []client.SearchResult{{ResultCount: 1, Scores: []float32{0.5}}}}, "cars", &testutils.Embedder{Dims: 4})
	_, err = s.Retrieve(ctx, "q", 5)
	assert.Equal(t, domain.KindUnparseable, domain.KindOf(err))

	s = newStore(&fakeAPI{}, "cars", nil)
	_, err = s.Retrieve(ctx, "q", 5)
	assert.Equal(t, domain.KindUnavailable, domain.KindOf(err))

	hits, err := newStore(&fakeAPI{}, "cars", &testutils.Embedder{Dims: 4}).Retrieve(ctx, "q", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestEnsureCollectionAndUpsert(t *testing.T) {
	f := &fakeAPI{}
	s := newStore(f, "cars", &testutils.Embedder{Dims: 4})
	ctx := context.Background()

	require.NoError(t, s.EnsureCollection(ctx))
	require.NotNil(t, f.created)
	assert.Equal(t, "cars", f.created.CollectionName)
	assert.Len(t, f.created.Fields, 3)
	assert.Equal(t, vectorField, f.indexed)
	assert.Equal(t, 1, f.loaded)

	require.NoError(t, s.EnsureCollection(ctx))
	assert.Equal(t, 2, f.loaded, "existing collection is only loaded")

	long := strings.Repeat("가", maxContent)
	require.NoError(t, s.Upsert(ctx, []ports.Document{{ID: "1", Content: "짧은 글"}, {ID: "2", Content: long}}))
	require.Len(t, f.inserted, 3)
	assert.Equal(t, 2, f.inserted[0].Len())

	content := f.inserted[1].(*entity.ColumnVarChar)
	v, err := content.ValueByIdx(1)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(v), maxContent)
	assert.True(t, strings.HasPrefix(long, v))
}
