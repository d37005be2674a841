package qdrant

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/internal/httpx"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/internal/testutils"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/domain"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/ports"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeQdrant keeps one collection in memory and answers searches with every
// stored point, scored by insertion order.
type fakeQdrant struct {
	mu     sync.Mutex
	exists bool
	size   int
	points []map[string]any
	limit  int
}

func (f *fakeQdrant) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")

	var body map[string]any
	if r.Body != nil {
		data, _ := io.ReadAll(r.Body)
		if len(data) > 0 {
			_ = json.Unmarshal(data, &body)
		}
	}

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/collections/cars":
		if !f.exists {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"status":{"error":"Not found: Collection cars doesn't exist!"}}`)
			return
		}
		_, _ = io.WriteString(w, `{"result":{"status":"green"},"status":"ok"}`)
	case r.Method == http.MethodPut && r.URL.Path == "/collections/cars":
		f.exists = true
		f.size = int(body["vectors"].(map[string]any)["size"].(float64))
		_, _ = io.WriteString(w, `{"result":true,"status":"ok"}`)
	case r.Method == http.MethodPut && r.URL.Path == "/collections/cars/points":
		for _, p := range body["points"].([]any) {
			f.points = append(f.points, p.(map[string]any))
		}
		_, _ = io.WriteString(w, `{"result":{"status":"completed"},"status":"ok"}`)
	case r.Method == http.MethodPost && r.URL.Path == "/collections/cars/points/search":
		f.limit = int(body["limit"].(float64))
		result := []any{}
		for i, p := range f.points {
			if i >= f.limit {
				break
			}
			result = append(result, map[string]any{"id": p["id"], "score": 0.9 - float64(i)/10, "payload": p["payload"]})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"result": result, "status": "ok"})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newStore(t *testing.T, f *fakeQdrant, emb ports.Embedder) *Store {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return New(srv.URL, "cars", emb, httpx.New(httpx.Options{Timeout: time.Second}))
}

func TestStore_IndexAndRetrieve(t *testing.T) {
	f := &fakeQdrant{}
	s := newStore(t, f, &testutils.Embedder{Dims: 8})
	ctx := context.Background()

	require.NoError(t, s.EnsureCollection(ctx))
	assert.Equal(t, 8, f.size)
	require.NoError(t, s.EnsureCollection(ctx), "existing collection is left alone")

	docs := []ports.Document{
		{ID: "avante-1", Content: "아반떼는 준중형 세단입니다.", Metadata: map[string]any{"source": "brochure"}},
		{ID: "tucson-1", Content: "투싼은 준중형 SUV입니다."},
	}
	require.NoError(t, s.Upsert(ctx, docs))
	require.Len(t, f.points, 2)

	id := f.points[0]["id"].(string)
	_, err := uuid.Parse(id)
	require.NoError(t, err, "non-uuid document ids become stable uuids")
	assert.Equal(t, pointID("avante-1"), id)

	hits, err := s.Retrieve(ctx, "아반떼", 5)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "아반떼는 준중형 세단입니다.", hits[0].Content)
	assert.InDelta(t, 0.9, hits[0].Score, 1e-9)
	assert.Equal(t, "brochure", hits[0].Metadata["source"])
	assert.NotContains(t, hits[0].Metadata, "content")
	assert.Equal(t, 5, f.limit)
}

func TestStore_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("no embedder", func(t *testing.T) {
		s := newStore(t, &fakeQdrant{}, nil)
		_, err := s.Retrieve(ctx, "q", 5)
		assert.Equal(t, domain.KindUnavailable, domain.KindOf(err))
	})

	t.Run("embedder failure passes through", func(t *testing.T) {
		s := newStore(t, &fakeQdrant{}, &testutils.Embedder{Dims: 4, Err: domain.Unavailable("embed", errors.New("no key"))})
		_, err := s.Retrieve(ctx, "q", 5)
		assert.Equal(t, domain.KindUnavailable, domain.KindOf(err))
	})

	t.Run("missing collection is a call failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"status":{"error":"Not found"}}`)
		}))
		defer srv.Close()
		s := New(srv.URL, "cars", &testutils.Embedder{Dims: 4}, httpx.New(httpx.Options{Timeout: time.Second}))
		_, err := s.Retrieve(ctx, "q", 5)
		assert.Equal(t, domain.KindCallFailure, domain.KindOf(err))
	})

	t.Run("nothing listening is unavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()
		s := New(url, "cars", &testutils.Embedder{Dims: 4}, httpx.New(httpx.Options{Timeout: time.Second}))
		_, err := s.Retrieve(ctx, "q", 5)
		assert.Equal(t, domain.KindUnavailable, domain.KindOf(err))
	})
}

func TestPointID(t *testing.T) {
	u := uuid.NewString()
	assert.Equal(t, u, pointID(u))
	assert.Equal(t, pointID("doc"), pointID("doc"))
	assert.NotEqual(t, pointID("doc"), pointID("doc2"))
	assert.NotEmpty(t, pointID(""))
}
