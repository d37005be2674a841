// Package qdrant implements the vector store ports over the Qdrant REST API.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/internal/httpx"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/internal/logging"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/domain"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/ports"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

const (
	contentField = "content"
	maxBody      = 8 << 20
)

// idNamespace derives stable point ids from document ids that are not UUIDs.
var idNamespace = uuid.MustParse("6f1f4b0e-7c55-4a53-9d1c-1a9b0e3c2d10")

// Store is a Qdrant collection searched by embedding the query text.
type Store struct {
	baseURL    string
	collection string
	embedder   ports.Embedder
	http       *httpx.Client
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

// New creates a Store for collection at baseURL (for example http://localhost:6333).
func New(baseURL, collection string, embedder ports.Embedder, client *httpx.Client, opts ...Option) *Store {
	s := &Store{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		embedder:   embedder,
		http:       client,
		logger:     logging.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

type searchRequest struct {
	Vector      []float32 `json:"vector"`
	Limit       int       `json:"limit"`
	WithPayload bool      `json:"with_payload"`
}

// Retrieve embeds query and returns the closest points, best first.
func (s *Store) Retrieve(ctx context.Context, query string, limit int) ([]domain.SearchResult, error) {
	if s.embedder == nil {
		return nil, domain.Unavailable("vector search", errors.New("no embedder configured"))
	}
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	body, err := s.call(ctx, http.MethodPost, "/points/search", searchRequest{Vector: vec, Limit: limit, WithPayload: true})
	if err != nil {
		return nil, err
	}

	result := gjson.GetBytes(body, "result")
	if !result.IsArray() {
		return nil, domain.Unparseable("vector search", errors.New("missing result array"))
	}
	out := make([]domain.SearchResult, 0, len(result.Array()))
	for _, hit := range result.Array() {
		payload := map[string]any{}
		if p := hit.Get("payload"); p.IsObject() {
			if err := json.Unmarshal([]byte(p.Raw), &payload); err != nil {
				return nil, domain.Unparseable("vector search", err)
			}
		}
		content, _ := payload[contentField].(string)
		delete(payload, contentField)
		payload["id"] = hit.Get("id").Value()
		out = append(out, domain.SearchResult{
			Content:  content,
			Score:    hit.Get("score").Float(),
			Metadata: payload,
		})
	}
	return out, nil
}

// EnsureCollection creates the collection with cosine distance if it does
// not exist yet.
func (s *Store) EnsureCollection(ctx context.Context) error {
	_, err := s.call(ctx, http.MethodGet, "", nil)
	if err == nil {
		return nil
	}
	if !isNotFound(err) {
		return err
	}

	size := 0
	if s.embedder != nil {
		size = s.embedder.Dimensions()
	}
	if size <= 0 {
		return domain.Unavailable("create collection", errors.New("embedding dimensions unknown"))
	}
	req := map[string]any{
		"vectors": map[string]any{"size": size, "distance": "Cosine"},
	}
	if _, err := s.call(ctx, http.MethodPut, "", req); err != nil {
		return err
	}
	s.logger.Info("created qdrant collection", "collection", s.collection, "size", size)
	return nil
}

type point struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

// Upsert embeds and stores docs.
func (s *Store) Upsert(ctx context.Context, docs []ports.Document) error {
	if len(docs) == 0 {
		return nil
	}
	if s.embedder == nil {
		return domain.Unavailable("upsert", errors.New("no embedder configured"))
	}
	points := make([]point, 0, len(docs))
	for _, d := range docs {
		vec, err := s.embedder.Embed(ctx, d.Content)
		if err != nil {
			return fmt.Errorf("embed %s: %w", d.ID, err)
		}
		payload := make(map[string]any, len(d.Metadata)+1)
		for k, v := range d.Metadata {
			payload[k] = v
		}
		payload[contentField] = d.Content
		points = append(points, point{ID: pointID(d.ID), Vector: vec, Payload: payload})
	}
	_, err := s.call(ctx, http.MethodPut, "/points?wait=true", map[string]any{"points": points})
	return err
}

func pointID(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	if u, err := uuid.Parse(id); err == nil {
		return u.String()
	}
	return uuid.NewSHA1(idNamespace, []byte(id)).String()
}

type statusErr struct{ code int }

func (e statusErr) Error() string { return fmt.Sprintf("status %d", e.code) }

func isNotFound(err error) bool {
	var se statusErr
	return errors.As(err, &se) && se.code == http.StatusNotFound
}

func (s *Store) call(ctx context.Context, method, path string, payload any) ([]byte, error) {
	op := "qdrant " + strings.ToLower(method) + " " + s.collection + path

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, domain.CallFailed(op, err)
		}
		body = bytes.NewReader(data)
	}
	endpoint := s.baseURL + "/collections/" + url.PathEscape(s.collection) + path

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, domain.Unavailable(op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, httpx.Classify(op, err)
	}
	data, err := httpx.ReadBody(resp, maxBody)
	if err != nil {
		return nil, domain.CallFailed(op, err)
	}
	if resp.StatusCode >= 300 {
		msg := gjson.GetBytes(data, "status.error").String()
		return nil, domain.CallFailed(op, fmt.Errorf("%w: %s", statusErr{resp.StatusCode}, msg))
	}
	if !gjson.ValidBytes(data) {
		return nil, domain.Unparseable(op, errors.New("invalid JSON body"))
	}
	return data, nil
}
