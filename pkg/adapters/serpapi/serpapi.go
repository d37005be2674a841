// Package serpapi implements ports.WebSearcher with the SerpAPI Google engine.
package serpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/internal/httpx"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/internal/logging"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/domain"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/tidwall/gjson"
)

const (
	DefaultEndpoint = "https://serpapi.com/search"
	maxBody         = 4 << 20
)

// Config configures the searcher.
type Config struct {
	APIKey   string
	Endpoint string
	// CacheTTL and CacheMax bound the response cache. A zero CacheMax
	// disables caching.
	CacheTTL time.Duration
	CacheMax int
}

// Searcher queries SerpAPI. Safe for concurrent use.
type Searcher struct {
	cfg    Config
	http   *httpx.Client
	cache  *expirable.LRU[string, *domain.WebSearchResponse]
	logger *slog.Logger
}

type Option func(*Searcher)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) {
		s.logger = logger
	}
}

// New creates a Searcher using client for outbound calls.
func New(cfg Config, client *httpx.Client, opts ...Option) *Searcher {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	s := &Searcher{cfg: cfg, http: client, logger: logging.NewNop()}
	if cfg.CacheMax > 0 {
		s.cache = expirable.NewLRU[string, *domain.WebSearchResponse](cfg.CacheMax, nil, cfg.CacheTTL)
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Search runs a web search for query.
func (s *Searcher) Search(ctx context.Context, query string) (*domain.WebSearchResponse, error) {
	if s.cfg.APIKey == "" {
		return nil, domain.Unavailable("web search", errors.New("SERPAPI_KEY is not set"))
	}
	key := strings.TrimSpace(query)
	if s.cache != nil {
		if resp, ok := s.cache.Get(key); ok {
			s.logger.Debug("web search cache hit", "query", key)
			return resp, nil
		}
	}

	u, err := url.Parse(s.cfg.Endpoint)
	if err != nil {
		return nil, domain.Unavailable("web search", fmt.Errorf("invalid endpoint: %w", err))
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("api_key", s.cfg.APIKey)
	params.Set("engine", "google")
	params.Set("hl", "en")
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, domain.CallFailed("web search", err)
	}
	httpResp, err := s.http.Do(req)
	if err != nil {
		return nil, httpx.Classify("web search", err)
	}
	body, err := httpx.ReadBody(httpResp, maxBody)
	if err != nil {
		return nil, domain.CallFailed("web search", err)
	}
	switch {
	case httpResp.StatusCode == http.StatusUnauthorized || httpResp.StatusCode == http.StatusForbidden:
		return nil, domain.Unavailable("web search", fmt.Errorf("status %d", httpResp.StatusCode))
	case httpResp.StatusCode >= 300:
		return nil, domain.CallFailed("web search", fmt.Errorf("status %d: %s", httpResp.StatusCode, gjson.GetBytes(body, "error").String()))
	}

	resp, err := parse(body)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Add(key, resp)
	}
	return resp, nil
}

// parse validates a SerpAPI body. Bodies without organic results are kept
// verbatim so the caller can still use them as context.
func parse(body []byte) (*domain.WebSearchResponse, error) {
	if !gjson.ValidBytes(body) {
		return nil, domain.Unparseable("web search", errors.New("invalid JSON body"))
	}
	if msg := gjson.GetBytes(body, "error"); msg.Exists() {
		return nil, domain.CallFailed("web search", errors.New(msg.String()))
	}

	resp := &domain.WebSearchResponse{Raw: string(body)}
	organic := gjson.GetBytes(body, "organic_results")
	if !organic.Exists() {
		return resp, nil
	}
	if !organic.IsArray() {
		return nil, domain.Unparseable("web search", errors.New("organic_results is not an array"))
	}
	if err := json.Unmarshal([]byte(organic.Raw), &resp.OrganicResults); err != nil {
		return nil, domain.Unparseable("web search", err)
	}
	return resp, nil
}
