package middleware_test

import (
	"context"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/domain"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/ports"
)

// MockStore is a simple map-based store for testing middleware.
// It keeps the pointers it is given so tests can inspect what was written.
type MockStore struct {
	data map[string]*domain.Conversation
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string]*domain.Conversation),
	}
}

func (s *MockStore) Save(ctx context.Context, sessionID string, conv *domain.Conversation) error {
	s.data[sessionID] = conv
	return nil
}

func (s *MockStore) Load(ctx context.Context, sessionID string) (*domain.Conversation, error) {
	conv, ok := s.data[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return conv.Clone(), nil
}

func (s *MockStore) Delete(ctx context.Context, sessionID string) error {
	delete(s.data, sessionID)
	return nil
}

func (s *MockStore) List(ctx context.Context) ([]string, error) {
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys, nil
}

var _ ports.HistoryStore = (*MockStore)(nil)
