package session_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/adapters/memory"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/domain"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/ports"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoRunner answers every query with a fixed prefix and records the
// session id it was called with.
type echoRunner struct {
	mu       sync.Mutex
	sessions []string
}

func (r *echoRunner) Run(ctx context.Context, query string) *domain.PipelineState {
	r.mu.Lock()
	r.sessions = append(r.sessions, domain.SessionIDFrom(ctx))
	r.mu.Unlock()

	s := domain.NewPipelineState(query, 2)
	s.Intent = domain.IntentText
	s.Response = "answer: " + query
	return s
}

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	data map[string]*domain.Conversation
	mu   sync.Mutex

	loadErr error
	saveErr error
}

func (s *SlowStore) Save(ctx context.Context, sessionID string, conv *domain.Conversation) error {
	time.Sleep(5 * time.Millisecond)
	if s.saveErr != nil {
		return s.saveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		s.data = make(map[string]*domain.Conversation)
	}
	s.data[sessionID] = conv.Clone()
	return nil
}

func (s *SlowStore) Load(ctx context.Context, sessionID string) (*domain.Conversation, error) {
	time.Sleep(5 * time.Millisecond)
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if conv, ok := s.data[sessionID]; ok {
		return conv.Clone(), nil
	}
	return nil, domain.ErrSessionNotFound
}

func (s *SlowStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

func (s *SlowStore) List(ctx context.Context) ([]string, error) {
	return nil, nil
}

var ctx = context.Background()

func TestManager_AskRecordsHistory(t *testing.T) {
	at := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)
	runner := &echoRunner{}
	m := session.NewManager(runner, memory.NewStore(), session.WithClock(func() time.Time { return at }))

	state, err := m.Ask(ctx, "s1", "아반떼 연비")
	require.NoError(t, err)
	assert.Equal(t, "answer: 아반떼 연비", state.Response)

	_, err = m.Ask(ctx, "s1", "쏘나타 가격")
	require.NoError(t, err)

	conv, err := m.History(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, conv.Turns, 2)
	assert.Equal(t, "아반떼 연비", conv.Turns[0].Query)
	assert.Equal(t, "answer: 쏘나타 가격", conv.Turns[1].Response)
	assert.Equal(t, domain.IntentText, conv.Turns[1].Intent)
	assert.True(t, at.Equal(conv.UpdatedAt))

	assert.Equal(t, []string{"s1", "s1"}, runner.sessions, "runs carry the session id")
}

func TestManager_AskRequiresSession(t *testing.T) {
	m := session.NewManager(&echoRunner{}, memory.NewStore())
	_, err := m.Ask(ctx, "", "q")
	assert.ErrorIs(t, err, domain.ErrInvalidSessionID)
}

func TestManager_AskSerialisesSession(t *testing.T) {
	store := &SlowStore{}
	m := session.NewManager(&echoRunner{}, store)
	id := "race-test"

	var wg sync.WaitGroup
	const concurrent = 10
	for i := 0; i < concurrent; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := m.Ask(ctx, id, fmt.Sprintf("q%d", i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	conv, err := m.History(ctx, id)
	require.NoError(t, err)
	assert.Len(t, conv.Turns, concurrent, "read-modify-write must not lose turns")
}

func TestManager_AskSurvivesStoreFailures(t *testing.T) {
	t.Run("load", func(t *testing.T) {
		store := &SlowStore{loadErr: errors.New("disk on fire")}
		state, err := session.NewManager(&echoRunner{}, store).Ask(ctx, "s", "q")
		require.NoError(t, err)
		assert.Equal(t, "answer: q", state.Response)
	})
	t.Run("save", func(t *testing.T) {
		store := &SlowStore{saveErr: errors.New("read only")}
		state, err := session.NewManager(&echoRunner{}, store).Ask(ctx, "s", "q")
		require.NoError(t, err)
		assert.Equal(t, "answer: q", state.Response)
	})
}

// flakyStore fails the next Load with failNext and then behaves like its
// embedded store again.
type flakyStore struct {
	ports.HistoryStore
	failNext error
}

func (s *flakyStore) Load(ctx context.Context, sessionID string) (*domain.Conversation, error) {
	if err := s.failNext; err != nil {
		s.failNext = nil
		return nil, err
	}
	return s.HistoryStore.Load(ctx, sessionID)
}

func TestManager_AskKeepsHistoryOnLoadFailure(t *testing.T) {
	store := &flakyStore{HistoryStore: memory.NewStore()}
	m := session.NewManager(&echoRunner{}, store)

	for _, q := range []string{"q1", "q2", "q3"} {
		_, err := m.Ask(ctx, "s", q)
		require.NoError(t, err)
	}

	store.failNext = errors.New("i/o timeout")
	state, err := m.Ask(ctx, "s", "q4")
	require.NoError(t, err)
	assert.Equal(t, "answer: q4", state.Response, "the run still completes")

	conv, err := m.History(ctx, "s")
	require.NoError(t, err)
	require.Len(t, conv.Turns, 3, "stored turns must not be overwritten")
	assert.Equal(t, "q3", conv.Turns[2].Query)
}

func TestManager_DeleteAndList(t *testing.T) {
	m := session.NewManager(&echoRunner{}, memory.NewStore())
	for _, id := range []string{"a", "b"} {
		_, err := m.Ask(ctx, id, "q")
		require.NoError(t, err)
	}

	ids, err := m.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, ids)

	require.NoError(t, m.Delete(ctx, "a"))
	_, err = m.History(ctx, "a")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

type fakeLocker struct {
	mu       sync.Mutex
	keys     []string
	ttl      time.Duration
	released int
	err      error
}

func (l *fakeLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	if l.err != nil {
		return nil, l.err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.keys = append(l.keys, key)
	l.ttl = ttl
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.released++
		return nil
	}, nil
}

func TestManager_DistributedLock(t *testing.T) {
	locker := &fakeLocker{}
	m := session.NewManager(&echoRunner{}, memory.NewStore(),
		session.WithLocker(locker),
		session.WithLockTTL(time.Minute),
	)

	_, err := m.Ask(ctx, "s1", "q")
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, locker.keys)
	assert.Equal(t, time.Minute, locker.ttl)
	assert.Equal(t, 1, locker.released)

	locker.err = domain.ErrLockAcquire
	_, err = m.Ask(ctx, "s1", "q")
	assert.ErrorIs(t, err, domain.ErrLockAcquire)
}
