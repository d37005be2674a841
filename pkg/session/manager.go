package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"log/slog"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/internal/logging"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/domain"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed session lock is held.
const DefaultLockTTL = 2 * time.Minute

// Runner executes one pipeline run.
type Runner interface {
	Run(ctx context.Context, query string) *domain.PipelineState
}

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager serialises the runs of a chat session and records their history.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	runner Runner
	store  ports.HistoryStore

	mu    sync.Mutex            // guards locks
	locks map[string]*lockEntry // active locks by session

	locker  ports.DistributedLocker // optional
	lockTTL time.Duration
	now     func() time.Time
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the expiry of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithClock overrides the time source used to stamp turns.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a session manager running queries through runner and
// keeping their history in store.
func NewManager(runner Runner, store ports.HistoryStore, opts ...Option) *Manager {
	m := &Manager{
		runner:  runner,
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		now:     time.Now,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller must lock entry.mu and call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// Ask runs query in the given session and appends the exchange to its
// history. Runs of one session never overlap. A history that cannot be read
// or written is logged and the run result is still returned; when the read
// fails the stored history is left untouched.
func (m *Manager) Ask(ctx context.Context, sessionID, query string) (*domain.PipelineState, error) {
	if sessionID == "" {
		return nil, domain.ErrInvalidSessionID
	}

	var state *domain.PipelineState
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		conv, err := m.store.Load(ctx, sessionID)
		switch {
		case errors.Is(err, domain.ErrSessionNotFound):
			conv = domain.NewConversation(sessionID)
		case err != nil:
			// Saving now would overwrite the stored turns we failed to read.
			state = m.runner.Run(domain.WithSessionID(ctx, sessionID), query)
			m.logger.Error("failed to load history, history not updated", "session_id", sessionID, "err", err)
			return nil
		}

		state = m.runner.Run(domain.WithSessionID(ctx, sessionID), query)

		conv.Append(domain.TurnFromState(state, m.now()))
		if err := m.store.Save(ctx, sessionID, conv); err != nil {
			m.logger.Error("failed to save history", "session_id", sessionID, "err", err)
		}
		return nil
	})
	return state, err
}

// History returns the conversation of a session.
func (m *Manager) History(ctx context.Context, sessionID string) (*domain.Conversation, error) {
	var conv *domain.Conversation
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		conv, err = m.store.Load(ctx, sessionID)
		return err
	})
	return conv, err
}

// Delete removes the session from the store.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Delete(ctx, sessionID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// LockTTL returns the expiry used for distributed locks.
func (m *Manager) LockTTL() time.Duration {
	return m.lockTTL
}

// Store returns the underlying history store.
func (m *Manager) Store() ports.HistoryStore {
	return m.store
}

// WithLock executes fn while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			// the caller's context may already be done
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
