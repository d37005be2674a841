package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/internal/logging"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/domain"
)

// allSessions is the subscription key that receives the events of every session.
const allSessions = "*"

// StreamManager handles active SSE connections.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // SessionID -> Set of Channels
	logger      *slog.Logger
}

func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a listener for sessionID. An empty id listens to every
// session. The returned func unsubscribes and closes the channel.
func (sm *StreamManager) Subscribe(sessionID string) (chan string, func()) {
	if sessionID == "" {
		sessionID = allSessions
	}
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 32)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[sessionID]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, sessionID)
			}
		}
	}
}

// Broadcast sends msg to the listeners of sessionID and to global listeners.
func (sm *StreamManager) Broadcast(sessionID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	keys := []string{allSessions}
	if sessionID != "" {
		keys = append(keys, sessionID)
	}
	for _, key := range keys {
		for ch := range sm.subscribers[key] {
			select {
			case ch <- msg:
			default:
				// Drop message if channel is full (slow client)
				sm.logger.Warn("SSE: client buffer full, dropping message", "session_id", sessionID)
			}
		}
	}
}

// Hooks publishes pipeline events to the subscribers of the run's session.
func (sm *StreamManager) Hooks() domain.LifecycleHooks {
	publish := func(sessionID string, event any) {
		data, err := json.Marshal(event)
		if err != nil {
			sm.logger.Error("failed to encode event", "err", err)
			return
		}
		sm.Broadcast(sessionID, string(data))
	}
	return domain.LifecycleHooks{
		OnNodeEnter: func(_ context.Context, e *domain.NodeEvent) { publish(e.SessionID, e) },
		OnNodeLeave: func(_ context.Context, e *domain.NodeEvent) { publish(e.SessionID, e) },
		OnFallback:  func(_ context.Context, e *domain.FallbackEvent) { publish(e.SessionID, e) },
		OnRunComplete: func(_ context.Context, e *domain.RunEvent) {
			publish(e.SessionID, e)
		},
	}
}
