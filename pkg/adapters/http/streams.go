package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/aretw0/formwork/internal/logging"
	"github.com/aretw0/formwork/pkg/domain"
)

// StreamEvent is a message pushed to the subscribers of a session.
type StreamEvent struct {
	Type   string            `json:"type"`
	Fields []string          `json:"fields,omitempty"`
	Pass   *domain.PassEvent `json:"pass,omitempty"`
}

// Stream event types.
const (
	EventStore      = "store"
	EventValidation = "validation"
)

// StreamManager handles active SSE connections
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

func (sm *StreamManager) Subscribe(sessionID string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
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

func (sm *StreamManager) Broadcast(sessionID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	subs, ok := sm.subscribers[sessionID]
	if !ok {
		return
	}
	for ch := range subs {
		select {
		case ch <- msg:
		default:
			// Drop message if channel is full (slow client)
			sm.logger.Warn("SSE: Client buffer full, dropping message", "session_id", sessionID)
		}
	}
}

func (sm *StreamManager) publish(sessionID string, event StreamEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		sm.logger.Error("SSE: failed to encode event", "session_id", sessionID, "error", err)
		return
	}
	sm.Broadcast(sessionID, string(data))
}

// Hooks returns form hooks that publish store changes and validation
// outcomes to the subscribers of sessionID.
func (sm *StreamManager) Hooks(sessionID string) domain.Hooks {
	return domain.Hooks{
		OnStoreChange: func(names []string) {
			sm.publish(sessionID, StreamEvent{Type: EventStore, Fields: names})
		},
		OnValidationDone: func(_ context.Context, e *domain.PassEvent) {
			sm.publish(sessionID, StreamEvent{Type: EventValidation, Pass: e})
		},
	}
}
