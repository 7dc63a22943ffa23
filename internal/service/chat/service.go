package chat

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abhishekrajdhar/ai-pashu/internal/model/chat"
)

// Service encapsulates conversation state management. Sessions are keyed by
// a client-supplied identifier and live for the process lifetime only.
type Service struct {
	mu       sync.RWMutex
	sessions map[string][]chat.Exchange
}

// NewService bootstraps the in-memory session store suitable for early iterations.
func NewService() *Service {
	return &Service{
		sessions: make(map[string][]chat.Exchange),
	}
}

// History returns a copy of the recorded exchanges for the session, in
// insertion order. Unknown session ids yield an empty transcript; sessions
// are created lazily on Append.
func (s *Service) History(_ context.Context, sessionID string) []chat.Exchange {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exchanges := s.sessions[sessionID]
	copied := make([]chat.Exchange, len(exchanges))
	copy(copied, exchanges)
	return copied
}

// Append records one exchange, creating the session if absent.
func (s *Service) Append(_ context.Context, sessionID, query, answer string) chat.Exchange {
	exchange := chat.Exchange{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Query:     query,
		Answer:    answer,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.sessions[sessionID] = append(s.sessions[sessionID], exchange)
	s.mu.Unlock()

	return exchange
}
