package repo

import (
	"context"
	"sync"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/maleon-core-poc/server/internal/agent/model"
)

// MemoryConversationRepository keeps histories in process memory. It is used
// when no Redis URL is configured and in tests. Idle sessions older than ttl
// are dropped lazily on access.
type MemoryConversationRepository struct {
	mu       sync.Mutex
	sessions map[string]*memorySession
	ttl      time.Duration
	now      func() time.Time
}

type memorySession struct {
	messages []*schema.Message
	touched  time.Time
}

func NewMemoryConversationRepository(ttl time.Duration) *MemoryConversationRepository {
	return &MemoryConversationRepository{
		sessions: make(map[string]*memorySession),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (r *MemoryConversationRepository) live(sessionID string) *memorySession {
	s, ok := r.sessions[sessionID]
	if !ok {
		return nil
	}
	if r.ttl > 0 && r.now().Sub(s.touched) > r.ttl {
		delete(r.sessions, sessionID)
		return nil
	}
	return s
}

func (r *MemoryConversationRepository) AddMessage(_ context.Context, sessionID string, messages ...*schema.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.live(sessionID)
	if s == nil {
		s = &memorySession{}
		r.sessions[sessionID] = s
	}
	s.messages = append(s.messages, messages...)
	s.touched = r.now()
	return nil
}

func (r *MemoryConversationRepository) LoadHistory(_ context.Context, sessionID string) (*model.ConversationHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msgs := []*schema.Message{}
	if s := r.live(sessionID); s != nil {
		msgs = append(msgs, s.messages...)
	}
	return &model.ConversationHistory{SessionID: sessionID, Messages: msgs}, nil
}

func (r *MemoryConversationRepository) ClearHistory(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
	return nil
}

func (r *MemoryConversationRepository) GetMessageCount(_ context.Context, sessionID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s := r.live(sessionID); s != nil {
		return len(s.messages), nil
	}
	return 0, nil
}

var _ model.ConversationRepository = (*MemoryConversationRepository)(nil)
