package model

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

// ConversationRepository stores each session's turn history. Implementations
// may expire idle sessions; an unknown session has an empty history.
type ConversationRepository interface {
	// AddMessage appends messages to the session history in order.
	AddMessage(ctx context.Context, sessionID string, messages ...*schema.Message) error

	// LoadHistory retrieves the session history.
	LoadHistory(ctx context.Context, sessionID string) (*ConversationHistory, error)

	// ClearHistory removes all history for a session.
	ClearHistory(ctx context.Context, sessionID string) error

	// GetMessageCount returns the number of messages stored for a session.
	GetMessageCount(ctx context.Context, sessionID string) (int, error)
}

// ConversationHistory represents loaded conversation data with metadata.
type ConversationHistory struct {
	SessionID string
	Messages  []*schema.Message
}

// UserUtterances returns the content of the last n user messages, oldest first.
func (h *ConversationHistory) UserUtterances(n int) []string {
	var out []string
	for _, m := range h.Messages {
		if m != nil && m.Role == schema.User && m.Content != "" {
			out = append(out, m.Content)
		}
	}
	if n > 0 && len(out) > n {
		out = out[len(out)-n:]
	}
	return out
}
