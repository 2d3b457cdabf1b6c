package conversations

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/schema"

	"github.com/maleon-core-poc/server/internal/agent/model"
)

type MessagesManager struct {
	conversationRepo model.ConversationRepository
	maxTurns         int
	recentUtterances int
}

func NewMessagesManager(conversationRepo model.ConversationRepository, config model.ConversationConfig) *MessagesManager {
	recent := config.Report.RecentUtterances
	if recent <= 0 {
		recent = 5
	}
	return &MessagesManager{
		conversationRepo: conversationRepo,
		maxTurns:         config.MaxTurns,
		recentUtterances: recent,
	}
}

// BuildChatContext returns system prompt + stored history + the pending user
// turn. The pending turn is not persisted here.
func (cm *MessagesManager) BuildChatContext(ctx context.Context, sessionID, systemPrompt string, pending *schema.Message) ([]*schema.Message, error) {
	history, err := cm.conversationRepo.LoadHistory(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	recent := trimTail(history.Messages, cm.maxTurns)
	messages := make([]*schema.Message, 0, len(recent)+2)
	messages = append(messages, schema.SystemMessage(systemPrompt))
	messages = append(messages, recent...)
	if pending != nil {
		messages = append(messages, pending)
	}
	return messages, nil
}

// RecentUtterances returns the last user turns the report analyst sees.
func (cm *MessagesManager) RecentUtterances(ctx context.Context, sessionID string) ([]string, error) {
	history, err := cm.conversationRepo.LoadHistory(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return history.UserUtterances(cm.recentUtterances), nil
}

// SaveTurn persists a user turn and, when non-empty, the assistant answer.
func (cm *MessagesManager) SaveTurn(ctx context.Context, sessionID string, user *schema.Message, assistant string) error {
	msgs := make([]*schema.Message, 0, 2)
	if user != nil {
		msgs = append(msgs, user)
	}
	if assistant != "" {
		msgs = append(msgs, schema.AssistantMessage(assistant, nil))
	}
	if len(msgs) == 0 {
		return nil
	}
	return cm.conversationRepo.AddMessage(ctx, sessionID, msgs...)
}

// SaveResponse appends an assistant turn produced outside the graph.
func (cm *MessagesManager) SaveResponse(ctx context.Context, sessionID string, content string) error {
	return cm.SaveTurn(ctx, sessionID, nil, content)
}

// ClearHistory drops the stored turns of a session.
func (cm *MessagesManager) ClearHistory(ctx context.Context, sessionID string) error {
	return cm.conversationRepo.ClearHistory(ctx, sessionID)
}

// trimTail keeps the last maxTurns messages; maxTurns <= 0 keeps everything.
func trimTail(messages []*schema.Message, maxTurns int) []*schema.Message {
	source := messages
	if maxTurns > 0 && len(messages) > maxTurns {
		source = messages[len(messages)-maxTurns:]
	}
	result := make([]*schema.Message, 0, len(source))
	for _, m := range source {
		if m != nil {
			result = append(result, m)
		}
	}
	return result
}
