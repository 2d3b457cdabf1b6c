// Package agenttest provides scripted chat models and renderers for tests
// that drive the agent graph without a model provider.
package agenttest

import (
	"context"
	"sync"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/maleon-core-poc/server/internal/agent/model"
)

// ChatModel answers with Reply and records every call.
type ChatModel struct {
	Reply func(input []*schema.Message) (*schema.Message, error)

	mu    sync.Mutex
	calls [][]*schema.Message
	tools []*schema.ToolInfo
}

// Text returns a model that always answers with content.
func Text(content string) *ChatModel {
	return &ChatModel{Reply: func([]*schema.Message) (*schema.Message, error) {
		return schema.AssistantMessage(content, nil), nil
	}}
}

// ToolCall returns a model that always requests the named tool.
func ToolCall(name, arguments string) *ChatModel {
	return &ChatModel{Reply: func([]*schema.Message) (*schema.Message, error) {
		return schema.AssistantMessage("", []schema.ToolCall{{
			ID:       "call_1",
			Function: schema.FunctionCall{Name: name, Arguments: arguments},
		}}), nil
	}}
}

// Failing returns a model whose every call fails with err.
func Failing(err error) *ChatModel {
	return &ChatModel{Reply: func([]*schema.Message) (*schema.Message, error) {
		return nil, err
	}}
}

func (m *ChatModel) Generate(ctx context.Context, input []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
	m.mu.Lock()
	m.calls = append(m.calls, input)
	m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.Reply(input)
}

func (m *ChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (m *ChatModel) BindTools(tools []*schema.ToolInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tools = tools
	return nil
}

// Calls is the number of Generate/Stream calls so far.
func (m *ChatModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// LastInput is the message list of the most recent call.
func (m *ChatModel) LastInput() []*schema.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return nil
	}
	return m.calls[len(m.calls)-1]
}

// Tools returns the schemas bound to the model.
func (m *ChatModel) Tools() []*schema.ToolInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tools
}

// Renderer records documents and returns Path (or Err).
type Renderer struct {
	Path string
	Err  error

	mu   sync.Mutex
	docs []model.Document
}

func (r *Renderer) Render(_ context.Context, doc model.Document) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs = append(r.docs, doc)
	if r.Err != nil {
		return "", r.Err
	}
	return r.Path, nil
}

// Documents returns every rendered document.
func (r *Renderer) Documents() []model.Document {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Document(nil), r.docs...)
}
