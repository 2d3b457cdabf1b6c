package model

import (
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
)

func TestAgentOutputReply(t *testing.T) {
	t.Parallel()

	var nilOut *AgentOutput
	assert.Equal(t, TextReply{}, nilOut.Reply())

	text := (&AgentOutput{Text: "hola"}).Reply()
	assert.Equal(t, TextReply{Text: "hola"}, text)

	call := (&AgentOutput{Tool: &ToolInvocation{Name: "buscar_servicios", Arguments: `{"muni":"Hocabá"}`}}).Reply()
	inv, ok := call.(ToolInvocation)
	assert.True(t, ok)
	assert.Equal(t, "buscar_servicios", inv.Name)
}

func TestUserUtterances(t *testing.T) {
	t.Parallel()

	h := &ConversationHistory{Messages: []*schema.Message{
		schema.UserMessage("uno"),
		schema.AssistantMessage("respuesta", nil),
		schema.UserMessage("dos"),
		nil,
		schema.UserMessage("tres"),
	}}
	assert.Equal(t, []string{"dos", "tres"}, h.UserUtterances(2))
	assert.Equal(t, []string{"uno", "dos", "tres"}, h.UserUtterances(0))
}

func TestComputeCost(t *testing.T) {
	t.Parallel()

	in, out, total := ComputeCost(&schema.TokenUsage{PromptTokens: 1_000_000, CompletionTokens: 2_000_000}, ResolvePricing("gemini-2.5-flash"))
	assert.InDelta(t, 0.30, in, 1e-9)
	assert.InDelta(t, 5.00, out, 1e-9)
	assert.InDelta(t, 5.30, total, 1e-9)

	_, _, total = ComputeCost(nil, Pricing{InputPerM: 1})
	assert.Zero(t, total)
	assert.Equal(t, Pricing{}, ResolvePricing("unknown"))
}
