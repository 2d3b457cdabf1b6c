package nodes

import (
	"context"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/maleon-core-poc/server/internal/agent/model"
	logx "github.com/maleon-core-poc/server/pkg/logger"
)

const (
	NodeRouter       = "router"
	NodeReportWriter = "report_writer"
	NodeMapLinker    = "map_linker"
	NodeChatPrompt   = "chat_prompt"
	NodeChatModel    = "chat_model"
	NodeChatResult   = "chat_result"
)

// recordUsage logs the usage cost of one model answer and adds it to the
// query's running total.
func recordUsage(state *model.AppState, node, modelName string, out *schema.Message) {
	if out == nil || out.ResponseMeta == nil || out.ResponseMeta.Usage == nil {
		return
	}
	usage := out.ResponseMeta.Usage
	inC, outC, totalC := model.ComputeCost(usage, model.ResolvePricing(modelName))
	state.TotalCostUSD += totalC
	logx.Debug().
		Str("session_id", state.SessionID).
		Str("node", node).
		Str("model", modelName).
		Int("prompt_tokens", usage.PromptTokens).
		Int("completion_tokens", usage.CompletionTokens).
		Int("total_tokens", usage.TotalTokens).
		Float64("input_cost_usd", inC).
		Float64("output_cost_usd", outC).
		Float64("total_cost_usd", totalC).
		Float64("query_cost_usd", state.TotalCostUSD).
		Msg("LLM usage")
}

// recordUsageInLambda is recordUsage for nodes that call a model directly.
func recordUsageInLambda(ctx context.Context, node, modelName string, out *schema.Message) {
	_ = compose.ProcessState(ctx, func(_ context.Context, state *model.AppState) error {
		recordUsage(state, node, modelName, out)
		return nil
	})
}
