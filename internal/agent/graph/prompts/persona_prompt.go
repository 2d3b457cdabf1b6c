package prompts

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/maleon-core-poc/server/internal/agent/graph/tools"
)

//go:embed template/persona_prompt.txt
var personaSystemPrompt string

// PersonaVars are the values the persona system prompt is rendered with.
type PersonaVars struct {
	VIPTable  string
	Knowledge string
}

// RenderPersonaSystem renders the persona system prompt via the Eino prompt
// component so prompt callbacks fire.
func RenderPersonaSystem(ctx context.Context, v PersonaVars) (string, error) {
	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(personaSystemPrompt),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"VIPTable":     v.VIPTable,
		"Knowledge":    v.Knowledge,
		"GrowthTool":   tools.ToolPredictGrowth,
		"SecurityTool": tools.ToolCheckSecurity,
		"ServicesTool": tools.ToolSearchServices,
	})
	if err != nil {
		return "", fmt.Errorf("persona prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("persona prompt render: empty result")
	}
	return msgs[0].Content, nil
}
