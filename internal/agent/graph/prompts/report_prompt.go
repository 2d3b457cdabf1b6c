package prompts

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed template/report_prompt.txt
var reportPrompt string

// ReportVars feed the one-shot analyst prompt.
type ReportVars struct {
	VIPTable   string
	Knowledge  string
	Utterances []string
	Findings   map[string]string
	Request    string
}

// RenderReport returns the single user message sent to the analyst model.
func RenderReport(ctx context.Context, v ReportVars) ([]*schema.Message, error) {
	findings, err := json.Marshal(v.Findings)
	if err != nil {
		return nil, fmt.Errorf("report prompt findings: %w", err)
	}
	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.UserMessage(reportPrompt),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"VIPTable":   v.VIPTable,
		"Knowledge":  v.Knowledge,
		"Utterances": v.Utterances,
		"Findings":   string(findings),
		"Request":    v.Request,
	})
	if err != nil {
		return nil, fmt.Errorf("report prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return nil, fmt.Errorf("report prompt render: empty result")
	}
	return msgs, nil
}
