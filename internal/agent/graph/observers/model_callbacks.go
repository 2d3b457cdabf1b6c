package observers

import (
	"context"
	"strings"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"

	logx "github.com/maleon-core-poc/server/pkg/logger"
)

// newModelHandler logs the user/assistant messages around model calls at debug level.
func newModelHandler() *callbackHelper.ModelCallbackHandler {
	return &callbackHelper.ModelCallbackHandler{
		OnStart: func(ctx context.Context, info *einocb.RunInfo, input *model.CallbackInput) context.Context {
			ev := logx.Debug().Str("component", string(info.Component)).Str("name", info.Name)
			if input != nil {
				ev = ev.Int("messages", len(input.Messages)).
					Str("user", lastUserContent(input.Messages)).
					Int("tools", len(input.Tools))
			}
			ev.Msg("model start")
			return ctx
		},
		OnEnd: func(ctx context.Context, info *einocb.RunInfo, output *model.CallbackOutput) context.Context {
			ev := logx.Debug().Str("component", string(info.Component)).Str("name", info.Name)
			if output != nil && output.Message != nil {
				ev = ev.Str("assistant", strings.TrimSpace(output.Message.Content)).
					Int("tool_calls", len(output.Message.ToolCalls))
				if output.TokenUsage != nil {
					ev = ev.Int("total_tokens", output.TokenUsage.TotalTokens)
				}
			}
			ev.Msg("model end")
			return ctx
		},
		OnError: func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			logx.Error().Err(err).Str("component", string(info.Component)).Str("name", info.Name).Msg("model error")
			return ctx
		},
	}
}

func lastUserContent(msgs []*schema.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		m := msgs[i]
		if m == nil {
			continue
		}
		if m.Role == schema.User {
			return strings.TrimSpace(m.Content)
		}
	}
	return ""
}
