package observers

import (
	"context"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/prompt"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"

	logx "github.com/maleon-core-poc/server/pkg/logger"
)

// newPromptHandler logs rendered prompt sizes; contents stay out of the log
// because they embed the whole knowledge corpus.
func newPromptHandler() *callbackHelper.PromptCallbackHandler {
	return &callbackHelper.PromptCallbackHandler{
		OnEnd: func(ctx context.Context, info *einocb.RunInfo, output *prompt.CallbackOutput) context.Context {
			size := 0
			if output != nil {
				for _, m := range output.Result {
					if m != nil {
						size += len(m.Content)
					}
				}
			}
			logx.Debug().Str("name", info.Name).Int("bytes", size).Msg("prompt rendered")
			return ctx
		},
		OnError: func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			logx.Error().Err(err).Str("name", info.Name).Msg("prompt render failed")
			return ctx
		},
	}
}
