package nodes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/maleon-core-poc/server/internal/agent/graph/conversations"
	"github.com/maleon-core-poc/server/internal/agent/graph/prompts"
	"github.com/maleon-core-poc/server/internal/agent/knowledge"
	"github.com/maleon-core-poc/server/internal/agent/model"
	logx "github.com/maleon-core-poc/server/pkg/logger"
)

// ErrEmptyReply is returned when the persona model answers with neither text
// nor a tool call.
var ErrEmptyReply = errors.New("persona model returned an empty reply")

// NewRouterPreHandler resets the per-query state.
func NewRouterPreHandler() func(context.Context, model.QueryInput, *model.AppState) (model.QueryInput, error) {
	return func(ctx context.Context, in model.QueryInput, s *model.AppState) (model.QueryInput, error) {
		s.SessionID = in.SessionID
		s.PendingUser = nil
		s.TotalCostUSD = 0
		return in, nil
	}
}

// NewRouterNode classifies the message into report, map or chat.
func NewRouterNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.QueryInput) (model.RoutedQuery, error) {
		route := Classify(in.Text)
		logx.Debug().Str("session_id", in.SessionID).Str("route", route).Msg("Routing message")
		return model.RoutedQuery{QueryInput: in, Route: route}, nil
	})
}

// NewRouteCondition maps a route to the node handling it.
func NewRouteCondition() func(context.Context, model.RoutedQuery) (string, error) {
	return func(ctx context.Context, in model.RoutedQuery) (string, error) {
		switch in.Route {
		case RouteReport:
			return NodeReportWriter, nil
		case RouteSecurityMap, RouteServicesMap:
			return NodeMapLinker, nil
		default:
			return NodeChatPrompt, nil
		}
	}
}

// NewReportWriterNode asks the analyst model for a long-form report and
// renders it. Every failure becomes a fixed reply; the node never errors.
func NewReportWriterNode(
	mm *conversations.MessagesManager,
	kb *knowledge.Base,
	analyst einomodel.BaseChatModel,
	analystModelName string,
	renderer model.DocumentRenderer,
) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.RoutedQuery) (*model.AgentOutput, error) {
		out := &model.AgentOutput{Route: in.Route}
		if len(strings.Fields(in.Text)) < 3 {
			out.Text = ReplyReportClarify
			return out, nil
		}

		utterances, err := mm.RecentUtterances(ctx, in.SessionID)
		if err != nil {
			logx.Warn().Err(err).Str("session_id", in.SessionID).Msg("Report without conversation history")
		}

		msgs, err := prompts.RenderReport(ctx, prompts.ReportVars{
			VIPTable:   kb.VIPTableJSON(),
			Knowledge:  kb.Corpus(),
			Utterances: utterances,
			Findings:   in.Findings,
			Request:    in.Text,
		})
		if err != nil {
			logx.Error().Err(err).Str("session_id", in.SessionID).Msg("Error rendering report prompt")
			out.Text = ReplyReportStuck
			return out, nil
		}

		resp, err := analyst.Generate(ctx, msgs)
		if err != nil {
			logx.Error().Err(err).Str("session_id", in.SessionID).Msg("Analyst model failed")
			out.Text = ReplyReportStuck
			return out, nil
		}
		recordUsageInLambda(ctx, NodeReportWriter, analystModelName, resp)

		body := ""
		if resp != nil {
			body = strings.TrimSpace(resp.Content)
		}
		if body == "" || strings.Contains(strings.ToLower(body), "no puedo") {
			logx.Warn().Str("session_id", in.SessionID).Msg("Analyst refused or returned nothing; using fallback report")
			body = FallbackReport
		}

		path, err := renderer.Render(ctx, model.Document{
			Title:        ReportTitle(in.Text),
			Body:         body,
			IncludeChart: IncludeChart(in.Text),
		})
		if err != nil || path == "" {
			logx.Error().Err(err).Str("session_id", in.SessionID).Msg("Error rendering report document")
			out.Text = ReplyReportPDFError
			return out, nil
		}

		logx.Info().Str("session_id", in.SessionID).Str("path", path).Msg("Report generated")
		out.Text = ReportReadyReply(path)
		return out, nil
	})
}

// NewMapLinkerNode answers map requests with a static link.
func NewMapLinkerNode(links model.LinksConfig) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.RoutedQuery) (*model.AgentOutput, error) {
		out := &model.AgentOutput{Route: in.Route}
		switch in.Route {
		case RouteSecurityMap:
			out.Text = SecurityMapReply(links.SecurityMap)
		case RouteServicesMap:
			out.Text = ServicesMapReply(links.ServicesMap)
		default:
			return nil, fmt.Errorf("map linker got route %q", in.Route)
		}
		return out, nil
	})
}

// AnnotateUserText appends the VIP and time markers the persona prompt expects.
func AnnotateUserText(kb *knowledge.Base, text, userTime string) string {
	var b strings.Builder
	b.WriteString(text)
	if vip, ok := kb.DetectVIP(text); ok {
		b.WriteString("\n[VIP: " + vip.Name + "]")
	}
	if userTime != "" {
		b.WriteString(" [Hora: " + userTime + "]")
	}
	return b.String()
}

// NewChatPromptNode builds the persona context: system prompt, history and
// the annotated user turn, which stays pending until the model answers.
func NewChatPromptNode(mm *conversations.MessagesManager, kb *knowledge.Base) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.RoutedQuery) ([]*schema.Message, error) {
		systemPrompt, err := prompts.RenderPersonaSystem(ctx, prompts.PersonaVars{
			VIPTable:  kb.VIPTableJSON(),
			Knowledge: kb.Corpus(),
		})
		if err != nil {
			return nil, err
		}

		pending := schema.UserMessage(AnnotateUserText(kb, in.Text, in.Time))
		messages, err := mm.BuildChatContext(ctx, in.SessionID, systemPrompt, pending)
		if err != nil {
			return nil, fmt.Errorf("build chat context: %w", err)
		}

		if err := compose.ProcessState(ctx, func(_ context.Context, state *model.AppState) error {
			state.PendingUser = pending
			return nil
		}); err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}
		return messages, nil
	})
}

// NewChatModelPostHandler logs usage, names tool calls and persists the turn.
// A text answer stores user and assistant turns; a tool call stores only the
// user turn because the dispatcher records the scripted answer.
func NewChatModelPostHandler(
	mm *conversations.MessagesManager,
	modelName string,
) func(context.Context, *schema.Message, *model.AppState) (*schema.Message, error) {
	return func(ctx context.Context, out *schema.Message, state *model.AppState) (*schema.Message, error) {
		if out == nil {
			return nil, ErrEmptyReply
		}
		recordUsage(state, NodeChatModel, modelName, out)

		assistant := ""
		if len(out.ToolCalls) > 0 {
			for i := range out.ToolCalls {
				if strings.TrimSpace(out.ToolCalls[i].ID) == "" {
					out.ToolCalls[i].ID = fmt.Sprintf("call_%d", i+1)
				}
			}
			logx.Debug().Str("session_id", state.SessionID).Str("tool", out.ToolCalls[0].Function.Name).Msg("Model requested a lookup")
		} else {
			assistant = strings.TrimSpace(out.Content)
			if assistant == "" {
				return nil, ErrEmptyReply
			}
		}

		if err := mm.SaveTurn(ctx, state.SessionID, state.PendingUser, assistant); err != nil {
			logx.Error().Err(err).Str("session_id", state.SessionID).Msg("Error saving conversation turn")
		}
		state.PendingUser = nil
		return out, nil
	}
}

// NewChatResultNode converts the persona answer into the agent output.
func NewChatResultNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, msg *schema.Message) (*model.AgentOutput, error) {
		out := &model.AgentOutput{Route: RouteChat}
		if len(msg.ToolCalls) > 0 {
			call := msg.ToolCalls[0]
			out.Tool = &model.ToolInvocation{
				ID:        call.ID,
				Name:      call.Function.Name,
				Arguments: call.Function.Arguments,
			}
			return out, nil
		}
		out.Text = strings.TrimSpace(msg.Content)
		return out, nil
	})
}
