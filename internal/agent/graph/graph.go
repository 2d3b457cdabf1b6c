package graph

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	"google.golang.org/genai"

	"github.com/maleon-core-poc/server/internal/agent/graph/conversations"
	"github.com/maleon-core-poc/server/internal/agent/graph/nodes"
	"github.com/maleon-core-poc/server/internal/agent/graph/observers"
	"github.com/maleon-core-poc/server/internal/agent/graph/tools"
	"github.com/maleon-core-poc/server/internal/agent/knowledge"
	"github.com/maleon-core-poc/server/internal/agent/model"
	logx "github.com/maleon-core-poc/server/pkg/logger"
)

// Runner executes the compiled agent graph for one message.
type Runner interface {
	Invoke(ctx context.Context, in model.QueryInput) (*model.AgentOutput, error)
}

// Config holds everything needed to compose the agent graph end-to-end.
// It is a convenience layer over GraphConfig that also constructs the
// ChatModels and the MessagesManager.
type Config struct {
	Client           *genai.Client
	PersonaModel     model.ChatModelConfig
	AnalystModel     model.AnalystModelConfig
	Conversation     model.ConversationConfig
	ConversationRepo model.ConversationRepository
	Knowledge        *knowledge.Base
	Renderer         model.DocumentRenderer
	Links            model.LinksConfig
}

// GraphConfig holds all configuration needed to build the graph
type GraphConfig struct {
	ChatModels      *nodes.ChatModels
	MessagesManager *conversations.MessagesManager
	Knowledge       *knowledge.Base
	Renderer        model.DocumentRenderer
	Links           model.LinksConfig
}

// GraphBuilder handles the construction of the agent graph
type GraphBuilder struct {
	config *GraphConfig
	graph  *compose.Graph[model.QueryInput, *model.AgentOutput]
}

type graphRunner struct {
	runnable compose.Runnable[model.QueryInput, *model.AgentOutput]
}

func (r *graphRunner) Invoke(ctx context.Context, in model.QueryInput) (*model.AgentOutput, error) {
	out, err := r.runnable.Invoke(ctx, in, compose.WithCallbacks(observers.NewAllCallbacks()))
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, fmt.Errorf("graph returned no output")
	}
	return out, nil
}

// BuildAgentGraph creates the Gemini chat models and MessagesManager, builds
// the graph and returns a Runner.
func BuildAgentGraph(ctx context.Context, cfg Config) (Runner, error) {
	if cfg.ConversationRepo == nil {
		return nil, fmt.Errorf("conversation repo is nil")
	}

	cms, err := nodes.NewChatModels(ctx, cfg.Client, nodes.ChatModelConfig{
		PersonaConfig: &cfg.PersonaModel,
		AnalystConfig: &cfg.AnalystModel,
	})
	if err != nil {
		return nil, err
	}

	return NewRunner(ctx, &GraphConfig{
		ChatModels:      cms,
		MessagesManager: conversations.NewMessagesManager(cfg.ConversationRepo, cfg.Conversation),
		Knowledge:       cfg.Knowledge,
		Renderer:        cfg.Renderer,
		Links:           cfg.Links,
	})
}

// NewRunner builds and compiles the graph from prepared components.
func NewRunner(ctx context.Context, config *GraphConfig) (Runner, error) {
	runnable, err := BuildGraph(ctx, config)
	if err != nil {
		return nil, err
	}
	logx.Debug().Msg("Agent graph built successfully")
	return &graphRunner{runnable: runnable}, nil
}

// BuildGraph constructs and returns the compiled agent graph
func BuildGraph(ctx context.Context, config *GraphConfig) (compose.Runnable[model.QueryInput, *model.AgentOutput], error) {
	if config == nil {
		return nil, fmt.Errorf("graph config is nil")
	}
	if config.ChatModels == nil || config.ChatModels.Persona == nil || config.ChatModels.Analyst == nil {
		return nil, fmt.Errorf("chat models are not properly initialized")
	}
	if config.MessagesManager == nil {
		return nil, fmt.Errorf("messages manager is nil")
	}
	if config.Renderer == nil {
		return nil, fmt.Errorf("document renderer is nil")
	}
	if config.Knowledge == nil {
		config.Knowledge = knowledge.New(nil, "")
	}

	builder := &GraphBuilder{
		config: config,
		graph: compose.NewGraph[model.QueryInput, *model.AgentOutput](
			compose.WithGenLocalState(func(ctx context.Context) *model.AppState {
				return &model.AppState{}
			}),
		),
	}

	if err := builder.setupTools(); err != nil {
		return nil, err
	}
	if err := builder.addNodes(); err != nil {
		return nil, err
	}
	if err := builder.addEdges(); err != nil {
		return nil, err
	}
	if err := builder.addBranches(); err != nil {
		return nil, err
	}

	return builder.compile(ctx)
}

// setupTools binds the lookup schemas to the persona model. The graph has no
// tools node: a tool call ends the run and the dispatcher executes it.
func (b *GraphBuilder) setupTools() error {
	if err := b.config.ChatModels.BindToolsToPersonaModel(tools.ToolInfos()); err != nil {
		logx.Error().Err(err).Msg("Failed to bind tools to persona model")
		return fmt.Errorf("failed to bind tools to persona model: %w", err)
	}
	return nil
}

// addNodes adds all processing nodes to the graph
func (b *GraphBuilder) addNodes() error {
	cms := b.config.ChatModels
	mm := b.config.MessagesManager

	steps := []func() error{
		func() error {
			return b.graph.AddLambdaNode(nodes.NodeRouter, nodes.NewRouterNode(),
				compose.WithStatePreHandler(nodes.NewRouterPreHandler()),
			)
		},
		func() error {
			return b.graph.AddLambdaNode(nodes.NodeReportWriter,
				nodes.NewReportWriterNode(mm, b.config.Knowledge, cms.Analyst, cms.AnalystModelName, b.config.Renderer),
			)
		},
		func() error {
			return b.graph.AddLambdaNode(nodes.NodeMapLinker, nodes.NewMapLinkerNode(b.config.Links))
		},
		func() error {
			return b.graph.AddLambdaNode(nodes.NodeChatPrompt, nodes.NewChatPromptNode(mm, b.config.Knowledge))
		},
		func() error {
			return b.graph.AddChatModelNode(nodes.NodeChatModel, cms.Persona,
				compose.WithStatePostHandler(nodes.NewChatModelPostHandler(mm, cms.PersonaModelName)),
			)
		},
		func() error {
			return b.graph.AddLambdaNode(nodes.NodeChatResult, nodes.NewChatResultNode())
		},
	}
	for _, step := range steps {
		if err := step(); err != nil {
			logx.Error().Err(err).Msg("Error adding graph node")
			return fmt.Errorf("error adding graph node: %w", err)
		}
	}
	return nil
}

// addEdges creates the main flow connections between nodes
func (b *GraphBuilder) addEdges() error {
	edges := [][2]string{
		{compose.START, nodes.NodeRouter},
		{nodes.NodeReportWriter, compose.END},
		{nodes.NodeMapLinker, compose.END},
		{nodes.NodeChatPrompt, nodes.NodeChatModel},
		{nodes.NodeChatModel, nodes.NodeChatResult},
		{nodes.NodeChatResult, compose.END},
	}

	for _, edge := range edges {
		if err := b.graph.AddEdge(edge[0], edge[1]); err != nil {
			logx.Error().Err(err).Str("from", edge[0]).Str("to", edge[1]).Msg("Error adding graph edge")
			return fmt.Errorf("error adding edge %s->%s: %w", edge[0], edge[1], err)
		}
	}
	return nil
}

// addBranches creates the route branch after the router
func (b *GraphBuilder) addBranches() error {
	routeBranch := compose.NewGraphBranch(
		nodes.NewRouteCondition(),
		map[string]bool{
			nodes.NodeReportWriter: true,
			nodes.NodeMapLinker:    true,
			nodes.NodeChatPrompt:   true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeRouter, routeBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding route branch")
		return fmt.Errorf("error adding route branch: %w", err)
	}
	return nil
}

// compile finalizes and compiles the graph
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[model.QueryInput, *model.AgentOutput], error) {
	runnable, err := b.graph.Compile(ctx, compose.WithGraphName("maleon_agent"), compose.WithMaxRunSteps(10))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Msg("Graph compiled successfully")
	return runnable, nil
}
