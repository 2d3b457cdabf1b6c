package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/maleon-core-poc/server/internal/agent/model"
	logx "github.com/maleon-core-poc/server/pkg/logger"
)

// ChatModelConfig holds the configuration for chat model creation
type ChatModelConfig struct {
	APIKey        string
	BaseURL       string
	PersonaConfig *model.ChatModelConfig
	AnalystConfig *model.AnalystModelConfig
}

// ChatModels holds the tool-bound persona model and the plain report analyst.
type ChatModels struct {
	Persona          einomodel.BaseChatModel
	Analyst          einomodel.BaseChatModel
	PersonaModelName string
	AnalystModelName string
}

// NewGenaiClient creates the Gemini API client shared by the chat models and
// the speech synthesizer.
func NewGenaiClient(ctx context.Context, apiKey, baseURL string) (*genai.Client, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		clientCfg.HTTPOptions.BaseURL = baseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}
	return client, nil
}

// NewChatModels creates the persona and analyst chat models on one Gemini client.
func NewChatModels(ctx context.Context, client *genai.Client, config ChatModelConfig) (*ChatModels, error) {
	if config.PersonaConfig == nil || config.AnalystConfig == nil {
		return nil, fmt.Errorf("chat model configs are nil")
	}

	persona, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.PersonaConfig.Model,
		Temperature: &config.PersonaConfig.Temperature,
		MaxTokens:   &config.PersonaConfig.MaxTokens,
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: false,
			ThinkingBudget:  genai.Ptr(config.PersonaConfig.ThinkingBudget),
		},
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating persona model")
		return nil, fmt.Errorf("error creating persona model: %w", err)
	}

	analyst, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.AnalystConfig.Model,
		Temperature: &config.AnalystConfig.Temperature,
		MaxTokens:   &config.AnalystConfig.MaxTokens,
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: false,
			ThinkingBudget:  genai.Ptr(config.AnalystConfig.ThinkingBudget),
		},
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating analyst model")
		return nil, fmt.Errorf("error creating analyst model: %w", err)
	}

	return &ChatModels{
		Persona:          persona,
		Analyst:          analyst,
		PersonaModelName: config.PersonaConfig.Model,
		AnalystModelName: config.AnalystConfig.Model,
	}, nil
}

// BindToolsToPersonaModel binds the lookup schemas to the persona model.
func (cm *ChatModels) BindToolsToPersonaModel(tools []*schema.ToolInfo) error {
	binder, ok := cm.Persona.(einomodel.ChatModel)
	if !ok {
		return fmt.Errorf("persona model %T cannot bind tools", cm.Persona)
	}
	if err := binder.BindTools(tools); err != nil {
		logx.Error().Err(err).Msg("Failed to bind tools")
		return fmt.Errorf("failed to bind tools: %w", err)
	}

	logx.Debug().Int("tools", len(tools)).Msg("Successfully bound tools to persona model")
	return nil
}
