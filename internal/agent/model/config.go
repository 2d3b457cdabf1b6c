package model

// ================ Config ================
type ConversationConfig struct {
	TTL string `envconfig:"CONVERSATION_TTL" default:"30m"`
	// MaxTurns bounds the history sent to the persona model (0 = everything).
	MaxTurns int `envconfig:"CONVERSATION_MAX_TURNS" default:"40"`
	Report   struct {
		// RecentUtterances is how many user turns the report analyst sees.
		RecentUtterances int `envconfig:"REPORT_RECENT_UTTERANCES" default:"5"`
	}
}

// ChatModelConfig configures the tool-bound persona model.
type ChatModelConfig struct {
	Model          string  `envconfig:"CHAT_MODEL" default:"gemini-2.5-flash"`
	MaxTokens      int     `envconfig:"CHAT_MAX_TOKENS" default:"1024"`
	Temperature    float32 `envconfig:"CHAT_TEMPERATURE" default:"0.7"`
	ThinkingBudget int32   `envconfig:"CHAT_THINKING_BUDGET" default:"512"`
}

// AnalystModelConfig configures the one-shot report writer.
type AnalystModelConfig struct {
	Model          string  `envconfig:"ANALYST_MODEL" default:"gemini-2.5-flash"`
	MaxTokens      int     `envconfig:"ANALYST_MAX_TOKENS" default:"4096"`
	Temperature    float32 `envconfig:"ANALYST_TEMPERATURE" default:"0.3"`
	ThinkingBudget int32   `envconfig:"ANALYST_THINKING_BUDGET" default:"1024"`
}

// KnowledgeConfig points at the static reference data loaded at startup.
type KnowledgeConfig struct {
	VIPFile       string `envconfig:"VIP_FILE" default:"data/contexto/invitados_vip.json"`
	KnowledgeGlob string `envconfig:"KNOWLEDGE_GLOB" default:"data/conocimiento/*.txt"`
}

// LinksConfig holds the static links the agent hands out without a model call.
type LinksConfig struct {
	SecurityMap string `envconfig:"LINK_SECURITY_MAP" default:"/static/mapa_inteligencia_ssp.html"`
	ServicesMap string `envconfig:"LINK_SERVICES_MAP" default:"/static/mapa_desabasto_yucatan.html"`
}
