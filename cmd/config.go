package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/maleon-core-poc/server/internal/agent/model"
	"github.com/maleon-core-poc/server/internal/cache"
	"github.com/maleon-core-poc/server/internal/core"
	"github.com/maleon-core-poc/server/internal/dispatch"
	"github.com/maleon-core-poc/server/internal/httpapi"
	"github.com/maleon-core-poc/server/internal/report"
	"github.com/maleon-core-poc/server/internal/session"
	"github.com/maleon-core-poc/server/internal/speech"
	logx "github.com/maleon-core-poc/server/pkg/logger"
	pkgredis "github.com/maleon-core-poc/server/pkg/redis"
)

// AppConfig defines every configurable parameter of the server, sourced from
// environment variables (loaded from .env for local runs).
type AppConfig struct {
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL"`

	// Infrastructure
	Redis pkgredis.Config
	HTTP  httpapi.Config

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Agent configs
	Persona      model.ChatModelConfig
	Analyst      model.AnalystModelConfig
	Conversation model.ConversationConfig
	Knowledge    model.KnowledgeConfig
	Links        model.LinksConfig

	Cache      cache.Config
	CacheStore CacheStoreConfig
	Session    session.Config
	Dispatch   dispatch.Config
	Speech     speech.Config
	Report     report.Config
	Data       DataConfig
}

// CacheStoreConfig picks where the reply cache persists. The Redis prefix is used
// only when Redis itself is configured.
type CacheStoreConfig struct {
	File        string `envconfig:"CACHE_FILE" default:"cache_inteligente.json"`
	RedisPrefix string `envconfig:"CACHE_REDIS_PREFIX"`
}

// DataConfig locates the reference tables and the growth classifier.
type DataConfig struct {
	ServicesCSV       string        `envconfig:"SERVICES_CSV" default:"data/prioridades_yucatan_maleon.csv"`
	ServicesEncoding  string        `envconfig:"SERVICES_CSV_ENCODING" default:"latin-1"`
	SecurityCSV       string        `envconfig:"SECURITY_CSV" default:"data/seguridad_municipios_maleon.csv"`
	SecurityEncoding  string        `envconfig:"SECURITY_CSV_ENCODING" default:"utf-8"`
	ResolveThreshold  int           `envconfig:"RESOLVE_THRESHOLD" default:"70"`
	ClassifierURL     string        `envconfig:"CLASSIFIER_URL"`
	ClassifierTimeout time.Duration `envconfig:"CLASSIFIER_TIMEOUT" default:"10s"`
}

var errMissingAPIKey = errors.New("GEMINI_API_KEY is required")

// loadConfig reads .env (when present) and the process environment, then
// initialises the logger for the configured environment.
func loadConfig(envFile string) (*AppConfig, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			logx.Debug().Err(err).Str("file", envFile).Msg("no env file loaded")
		}
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process environment config: %w", err)
	}

	logx.Init(logx.LoggerOpts{
		Environment: core.ParseEnvironment(cfg.Env),
		Level:       cfg.LogLevel,
	})
	return &cfg, nil
}

func (c *AppConfig) conversationTTL() (time.Duration, error) {
	ttl, err := time.ParseDuration(c.Conversation.TTL)
	if err != nil {
		return 0, fmt.Errorf("invalid CONVERSATION_TTL %q: %w", c.Conversation.TTL, err)
	}
	return ttl, nil
}
