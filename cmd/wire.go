package cmd

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"google.golang.org/genai"

	"github.com/maleon-core-poc/server/internal/agent"
	"github.com/maleon-core-poc/server/internal/agent/graph"
	"github.com/maleon-core-poc/server/internal/agent/graph/conversations"
	"github.com/maleon-core-poc/server/internal/agent/graph/nodes"
	"github.com/maleon-core-poc/server/internal/agent/knowledge"
	"github.com/maleon-core-poc/server/internal/agent/model"
	"github.com/maleon-core-poc/server/internal/agent/repo"
	"github.com/maleon-core-poc/server/internal/cache"
	"github.com/maleon-core-poc/server/internal/dispatch"
	"github.com/maleon-core-poc/server/internal/httpapi"
	"github.com/maleon-core-poc/server/internal/intel"
	"github.com/maleon-core-poc/server/internal/report"
	"github.com/maleon-core-poc/server/internal/session"
	"github.com/maleon-core-poc/server/internal/speech"
	logx "github.com/maleon-core-poc/server/pkg/logger"
)

// app is everything serve needs, built once from AppConfig.
type app struct {
	cfg      *AppConfig
	rdb      *goredis.Client
	cache    *cache.Cache
	sessions *session.Registry[*agent.Agent]
	handler  *httpapi.ChatHandlers
	mounts   httpapi.Mounts
}

func (a *app) Close() {
	if err := a.cache.Close(); err != nil {
		logx.Error().Err(err).Msg("flush reply cache")
	}
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
}

// connectRedis returns nil when Redis is not configured.
func connectRedis(ctx context.Context, cfg *AppConfig) (*goredis.Client, error) {
	if !cfg.Redis.Enabled() {
		logx.Info().Msg("REDIS_URL not set; using in-memory history and file cache")
		return nil, nil
	}
	rdb, err := cfg.Redis.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialise redis client: %w", err)
	}
	logx.Info().Msg("Connected to Redis successfully")
	return rdb, nil
}

func newCacheStore(cfg *AppConfig, rdb *goredis.Client) cache.Store {
	if rdb != nil && cfg.CacheStore.RedisPrefix != "" {
		return cache.NewRedisStore(rdb, cfg.CacheStore.RedisPrefix)
	}
	return cache.NewFileStore(cfg.CacheStore.File)
}

func newConversationRepo(cfg *AppConfig, rdb *goredis.Client) (model.ConversationRepository, error) {
	ttl, err := cfg.conversationTTL()
	if err != nil {
		return nil, err
	}
	if rdb != nil {
		return repo.NewRedisConversationRepository(rdb, ttl), nil
	}
	return repo.NewMemoryConversationRepository(ttl), nil
}

// newLookups loads the reference tables. A missing table degrades to an
// empty one so the rest of the assistant keeps working.
func newLookups(cfg DataConfig) *intel.Service {
	services, err := intel.LoadServiceTable(cfg.ServicesCSV, cfg.ServicesEncoding)
	if err != nil {
		logx.Warn().Err(err).Msg("services table unavailable")
	}
	security, err := intel.LoadSecurityTable(cfg.SecurityCSV, cfg.SecurityEncoding)
	if err != nil {
		logx.Warn().Err(err).Msg("security table unavailable")
	}

	var classifier intel.Classifier
	if cfg.ClassifierURL != "" {
		classifier = intel.NewHTTPClassifier(cfg.ClassifierURL, cfg.ClassifierTimeout)
	} else {
		logx.Warn().Msg("CLASSIFIER_URL not set; growth predictions are disabled")
	}
	return intel.NewService(services, security, classifier, cfg.ResolveThreshold)
}

func wireApp(ctx context.Context, cfg *AppConfig) (*app, error) {
	if cfg.APIKey == "" {
		return nil, errMissingAPIKey
	}

	rdb, err := connectRedis(ctx, cfg)
	if err != nil {
		return nil, err
	}
	closeRedis := func() {
		if rdb != nil {
			_ = rdb.Close()
		}
	}

	replies, err := cache.New(ctx, newCacheStore(cfg, rdb), cfg.Cache)
	if err != nil {
		closeRedis()
		return nil, fmt.Errorf("load reply cache: %w", err)
	}

	a, err := wireAgent(ctx, cfg, rdb, replies)
	if err != nil {
		_ = replies.Close()
		closeRedis()
		return nil, err
	}
	return a, nil
}

func wireAgent(ctx context.Context, cfg *AppConfig, rdb *goredis.Client, replies *cache.Cache) (*app, error) {
	convRepo, err := newConversationRepo(cfg, rdb)
	if err != nil {
		return nil, err
	}

	client, err := nodes.NewGenaiClient(ctx, cfg.APIKey, cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	renderer, err := report.NewPDFRenderer(cfg.Report)
	if err != nil {
		return nil, err
	}

	runner, err := graph.BuildAgentGraph(ctx, graph.Config{
		Client:           client,
		PersonaModel:     cfg.Persona,
		AnalystModel:     cfg.Analyst,
		Conversation:     cfg.Conversation,
		ConversationRepo: convRepo,
		Knowledge:        knowledge.Load(cfg.Knowledge.VIPFile, cfg.Knowledge.KnowledgeGlob),
		Renderer:         renderer,
		Links:            cfg.Links,
	})
	if err != nil {
		return nil, fmt.Errorf("build agent graph: %w", err)
	}

	messages := conversations.NewMessagesManager(convRepo, cfg.Conversation)
	registry := session.NewRegistry(cfg.Session, agent.NewFactory(runner, messages),
		session.WithOnEvict(func(_ string, a *agent.Agent) {
			forgetCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			a.Forget(forgetCtx)
		}))

	speaker, err := newSpeaker(client, cfg.Speech)
	if err != nil {
		return nil, err
	}

	dispatcher := dispatch.New(
		cfg.Dispatch,
		dispatch.NewKeywordPolicy(cfg.Dispatch),
		replies,
		func(id string) dispatch.Session { return registry.Get(id) },
		newLookups(cfg.Data),
		speaker,
	)

	return &app{
		cfg:      cfg,
		rdb:      rdb,
		cache:    replies,
		sessions: registry,
		handler:  &httpapi.ChatHandlers{Chat: dispatcher},
		mounts: httpapi.Mounts{
			StaticDir: cfg.Report.StaticDir,
			AudioDir:  cfg.Speech.AudioDir,
			AvatarDir: cfg.HTTP.AvatarDir,
		},
	}, nil
}

// newSpeaker returns a nil interface when speech is disabled so the
// dispatcher answers without audio.
func newSpeaker(client *genai.Client, cfg speech.Config) (dispatch.Speaker, error) {
	if !cfg.Enabled {
		logx.Info().Msg("TTS disabled")
		return nil, nil
	}
	speaker, err := speech.NewSpeaker(speech.NewGeminiSynthesizer(client, cfg), cfg)
	if err != nil {
		return nil, err
	}
	return speaker, nil
}
