package dispatch

import (
	"context"
	"math/rand/v2"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maleon-core-poc/server/internal/agent"
	"github.com/maleon-core-poc/server/internal/agent/agenttest"
	"github.com/maleon-core-poc/server/internal/agent/graph"
	"github.com/maleon-core-poc/server/internal/agent/graph/conversations"
	"github.com/maleon-core-poc/server/internal/agent/graph/nodes"
	"github.com/maleon-core-poc/server/internal/agent/graph/tools"
	"github.com/maleon-core-poc/server/internal/agent/knowledge"
	"github.com/maleon-core-poc/server/internal/agent/model"
	"github.com/maleon-core-poc/server/internal/agent/repo"
	"github.com/maleon-core-poc/server/internal/cache"
	"github.com/maleon-core-poc/server/internal/intel"
	"github.com/maleon-core-poc/server/internal/session"
)

func TestSessionIsolationWithSharedCache(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	persona := &agenttest.ChatModel{Reply: func(in []*schema.Message) (*schema.Message, error) {
		last := in[len(in)-1].Content
		if strings.Contains(strings.ToLower(last), "servicios") {
			return schema.AssistantMessage("", []schema.ToolCall{{
				ID:       "call_1",
				Function: schema.FunctionCall{Name: tools.ToolSearchServices, Arguments: `{"muni":"Hocaba"}`},
			}}), nil
		}
		return schema.AssistantMessage("¡Hola nené! ¿Qué tal?", nil), nil
	}}
	analyst := agenttest.Text("Diagnóstico. Estrategia. Conclusión.")

	history := repo.NewMemoryConversationRepository(time.Hour)
	mm := conversations.NewMessagesManager(history, model.ConversationConfig{})
	runner, err := graph.NewRunner(ctx, &graph.GraphConfig{
		ChatModels:      &nodes.ChatModels{Persona: persona, Analyst: analyst},
		MessagesManager: mm,
		Knowledge:       knowledge.New(nil, ""),
		Renderer:        &agenttest.Renderer{Path: "/static/reportes/reporte_x.pdf"},
	})
	require.NoError(t, err)

	registry := session.NewRegistry(session.Config{TTL: time.Hour}, agent.NewFactory(runner, mm))
	responses, err := cache.New(ctx, cache.NewFileStore(filepath.Join(t.TempDir(), "cache.json")),
		cache.Config{FreshProbability: 1}, cache.WithRand(rand.New(rand.NewPCG(3, 5))))
	require.NoError(t, err)

	d := New(Config{}, nil, responses, func(id string) Session { return registry.Get(id) },
		newLookups(fixedClassifier{label: "Alto"}), nil)

	question := "¿Cómo andan los servicios en Hocabá?"
	respA := d.Handle(ctx, ChatRequest{Text: question, SessionID: "a"})
	assert.Equal(t, "Mira nene, en Hocabá la situación es Prioridad Alta. Ya lo anoté.", respA.Reply)

	respB := d.Handle(ctx, ChatRequest{Text: "hola", SessionID: "b"})
	assert.Equal(t, "¡Hola nené! ¿Qué tal?", respB.Reply)

	a, b := registry.Get("a"), registry.Get("b")
	assert.Equal(t, "Situación: Prioridad Alta - Desabasto: 7.0", a.Findings()[string(intel.PillarServices)])
	assert.Equal(t, agent.NotAnalyzed, b.Findings()[string(intel.PillarServices)])

	histA, err := history.LoadHistory(ctx, "a")
	require.NoError(t, err)
	require.Len(t, histA.Messages, 2)
	assert.Equal(t, schema.User, histA.Messages[0].Role)
	assert.Equal(t, respA.Reply, histA.Messages[1].Content)

	histB, err := history.LoadHistory(ctx, "b")
	require.NoError(t, err)
	require.Len(t, histB.Messages, 2)
	assert.Equal(t, "hola", histB.Messages[0].Content)

	// b asks a's question: the shared cache key gains a variant, but b's own
	// agent produced it and only b's findings change
	respB2 := d.Handle(ctx, ChatRequest{Text: question, SessionID: "b"})
	assert.Equal(t, respA.Reply, respB2.Reply)
	assert.Len(t, responses.Replies(question), 2)
	assert.Equal(t, "Situación: Prioridad Alta - Desabasto: 7.0", b.Findings()[string(intel.PillarServices)])
	assert.Equal(t, 2, registry.Len())
}
