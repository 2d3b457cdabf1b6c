package repo

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/cloudwego/eino/schema"
	"github.com/maleon-core-poc/server/internal/agent/model"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseRepository(t *testing.T, repo model.ConversationRepository) {
	t.Helper()
	ctx := context.Background()

	empty, err := repo.LoadHistory(ctx, "s-1")
	require.NoError(t, err)
	assert.Empty(t, empty.Messages)

	require.NoError(t, repo.AddMessage(ctx, "s-1",
		schema.UserMessage("hola [VIP: Daniel]"),
		schema.AssistantMessage("¡Mare, qué gusto nené!", nil),
	))
	require.NoError(t, repo.AddMessage(ctx, "s-2", schema.UserMessage("otra sesión")))
	require.NoError(t, repo.AddMessage(ctx, "s-1"))

	h, err := repo.LoadHistory(ctx, "s-1")
	require.NoError(t, err)
	require.Len(t, h.Messages, 2)
	assert.Equal(t, "s-1", h.SessionID)
	assert.Equal(t, schema.User, h.Messages[0].Role)
	assert.Equal(t, "¡Mare, qué gusto nené!", h.Messages[1].Content)

	n, err := repo.GetMessageCount(ctx, "s-2")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, repo.ClearHistory(ctx, "s-1"))
	n, err = repo.GetMessageCount(ctx, "s-1")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRedisConversationRepository(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	exerciseRepository(t, NewRedisConversationRepository(rdb, time.Minute))
}

func TestRedisConversationRepositoryExpires(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	repo := NewRedisConversationRepository(rdb, time.Minute)
	ctx := context.Background()

	require.NoError(t, repo.AddMessage(ctx, "s-1", schema.UserMessage("hola")))
	assert.Equal(t, time.Minute, mr.TTL("session:s-1:messages"))

	mr.FastForward(2 * time.Minute)
	n, err := repo.GetMessageCount(ctx, "s-1")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMemoryConversationRepository(t *testing.T) {
	t.Parallel()

	exerciseRepository(t, NewMemoryConversationRepository(0))
}

func TestMemoryConversationRepositoryExpires(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	repo := NewMemoryConversationRepository(time.Minute)
	repo.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, repo.AddMessage(ctx, "s-1", schema.UserMessage("hola")))
	now = now.Add(30 * time.Second)
	n, _ := repo.GetMessageCount(ctx, "s-1")
	assert.Equal(t, 1, n)

	now = now.Add(2 * time.Minute)
	h, err := repo.LoadHistory(ctx, "s-1")
	require.NoError(t, err)
	assert.Empty(t, h.Messages)
}
