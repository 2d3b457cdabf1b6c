package errx

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapRedis(t *testing.T) {
	t.Parallel()

	assert.NoError(t, WrapRedis(nil))

	notFound := WrapRedis(redis.Nil)
	require.Error(t, notFound)
	assert.Equal(t, http.StatusNotFound, StatusOf(notFound))
	assert.ErrorIs(t, notFound, redis.Nil)

	down := WrapRedis(errors.New("connection refused"))
	assert.Equal(t, http.StatusBadGateway, StatusOf(down))
	assert.Equal(t, RedisErrorMessage, MessageOf(down))
}

func TestStatusOfWrappedChain(t *testing.T) {
	t.Parallel()

	base := errors.New("boom")
	err := fmt.Errorf("synthesize: %w", WrapUpstream("tts", base))

	assert.Equal(t, http.StatusBadGateway, StatusOf(err))
	assert.Equal(t, UpstreamErrorMessage, MessageOf(err))
	assert.ErrorIs(t, err, base)

	assert.Equal(t, http.StatusInternalServerError, StatusOf(base))
	assert.Equal(t, SystemErrorMessage, MessageOf(base))
	assert.Equal(t, http.StatusBadRequest, StatusOf(BadRequest(base)))
}
