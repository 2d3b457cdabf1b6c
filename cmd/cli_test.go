package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cacheFixture = `{
  "hola maleon": [{"reply": "¡Hola nené! ¿Qué onda?", "audio_url": "/temp_audio/a.wav"}],
  "cual es el clima": [{"reply": "Calor, como siempre."}, {"reply": "Pues hace un calorón."}]
}`

func executeCLI(t *testing.T, dir string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("REDIS_URL", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("CACHE_FILE", filepath.Join(dir, "cache.json"))

	root := newRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append([]string{"--env-file", filepath.Join(dir, "missing.env")}, args...))
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func writeCacheFixture(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cache.json"), []byte(cacheFixture), 0o644))
}

func TestCacheStats(t *testing.T) {
	dir := t.TempDir()
	writeCacheFixture(t, dir)

	stdout, _, err := executeCLI(t, dir, "cache", "stats")
	require.NoError(t, err)
	assert.Equal(t, "keys: 2\nreplies: 3\n", stdout)

	stdout, _, err = executeCLI(t, dir, "cache", "stats", "--json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"keys":2,"replies":3}`, stdout)
}

func TestCacheStatsOnMissingFile(t *testing.T) {
	stdout, _, err := executeCLI(t, t.TempDir(), "cache", "stats")
	require.NoError(t, err)
	assert.Equal(t, "keys: 0\nreplies: 0\n", stdout)
}

func TestCacheMatch(t *testing.T) {
	dir := t.TempDir()
	writeCacheFixture(t, dir)

	stdout, _, err := executeCLI(t, dir, "cache", "match", "Hola", "Maleón")
	require.NoError(t, err)
	assert.Contains(t, stdout, "key: hola maleon")
	assert.Contains(t, stdout, "1. ¡Hola nené! ¿Qué onda?")

	stdout, _, err = executeCLI(t, dir, "cache", "match", "quiero un reporte de seguridad")
	require.NoError(t, err)
	assert.Contains(t, stdout, "no match")
}

func TestCacheMatchRequiresText(t *testing.T) {
	_, _, err := executeCLI(t, t.TempDir(), "cache", "match")
	require.Error(t, err)
}

func TestServeRequiresAPIKey(t *testing.T) {
	_, _, err := executeCLI(t, t.TempDir(), "serve")
	require.ErrorIs(t, err, errMissingAPIKey)
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("CACHE_MATCH_THRESHOLD", "80")
	t.Setenv("SESSION_TTL", "10m")

	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 80, cfg.Cache.MatchThreshold)
	assert.Equal(t, 3, cfg.Cache.TrapSize)
	assert.Equal(t, "10m0s", cfg.Session.TTL.String())
	assert.Equal(t, ":8000", cfg.HTTP.Addr)
	assert.Equal(t, "latin-1", cfg.Data.ServicesEncoding)
	assert.Equal(t, 70, cfg.Data.ResolveThreshold)

	ttl, err := cfg.conversationTTL()
	require.NoError(t, err)
	assert.Equal(t, "30m0s", ttl.String())
}
