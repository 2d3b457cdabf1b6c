package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maleon-core-poc/server/internal/dispatch"
)

type fakeDispatcher struct {
	mu   sync.Mutex
	reqs []dispatch.ChatRequest
}

func (f *fakeDispatcher) Handle(_ context.Context, req dispatch.ChatRequest) dispatch.ChatResponse {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	return dispatch.ChatResponse{Reply: "¡Hola nené!", AudioURL: "/temp_audio/a.wav"}
}

func newServer(t *testing.T) (*httptest.Server, *fakeDispatcher, Mounts) {
	t.Helper()
	root := t.TempDir()
	mounts := Mounts{
		StaticDir: filepath.Join(root, "static"),
		AudioDir:  filepath.Join(root, "temp_audio"),
	}
	require.NoError(t, os.MkdirAll(filepath.Join(mounts.StaticDir, "reportes"), 0o755))
	require.NoError(t, os.MkdirAll(mounts.AudioDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(mounts.StaticDir, "index.html"), []byte("<h1>Maleón</h1>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(mounts.StaticDir, "reportes", "reporte_1.pdf"), []byte("%PDF-1.3"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(mounts.AudioDir, "a.wav"), []byte("RIFF"), 0o644))

	d := &fakeDispatcher{}
	srv := httptest.NewServer(NewRouter(Config{AllowedOrigins: []string{"*"}}, mounts, &ChatHandlers{Chat: d}))
	t.Cleanup(srv.Close)
	return srv, d, mounts
}

func post(t *testing.T, url, body string) (*http.Response, map[string]string) {
	t.Helper()
	resp, err := http.Post(url+"/chat", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	out := map[string]string{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestChat(t *testing.T) {
	t.Parallel()
	srv, d, _ := newServer(t)

	resp, body := post(t, srv.URL, `{"text":"hola","time":"10:00","session_id":"s1"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, map[string]string{"reply": "¡Hola nené!", "audio_url": "/temp_audio/a.wav"}, body)
	require.Len(t, d.reqs, 1)
	assert.Equal(t, dispatch.ChatRequest{Text: "hola", Time: "10:00", SessionID: "s1"}, d.reqs[0])
}

func TestChatRejectsBadRequests(t *testing.T) {
	t.Parallel()
	srv, d, _ := newServer(t)

	for _, body := range []string{
		`{not json`,
		`{"session_id":"s1"}`,
		`{"text":"hola"}`,
		`{"text":"   ","session_id":"s1"}`,
	} {
		resp, out := post(t, srv.URL, body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
		assert.Equal(t, "invalid request", out["error"], body)
	}
	assert.Empty(t, d.reqs)
}

func TestHealthAndStatic(t *testing.T) {
	t.Parallel()
	srv, _, _ := newServer(t)

	for path, want := range map[string]string{
		"/health":                        `{"status":"ok"}`,
		"/":                              "<h1>Maleón</h1>",
		"/static/reportes/reporte_1.pdf": "%PDF-1.3",
		"/temp_audio/a.wav":              "RIFF",
	} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Equal(t, want, strings.TrimSpace(string(data)), path)
	}

	resp, err := http.Get(srv.URL + "/temp_audio/missing.wav")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	t.Parallel()
	srv, _, _ := newServer(t)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/chat", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
