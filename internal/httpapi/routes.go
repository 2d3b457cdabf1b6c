// Package httpapi is the HTTP boundary: /chat, /health and the static mounts.
package httpapi

import (
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	logx "github.com/maleon-core-poc/server/pkg/logger"
)

type Config struct {
	Addr           string        `envconfig:"HTTP_ADDR" default:":8000"`
	AllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
	ReadTimeout    time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"15s"`
	WriteTimeout   time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"120s"`
	AvatarDir      string        `envconfig:"AVATAR_DIR" default:"avatar"`
}

// Mounts are the directories served as-is.
type Mounts struct {
	StaticDir string
	AudioDir  string
	AvatarDir string
}

func NewRouter(cfg Config, mounts Mounts, chat *ChatHandlers) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(withRequestLogging())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/chat", chat.HandleChat)

	if mounts.StaticDir != "" {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.ServeFile(w, r, filepath.Join(mounts.StaticDir, "index.html"))
		})
	}
	mount(r, "/static", mounts.StaticDir)
	mount(r, "/temp_audio", mounts.AudioDir)
	mount(r, "/avatar", mounts.AvatarDir)

	return r
}

func mount(r chi.Router, prefix, dir string) {
	if dir == "" {
		return
	}
	r.Handle(prefix+"/*", http.StripPrefix(prefix+"/", http.FileServer(http.Dir(dir))))
}

func withRequestLogging() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logx.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("http request")
		})
	}
}
