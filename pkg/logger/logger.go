package logx

import (
	"io"
	"os"

	"github.com/maleon-core-poc/server/internal/core"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var DefaultLoggerOpts = &LoggerOpts{
	Environment: core.Development,
}

type LoggerOpts struct {
	Environment core.Environment
	// Level overrides the environment default when it parses (debug, info, warn...).
	Level string
	// Output defaults to stderr; tests swap it for a buffer.
	Output io.Writer
}

func safe(opts ...LoggerOpts) *LoggerOpts {
	if len(opts) == 0 {
		return DefaultLoggerOpts
	}
	return &opts[0]
}

func Init(opts ...LoggerOpts) {
	o := safe(opts...)
	out := o.Output
	if out == nil {
		out = os.Stderr
	}

	level := zerolog.DebugLevel
	if o.Environment.IsProduction() {
		log.Logger = zerolog.New(out).With().Timestamp().Str("service", "maleon").Logger()
		level = zerolog.InfoLevel
	} else {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: out}).With().Timestamp().Caller().Logger()
	}

	if o.Level != "" {
		if parsed, err := zerolog.ParseLevel(o.Level); err == nil {
			level = parsed
		}
	}
	log.Logger = log.Logger.Level(level)
}

// WithSession returns a child logger carrying the given session id.
func WithSession(sessionID string) zerolog.Logger {
	return log.With().Str("session_id", sessionID).Logger()
}

func Debug() *zerolog.Event {
	return log.Debug()
}

func Info() *zerolog.Event {
	return log.Info()
}

func Warn() *zerolog.Event {
	return log.Warn()
}

func Error() *zerolog.Event {
	return log.Error()
}

func Fatal() *zerolog.Event {
	return log.Fatal()
}
