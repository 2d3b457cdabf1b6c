// Package speech turns reply text into audio files served under /temp_audio.
package speech

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	logx "github.com/maleon-core-poc/server/pkg/logger"
)

type Config struct {
	Enabled   bool   `envconfig:"TTS_ENABLED" default:"true"`
	Model     string `envconfig:"TTS_MODEL" default:"gemini-2.5-flash-preview-tts"`
	Voice     string `envconfig:"TTS_VOICE" default:"Charon"`
	Style     string `envconfig:"TTS_STYLE" default:"Lee con voz grave, cálida y pausada, en español de Yucatán:"`
	AudioDir  string `envconfig:"AUDIO_DIR" default:"temp_audio"`
	URLPrefix string `envconfig:"AUDIO_URL_PREFIX" default:"/temp_audio"`
}

// Audio is a synthesized clip ready to be written to disk.
type Audio struct {
	Data      []byte
	Extension string // without the dot, e.g. "wav"
}

// Synthesizer converts plain text into audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (Audio, error)
}

// ErrNothingToSay is returned for blank input.
var ErrNothingToSay = errors.New("speech: empty text")

// Speaker synthesizes text and stores the clip, returning its public URL.
type Speaker struct {
	synth     Synthesizer
	dir       string
	urlPrefix string
}

func NewSpeaker(synth Synthesizer, cfg Config) (*Speaker, error) {
	if err := os.MkdirAll(cfg.AudioDir, 0o755); err != nil {
		return nil, fmt.Errorf("create audio dir: %w", err)
	}
	prefix := cfg.URLPrefix
	if prefix == "" {
		prefix = "/temp_audio"
	}
	return &Speaker{synth: synth, dir: cfg.AudioDir, urlPrefix: prefix}, nil
}

// Speak returns the URL of a new clip for text, e.g. /temp_audio/<uuid>.wav.
func (s *Speaker) Speak(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrNothingToSay
	}
	audio, err := s.synth.Synthesize(ctx, text)
	if err != nil {
		return "", fmt.Errorf("synthesize: %w", err)
	}
	if len(audio.Data) == 0 {
		return "", fmt.Errorf("synthesize: no audio returned")
	}

	ext := audio.Extension
	if ext == "" {
		ext = "wav"
	}
	name := uuid.NewString() + "." + ext
	if err := os.WriteFile(filepath.Join(s.dir, name), audio.Data, 0o644); err != nil {
		return "", fmt.Errorf("write audio: %w", err)
	}
	logx.Debug().Str("file", name).Int("bytes", len(audio.Data)).Msg("audio stored")
	return path.Join(s.urlPrefix, name), nil
}
