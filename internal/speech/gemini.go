package speech

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"google.golang.org/genai"

	errx "github.com/maleon-core-poc/server/internal/core/error"
)

const defaultSampleRate = 24000

// GeminiSynthesizer uses a Gemini TTS model with a prebuilt voice.
type GeminiSynthesizer struct {
	client *genai.Client
	model  string
	voice  string
	style  string
}

func NewGeminiSynthesizer(client *genai.Client, cfg Config) *GeminiSynthesizer {
	return &GeminiSynthesizer{client: client, model: cfg.Model, voice: cfg.Voice, style: cfg.Style}
}

func (g *GeminiSynthesizer) Synthesize(ctx context.Context, text string) (Audio, error) {
	prompt := text
	if g.style != "" {
		prompt = g.style + " " + text
	}

	cfg := &genai.GenerateContentConfig{
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: g.voice},
			},
		},
	}
	cfg.ResponseModalities = append(cfg.ResponseModalities, "AUDIO")

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		return Audio{}, errx.WrapUpstream("gemini tts", err)
	}

	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			return Audio{
				Data:      WrapPCM(part.InlineData.Data, SampleRate(part.InlineData.MIMEType), 1, 16),
				Extension: "wav",
			}, nil
		}
	}
	return Audio{}, fmt.Errorf("gemini tts: response has no audio")
}

// SampleRate reads "rate=" from a MIME type such as audio/L16;codec=pcm;rate=24000.
func SampleRate(mimeType string) int {
	for _, param := range strings.Split(mimeType, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(param), "=")
		if !ok || !strings.EqualFold(k, "rate") {
			continue
		}
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return defaultSampleRate
}
