package speech

import (
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSynth struct {
	audio Audio
	err   error
	text  string
}

func (f *fakeSynth) Synthesize(_ context.Context, text string) (Audio, error) {
	f.text = text
	return f.audio, f.err
}

func TestSpeakStoresClip(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "audio")
	synth := &fakeSynth{audio: Audio{Data: []byte("clip"), Extension: "wav"}}
	s, err := NewSpeaker(synth, Config{AudioDir: dir, URLPrefix: "/temp_audio"})
	require.NoError(t, err)

	url, err := s.Speak(context.Background(), "  Mare nene, ya lo anoté.  ")
	require.NoError(t, err)
	assert.Equal(t, "Mare nene, ya lo anoté.", synth.text)
	require.True(t, strings.HasPrefix(url, "/temp_audio/"))
	require.True(t, strings.HasSuffix(url, ".wav"))

	data, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(url, "/temp_audio/")))
	require.NoError(t, err)
	assert.Equal(t, []byte("clip"), data)

	other, err := s.Speak(context.Background(), "otra")
	require.NoError(t, err)
	assert.NotEqual(t, url, other)
}

func TestSpeakErrors(t *testing.T) {
	t.Parallel()

	s, err := NewSpeaker(&fakeSynth{err: errors.New("quota")}, Config{AudioDir: t.TempDir()})
	require.NoError(t, err)

	_, err = s.Speak(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrNothingToSay)

	_, err = s.Speak(context.Background(), "hola")
	assert.ErrorContains(t, err, "quota")

	empty, err := NewSpeaker(&fakeSynth{}, Config{AudioDir: t.TempDir()})
	require.NoError(t, err)
	_, err = empty.Speak(context.Background(), "hola")
	assert.Error(t, err)
}

func TestWrapPCM(t *testing.T) {
	t.Parallel()

	pcm := []byte{1, 2, 3, 4}
	wav := WrapPCM(pcm, 24000, 1, 16)
	require.Len(t, wav, 48)
	assert.Equal(t, "RIFF", string(wav[0:4]))
	assert.Equal(t, uint32(40), binary.LittleEndian.Uint32(wav[4:8]))
	assert.Equal(t, "WAVE", string(wav[8:12]))
	assert.Equal(t, uint32(24000), binary.LittleEndian.Uint32(wav[24:28]))
	assert.Equal(t, uint32(48000), binary.LittleEndian.Uint32(wav[28:32]))
	assert.Equal(t, "data", string(wav[36:40]))
	assert.Equal(t, uint32(4), binary.LittleEndian.Uint32(wav[40:44]))
	assert.Equal(t, pcm, wav[44:])
}

func TestSampleRate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 24000, SampleRate("audio/L16;codec=pcm;rate=24000"))
	assert.Equal(t, 16000, SampleRate("audio/L16; rate=16000"))
	assert.Equal(t, defaultSampleRate, SampleRate("audio/L16"))
	assert.Equal(t, defaultSampleRate, SampleRate("audio/L16;rate=abc"))
}
