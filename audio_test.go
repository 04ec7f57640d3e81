package blossom

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAudioGenerate_Success verifies URL construction and default voice
// selection for speech synthesis.
func TestAudioGenerate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Hello%20world", r.URL.EscapedPath())
		q := r.URL.Query()
		assert.Equal(t, "openai-audio", q.Get("model"))
		assert.Equal(t, "alloy", q.Get("voice"))
		_, _ = w.Write([]byte("audio-bytes"))
	}))
	defer server.Close()

	client := NewClient(WithTextBaseURL(server.URL))
	defer client.Close()

	data, err := client.Audio.Generate(context.Background(), "Hello world", nil)

	require.NoError(t, err)
	assert.Equal(t, []byte("audio-bytes"), data)
}

// TestAudioGenerate_StripsTrailingPunctuation verifies trailing
// sentence punctuation is removed before synthesis, since the TTS
// models read it aloud.
func TestAudioGenerate_StripsTrailingPunctuation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Hello%20world", r.URL.EscapedPath())
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := NewClient(WithTextBaseURL(server.URL))
	defer client.Close()

	_, err := client.Audio.Generate(context.Background(), "Hello world!?.", nil)
	require.NoError(t, err)
}

// TestAudioGenerate_Voice verifies a custom voice and model are passed
// through.
func TestAudioGenerate_Voice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "nova", q.Get("voice"))
		assert.Equal(t, "openai-audio", q.Get("model"))
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := NewClient(WithTextBaseURL(server.URL))
	defer client.Close()

	_, err := client.Audio.Generate(context.Background(), "Hi", &AudioOptions{Voice: "nova"})
	require.NoError(t, err)
}

// TestAudioGenerate_Validation verifies empty input is rejected,
// including input that is empty after punctuation stripping.
func TestAudioGenerate_Validation(t *testing.T) {
	client := NewClient()
	defer client.Close()

	_, err := client.Audio.Generate(context.Background(), "", nil)
	assert.True(t, IsValidation(err))

	_, err = client.Audio.Generate(context.Background(), "...!!!", nil)
	assert.True(t, IsValidation(err), "punctuation-only input must fail validation")
}

// TestAudioSave verifies the synthesized bytes land in the target file.
func TestAudioSave(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("mp3-bytes"))
	}))
	defer server.Close()

	client := NewClient(WithTextBaseURL(server.URL))
	defer client.Close()

	path := filepath.Join(t.TempDir(), "speech.mp3")
	require.NoError(t, client.Audio.Save(context.Background(), "Hello", path, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("mp3-bytes"), data)
}

// TestAudioVoices_Fallback verifies the voice lookup never fails the
// caller.
func TestAudioVoices_Fallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(WithTextBaseURL(server.URL), WithRetries(1))
	defer client.Close()

	voices := client.Audio.Voices(context.Background())
	assert.Equal(t, defaultVoices, voices)
}
