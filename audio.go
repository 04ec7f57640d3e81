package blossom

import (
	"context"
	"net/http"
	"net/url"
	"os"
	"strings"
)

// AudioService synthesizes speech from text. Audio shares the text API
// endpoint.
type AudioService struct {
	client  *Client
	catalog *modelCatalog
}

// AudioOptions are optional parameters for speech synthesis. The zero
// value requests the service defaults.
type AudioOptions struct {
	// Voice selects the speaking voice (default "alloy").
	Voice string

	// Model selects the audio model (default "openai-audio").
	Model string
}

func (o *AudioOptions) query() url.Values {
	q := url.Values{}
	model := o.Model
	if model == "" {
		model = DefaultAudioModel
	}
	voice := o.Voice
	if voice == "" {
		voice = DefaultAudioVoice
	}
	q.Set("model", model)
	q.Set("voice", voice)
	return q
}

// Generate synthesizes speech for text and returns the raw audio bytes.
// Trailing sentence punctuation is stripped, which the TTS models
// otherwise read aloud. opts may be nil for defaults.
func (s *AudioService) Generate(ctx context.Context, text string, opts *AudioOptions) ([]byte, error) {
	if opts == nil {
		opts = &AudioOptions{}
	}
	text = strings.TrimRight(text, ".!?;:,")
	if text == "" {
		return nil, newValidationError("text", "must not be empty")
	}

	data, _, err := s.client.doBytes(ctx, &apiRequest{
		operation: "generate_audio",
		method:    http.MethodGet,
		url:       joinURL(s.client.textBaseURL, encodePromptPath(text)),
		query:     opts.query(),
	})
	return data, err
}

// Save synthesizes speech and writes the audio to filename.
func (s *AudioService) Save(ctx context.Context, text, filename string, opts *AudioOptions) error {
	data, err := s.Generate(ctx, text, opts)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0o644)
}

// Voices returns the available voices. The list is fetched from the
// API and cached; on failure a static default set is returned, so
// Voices never fails.
func (s *AudioService) Voices(ctx context.Context) []string {
	return s.catalog.list(ctx, func(ctx context.Context) ([]string, error) {
		return s.client.fetchNameList(ctx, joinURL(s.client.textBaseURL, "voices"))
	})
}
