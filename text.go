package blossom

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// TextService generates text completions and chat responses.
type TextService struct {
	client  *Client
	catalog *modelCatalog
}

// TextOptions are optional parameters for text generation. The zero
// value requests the service defaults.
type TextOptions struct {
	// Model selects the text model (default "openai").
	Model string

	// System sets a system prompt.
	System string

	// Seed makes generation reproducible when set.
	Seed *int

	// Temperature overrides the sampling temperature (0..2).
	Temperature *float64

	// JSONMode asks the model to respond with a JSON object.
	JSONMode bool

	// Private keeps the generation out of the public feed.
	Private bool
}

func (o *TextOptions) validate() error {
	if o.Temperature != nil && (*o.Temperature < 0 || *o.Temperature > 2) {
		return newValidationError("temperature", "must be between 0 and 2")
	}
	return nil
}

func (o *TextOptions) query(stream bool) url.Values {
	q := url.Values{}
	model := o.Model
	if model == "" {
		model = DefaultTextModel
	}
	q.Set("model", model)

	if o.System != "" {
		q.Set("system", o.System)
	}
	if o.Seed != nil {
		q.Set("seed", strconv.Itoa(*o.Seed))
	}
	if o.Temperature != nil {
		q.Set("temperature", strconv.FormatFloat(*o.Temperature, 'f', -1, 64))
	}
	if o.JSONMode {
		q.Set("json", "true")
	}
	if o.Private {
		q.Set("private", "true")
	}
	if stream {
		q.Set("stream", "true")
	}
	return q
}

func validateTextPrompt(prompt string) error {
	if prompt == "" {
		return newValidationError("prompt", "must not be empty")
	}
	if len(prompt) > maxTextPromptLength {
		return newValidationError("prompt", fmt.Sprintf("exceeds maximum length of %d characters", maxTextPromptLength))
	}
	return nil
}

// Generate completes prompt and returns the full response text.
// opts may be nil for defaults.
func (s *TextService) Generate(ctx context.Context, prompt string, opts *TextOptions) (string, error) {
	if opts == nil {
		opts = &TextOptions{}
	}
	if err := validateTextPrompt(prompt); err != nil {
		return "", err
	}
	if err := opts.validate(); err != nil {
		return "", err
	}

	data, _, err := s.client.doBytes(ctx, &apiRequest{
		operation: "generate_text",
		method:    http.MethodGet,
		url:       joinURL(s.client.textBaseURL, encodePromptPath(prompt)),
		query:     opts.query(false),
	})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// GenerateStream completes prompt and streams the response as a
// sequence of text fragments. The caller must Close the returned
// Stream.
func (s *TextService) GenerateStream(ctx context.Context, prompt string, opts *TextOptions) (*Stream, error) {
	if opts == nil {
		opts = &TextOptions{}
	}
	if err := validateTextPrompt(prompt); err != nil {
		return nil, err
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	resp, requestID, err := s.client.do(ctx, &apiRequest{
		operation: "generate_text_stream",
		method:    http.MethodGet,
		url:       joinURL(s.client.textBaseURL, encodePromptPath(prompt)),
		query:     opts.query(true),
		stream:    true,
	})
	if err != nil {
		return nil, err
	}
	return newStream(resp, requestID, s.client.chunkTimeout, s.client.logger), nil
}

// Message is one turn of a chat conversation.
type Message struct {
	// Role is "system", "user" or "assistant".
	Role string `json:"role"`

	// Content is the message text.
	Content string `json:"content"`
}

// ChatOptions are optional parameters for chat completion.
type ChatOptions struct {
	// Model selects the text model (default "openai").
	Model string

	// JSONMode asks the model to respond with a JSON object.
	JSONMode bool

	// Private keeps the generation out of the public feed.
	Private bool
}

// chatBody builds the OpenAI-compatible request body.
func (o *ChatOptions) chatBody(messages []Message, stream bool) map[string]any {
	model := o.Model
	if model == "" {
		model = DefaultTextModel
	}
	body := map[string]any{
		"model":    model,
		"messages": messages,
		"stream":   stream,
	}
	if o.JSONMode {
		body["response_format"] = map[string]string{"type": "json_object"}
	}
	if o.Private {
		body["private"] = true
	}
	return body
}

func validateMessages(messages []Message) error {
	if len(messages) == 0 {
		return newValidationError("messages", "must not be empty")
	}
	for i, m := range messages {
		if m.Role == "" {
			return newValidationError("messages", fmt.Sprintf("message %d has no role", i))
		}
	}
	return nil
}

// chatResponse is the OpenAI-compatible completion shape.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Chat runs a chat completion over the OpenAI-compatible endpoint and
// returns the assistant's reply. When the endpoint fails and the
// conversation contains a user message, Chat falls back to plain text
// generation with that message.
func (s *TextService) Chat(ctx context.Context, messages []Message, opts *ChatOptions) (string, error) {
	if opts == nil {
		opts = &ChatOptions{}
	}
	if err := validateMessages(messages); err != nil {
		return "", err
	}

	data, requestID, err := s.client.doBytes(ctx, &apiRequest{
		operation: "chat",
		method:    http.MethodPost,
		url:       joinURL(s.client.textBaseURL, "openai"),
		jsonBody:  opts.chatBody(messages, false),
	})
	if err != nil {
		if fallback, ok := s.chatFallback(ctx, messages, opts); ok {
			return fallback, nil
		}
		return "", err
	}

	var parsed chatResponse
	if jerr := json.Unmarshal(data, &parsed); jerr != nil || len(parsed.Choices) == 0 {
		return "", &Error{
			Type:      ErrorTypeAPI,
			Message:   "malformed chat completion response",
			RequestID: requestID,
			Cause:     jerr,
		}
	}
	return parsed.Choices[0].Message.Content, nil
}

// chatFallback retries a failed chat call through the plain GET
// endpoint using the last user message. Validation and auth failures
// are not worth retrying elsewhere.
func (s *TextService) chatFallback(ctx context.Context, messages []Message, opts *ChatOptions) (string, bool) {
	var user, system string
	for _, m := range messages {
		switch m.Role {
		case "user":
			if user == "" {
				user = m.Content
			}
		case "system":
			if system == "" {
				system = m.Content
			}
		}
	}
	if user == "" {
		return "", false
	}

	s.client.logger.Debug("chat endpoint failed, falling back to text generation")
	out, err := s.Generate(ctx, user, &TextOptions{
		Model:    opts.Model,
		System:   system,
		JSONMode: opts.JSONMode,
		Private:  opts.Private,
	})
	if err != nil {
		return "", false
	}
	return out, true
}

// ChatStream runs a chat completion and streams the assistant's reply.
// The caller must Close the returned Stream.
func (s *TextService) ChatStream(ctx context.Context, messages []Message, opts *ChatOptions) (*Stream, error) {
	if opts == nil {
		opts = &ChatOptions{}
	}
	if err := validateMessages(messages); err != nil {
		return nil, err
	}

	resp, requestID, err := s.client.do(ctx, &apiRequest{
		operation: "chat_stream",
		method:    http.MethodPost,
		url:       joinURL(s.client.textBaseURL, "openai"),
		jsonBody:  opts.chatBody(messages, true),
		stream:    true,
	})
	if err != nil {
		return nil, err
	}
	return newStream(resp, requestID, s.client.chunkTimeout, s.client.logger), nil
}

// Models returns the available text models. The list is fetched from
// the API and cached; on failure a static default set is returned, so
// Models never fails.
func (s *TextService) Models(ctx context.Context) []string {
	return s.catalog.list(ctx, func(ctx context.Context) ([]string, error) {
		return s.client.fetchNameList(ctx, joinURL(s.client.textBaseURL, "models"))
	})
}
