package blossom

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
)

// ImageService generates images from text prompts.
type ImageService struct {
	client  *Client
	catalog *modelCatalog
}

// ImageOptions are optional parameters for image generation. The zero
// value requests the service defaults.
type ImageOptions struct {
	// Model selects the image model (default "flux").
	Model string

	// Width and Height are the image dimensions in pixels
	// (default 1024x1024, each within 64..2048).
	Width  int
	Height int

	// Seed makes generation reproducible when set.
	Seed *int

	// NoLogo removes the service watermark.
	NoLogo bool

	// Private keeps the generation out of the public feed.
	Private bool

	// Enhance lets the service rewrite the prompt for better results.
	Enhance bool

	// Safe enables strict content filtering.
	Safe bool

	// Referrer is an optional referrer tag added to shareable URLs.
	Referrer string
}

func (o *ImageOptions) validate() error {
	width, height := o.Width, o.Height
	if width == 0 {
		width = DefaultImageWidth
	}
	if height == 0 {
		height = DefaultImageHeight
	}
	if width < minImageDimension || width > maxImageDimension {
		return newValidationError("width", fmt.Sprintf("must be between %d and %d", minImageDimension, maxImageDimension))
	}
	if height < minImageDimension || height > maxImageDimension {
		return newValidationError("height", fmt.Sprintf("must be between %d and %d", minImageDimension, maxImageDimension))
	}
	return nil
}

// query builds the generation query parameters. The auth token is
// intentionally not part of it; see buildHTTPRequest and GenerateURL.
func (o *ImageOptions) query() url.Values {
	q := url.Values{}
	model := o.Model
	if model == "" {
		model = DefaultImageModel
	}
	q.Set("model", model)

	width, height := o.Width, o.Height
	if width == 0 {
		width = DefaultImageWidth
	}
	if height == 0 {
		height = DefaultImageHeight
	}
	q.Set("width", strconv.Itoa(width))
	q.Set("height", strconv.Itoa(height))

	if o.Seed != nil {
		q.Set("seed", strconv.Itoa(*o.Seed))
	}
	if o.NoLogo {
		q.Set("nologo", "true")
	}
	if o.Private {
		q.Set("private", "true")
	}
	if o.Enhance {
		q.Set("enhance", "true")
	}
	if o.Safe {
		q.Set("safe", "true")
	}
	return q
}

func validateImagePrompt(prompt string) error {
	if prompt == "" {
		return newValidationError("prompt", "must not be empty")
	}
	if len(prompt) > maxImagePromptLength {
		return newValidationError("prompt", fmt.Sprintf("exceeds maximum length of %d characters", maxImagePromptLength))
	}
	return nil
}

// Generate renders an image for prompt and returns the raw bytes.
// opts may be nil for defaults.
func (s *ImageService) Generate(ctx context.Context, prompt string, opts *ImageOptions) ([]byte, error) {
	if opts == nil {
		opts = &ImageOptions{}
	}
	if err := validateImagePrompt(prompt); err != nil {
		return nil, err
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	data, _, err := s.client.doBytes(ctx, &apiRequest{
		operation: "generate_image",
		method:    http.MethodGet,
		url:       joinURL(s.client.imageBaseURL, "prompt/"+encodePromptPath(prompt)),
		query:     opts.query(),
	})
	return data, err
}

// GenerateURL returns a shareable URL for the image without downloading
// it. The URL never contains the API token, so it is safe to publish.
func (s *ImageService) GenerateURL(prompt string, opts *ImageOptions) (string, error) {
	if opts == nil {
		opts = &ImageOptions{}
	}
	if err := validateImagePrompt(prompt); err != nil {
		return "", err
	}
	if err := opts.validate(); err != nil {
		return "", err
	}

	q := opts.query()
	if opts.Referrer != "" {
		q.Set("referrer", opts.Referrer)
	}
	u := joinURL(s.client.imageBaseURL, "prompt/"+encodePromptPath(prompt))
	return u + "?" + q.Encode(), nil
}

// Save generates an image and writes it to filename.
func (s *ImageService) Save(ctx context.Context, prompt, filename string, opts *ImageOptions) error {
	data, err := s.Generate(ctx, prompt, opts)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0o644)
}

// Models returns the available image models. The list is fetched from
// the API and cached; on failure a static default set is returned, so
// Models never fails.
func (s *ImageService) Models(ctx context.Context) []string {
	return s.catalog.list(ctx, func(ctx context.Context) ([]string, error) {
		return s.client.fetchNameList(ctx, joinURL(s.client.imageBaseURL, "models"))
	})
}
