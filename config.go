package blossom

import "time"

// API endpoints. Audio shares the text endpoint.
const (
	defaultImageBaseURL = "https://image.pollinations.ai"
	defaultTextBaseURL  = "https://text.pollinations.ai"

	// authURL is where users obtain and manage API tokens.
	authURL = "https://auth.pollinations.ai"
)

// Request limits and defaults mirroring the service's documented constraints.
const (
	defaultTimeout      = 30 * time.Second
	defaultChunkTimeout = 30 * time.Second
	defaultMaxRetries   = 3

	maxImagePromptLength = 200
	maxTextPromptLength  = 10000

	minImageDimension = 64
	maxImageDimension = 2048

	// modelCacheTTL bounds how long a fetched model list is served from cache.
	modelCacheTTL = 5 * time.Minute

	// modelFetchTimeout bounds the best-effort model list lookup so it can
	// never stall a generation call path.
	modelFetchTimeout = 5 * time.Second
)

// Default generation parameters.
const (
	DefaultImageModel  = "flux"
	DefaultTextModel   = "openai"
	DefaultAudioModel  = "openai-audio"
	DefaultAudioVoice  = "alloy"
	DefaultImageWidth  = 1024
	DefaultImageHeight = 1024
)
