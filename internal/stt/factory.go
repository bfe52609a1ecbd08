package stt

import (
	"fmt"

	"github.com/nikhilbhutani/langcoach/internal/config"
)

// NewFromConfig builds the provider selected by STT_BACKEND. The OpenAI
// provider is created even without a key so the proxy can answer with a
// configuration error instead of refusing to start.
func NewFromConfig(cfg config.STTConfig) (STTProvider, error) {
	switch cfg.Backend {
	case "", "openai":
		return NewOpenAISTT(OpenAISTTConfig{
			APIKey:     cfg.OpenAIKey,
			BaseURL:    cfg.OpenAIBaseURL,
			Model:      cfg.OpenAIModel,
			RequireKey: true,
		}), nil
	case "local":
		return NewLocalSTT(LocalSTTConfig{BaseURL: cfg.LocalBaseURL}), nil
	default:
		return nil, fmt.Errorf("unknown STT backend %q", cfg.Backend)
	}
}
