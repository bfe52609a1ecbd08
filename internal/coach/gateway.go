package coach

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nikhilbhutani/langcoach/internal/config"
)

// Gateway routes replies to the default provider and tries the fallback once
// when it fails. There is no retry loop.
type Gateway struct {
	providers        map[string]Provider
	defaultProvider  string
	fallbackProvider string
}

func NewGateway(cfg config.CoachConfig) *Gateway {
	providers := make(map[string]Provider)
	model := func(name string) string {
		// COACH_MODEL names a model of the default provider only.
		if name == cfg.Provider {
			return cfg.Model
		}
		return ""
	}

	if cfg.OpenAIKey != "" {
		providers["openai"] = NewOpenAIProvider(cfg.OpenAIKey, model("openai"))
	}
	if cfg.AnthropicKey != "" {
		providers["anthropic"] = NewAnthropicProvider(cfg.AnthropicKey, model("anthropic"))
	}
	return newGateway(providers, cfg.Provider, cfg.FallbackProvider)
}

func newGateway(providers map[string]Provider, def, fallback string) *Gateway {
	return &Gateway{providers: providers, defaultProvider: def, fallbackProvider: fallback}
}

// Enabled reports whether the default provider is configured.
func (g *Gateway) Enabled() bool {
	_, ok := g.providers[g.defaultProvider]
	return ok
}

func (g *Gateway) provider(name string) (Provider, error) {
	p, ok := g.providers[name]
	if !ok || name == "" {
		return nil, fmt.Errorf("%w: %q", ErrNotConfigured, name)
	}
	return p, nil
}

func (g *Gateway) Reply(ctx context.Context, req Request) (*Reply, error) {
	resp, err := g.replyWith(ctx, g.defaultProvider, req)
	if err != nil && g.fallbackProvider != "" && g.fallbackProvider != g.defaultProvider {
		slog.Warn("primary coach provider failed, trying fallback",
			"primary", g.defaultProvider,
			"fallback", g.fallbackProvider,
			"error", err,
		)
		return g.replyWith(ctx, g.fallbackProvider, req)
	}
	return resp, err
}

func (g *Gateway) replyWith(ctx context.Context, name string, req Request) (*Reply, error) {
	p, err := g.provider(name)
	if err != nil {
		return nil, err
	}
	return p.Reply(ctx, req)
}
