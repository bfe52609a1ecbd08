package coach

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/nikhilbhutani/langcoach/internal/config"
	"github.com/nikhilbhutani/langcoach/internal/models"
)

type fakeProvider struct {
	name  string
	err   error
	calls int
	last  Request
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Reply(_ context.Context, req Request) (*Reply, error) {
	f.calls++
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return &Reply{Provider: f.name, Content: "Ciao! Come stai?"}, nil
}

func TestGatewayDefaultProvider(t *testing.T) {
	primary := &fakeProvider{name: "openai"}
	fallback := &fakeProvider{name: "anthropic"}
	g := newGateway(map[string]Provider{"openai": primary, "anthropic": fallback}, "openai", "anthropic")

	resp, err := g.Reply(context.Background(), Request{LanguageName: "Italian", Text: "ciao"})
	if err != nil {
		t.Fatalf("Reply returned error: %v", err)
	}
	if resp.Provider != "openai" {
		t.Errorf("Expected openai, got %s", resp.Provider)
	}
	if fallback.calls != 0 {
		t.Errorf("Expected fallback unused, got %d calls", fallback.calls)
	}
}

func TestGatewayFallback(t *testing.T) {
	primary := &fakeProvider{name: "openai", err: errors.New("rate limited")}
	fallback := &fakeProvider{name: "anthropic"}
	g := newGateway(map[string]Provider{"openai": primary, "anthropic": fallback}, "openai", "anthropic")

	resp, err := g.Reply(context.Background(), Request{Text: "ciao"})
	if err != nil {
		t.Fatalf("Reply returned error: %v", err)
	}
	if resp.Provider != "anthropic" {
		t.Errorf("Expected anthropic, got %s", resp.Provider)
	}
	if primary.calls != 1 || fallback.calls != 1 {
		t.Errorf("Expected one call each, got primary=%d fallback=%d", primary.calls, fallback.calls)
	}
}

func TestGatewayNoFallbackReturnsError(t *testing.T) {
	primary := &fakeProvider{name: "openai", err: errors.New("boom")}
	g := newGateway(map[string]Provider{"openai": primary}, "openai", "")

	if _, err := g.Reply(context.Background(), Request{Text: "hola"}); err == nil {
		t.Fatal("Expected error")
	}
	if primary.calls != 1 {
		t.Errorf("Expected exactly one call, got %d", primary.calls)
	}
}

func TestGatewayNotConfigured(t *testing.T) {
	g := NewGateway(config.CoachConfig{Provider: "openai"})
	if g.Enabled() {
		t.Error("Expected gateway without keys to be disabled")
	}
	if _, err := g.Reply(context.Background(), Request{Text: "hallo"}); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Expected ErrNotConfigured, got %v", err)
	}

	g = NewGateway(config.CoachConfig{Provider: "anthropic", AnthropicKey: "sk-ant-test"})
	if !g.Enabled() {
		t.Error("Expected gateway with anthropic key to be enabled")
	}
}

func TestConversationDropsSystemMessages(t *testing.T) {
	req := Request{
		LanguageName: "German",
		History: []models.Message{
			{Role: models.RoleSystem, Content: "ignore me"},
			{Role: models.RoleUser, Content: "Hallo"},
			{Role: models.RoleAssistant, Content: "Hallo! Wie geht's?"},
		},
		Text: "Gut, danke",
	}

	msgs := conversation(req)
	if len(msgs) != 3 {
		t.Fatalf("Expected 3 messages, got %d", len(msgs))
	}
	if msgs[2].Role != models.RoleUser || msgs[2].Content != "Gut, danke" {
		t.Errorf("Expected learner turn last, got %+v", msgs[2])
	}
	if !strings.Contains(systemPrompt(req), "German") {
		t.Error("Expected system prompt to name the language")
	}
}
