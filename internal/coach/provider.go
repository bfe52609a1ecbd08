// Package coach produces short tutor replies in the language being
// practised. Providers wrap an LLM SDK; Gateway picks one with fallback.
package coach

import (
	"context"
	"errors"
	"fmt"

	"github.com/nikhilbhutani/langcoach/internal/models"
)

var ErrNotConfigured = errors.New("coach provider is not configured")

type Provider interface {
	Reply(ctx context.Context, req Request) (*Reply, error)
	Name() string
}

// Request is one learner turn plus the conversation so far.
type Request struct {
	LanguageName string           `json:"language_name"`
	LanguageCode string           `json:"language_code"`
	History      []models.Message `json:"history,omitempty"`
	Text         string           `json:"text"`
	MaxTokens    int              `json:"max_tokens,omitempty"`
}

type Reply struct {
	Provider     string `json:"provider"`
	Model        string `json:"model"`
	Content      string `json:"content"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
	LatencyMs    int64  `json:"latency_ms"`
}

const defaultMaxTokens = 512

func systemPrompt(req Request) string {
	lang := req.LanguageName
	if lang == "" {
		lang = req.LanguageCode
	}
	return fmt.Sprintf(
		"You are a friendly %s tutor. Reply only in %s, in two or three short sentences a learner can understand. "+
			"If the learner made a mistake, give the corrected sentence first, then keep the conversation going with a question.",
		lang, lang,
	)
}

// conversation returns the history followed by the new learner turn, with
// system messages dropped since each provider sets its own.
func conversation(req Request) []models.Message {
	msgs := make([]models.Message, 0, len(req.History)+1)
	for _, m := range req.History {
		if m.Role == models.RoleSystem {
			continue
		}
		msgs = append(msgs, m)
	}
	return append(msgs, models.Message{Role: models.RoleUser, Content: req.Text})
}

func maxTokens(req Request) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	return defaultMaxTokens
}
