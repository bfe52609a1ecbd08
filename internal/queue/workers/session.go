package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/nikhilbhutani/langcoach/internal/queue"
	"github.com/nikhilbhutani/langcoach/internal/store"
)

type SessionWorker struct {
	sessions store.Sessions
}

func NewSessionWorker(sessions store.Sessions) *SessionWorker {
	return &SessionWorker{sessions: sessions}
}

func (w *SessionWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.SessionRecordPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w: %w", err, asynq.SkipRetry)
	}

	if err := payload.Session.Validate(); err != nil {
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}

	stored, err := w.sessions.InsertSession(ctx, &payload.Session)
	if err != nil {
		return fmt.Errorf("insert practice session: %w", err)
	}

	slog.Info("recorded practice session",
		"session_id", stored.ID,
		"user_id", stored.UserID,
		"language_id", stored.LanguageID,
	)
	return nil
}
