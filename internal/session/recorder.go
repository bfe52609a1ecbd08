// Package session records practice sessions after a successful
// transcription. Every write reports an explicit Receipt or an error.
package session

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/nikhilbhutani/langcoach/internal/models"
	"github.com/nikhilbhutani/langcoach/internal/queue"
	"github.com/nikhilbhutani/langcoach/internal/store"
)

type Status string

const (
	StatusStored Status = "stored"
	StatusQueued Status = "queued"
)

// Receipt describes what happened to a recorded session. Session is set when
// it was stored synchronously, TaskID when it was queued.
type Receipt struct {
	Status  Status                  `json:"status"`
	Session *models.PracticeSession `json:"session,omitempty"`
	TaskID  string                  `json:"task_id,omitempty"`
}

type Recorder interface {
	Record(ctx context.Context, s *models.PracticeSession) (*Receipt, error)
}

// DirectRecorder writes through to the store.
type DirectRecorder struct {
	sessions store.Sessions
}

func NewDirectRecorder(sessions store.Sessions) *DirectRecorder {
	return &DirectRecorder{sessions: sessions}
}

func (r *DirectRecorder) Record(ctx context.Context, s *models.PracticeSession) (*Receipt, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	stored, err := r.sessions.InsertSession(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("record session: %w", err)
	}
	return &Receipt{Status: StatusStored, Session: stored}, nil
}

// Enqueuer is the subset of the queue client the QueueRecorder needs.
type Enqueuer interface {
	EnqueueSessionRecord(ctx context.Context, payload queue.SessionRecordPayload) (string, error)
}

// QueueRecorder hands sessions to cmd/worker through asynq.
type QueueRecorder struct {
	queue Enqueuer
}

func NewQueueRecorder(q Enqueuer) *QueueRecorder {
	return &QueueRecorder{queue: q}
}

func (r *QueueRecorder) Record(ctx context.Context, s *models.PracticeSession) (*Receipt, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	taskID, err := r.queue.EnqueueSessionRecord(ctx, queue.SessionRecordPayload{Session: *s})
	if err != nil {
		return nil, fmt.Errorf("queue session: %w", err)
	}
	return &Receipt{Status: StatusQueued, TaskID: taskID}, nil
}

// Transcript records the single-message session for one transcription.
func Transcript(ctx context.Context, r Recorder, userID, languageID uuid.UUID, text string) (*Receipt, error) {
	return r.Record(ctx, models.NewPracticeSession(userID, languageID, text))
}
