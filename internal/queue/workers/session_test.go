package workers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/nikhilbhutani/langcoach/internal/models"
	"github.com/nikhilbhutani/langcoach/internal/queue"
	"github.com/nikhilbhutani/langcoach/internal/store"
)

type fakeSessions struct {
	inserted []*models.PracticeSession
	err      error
}

func (f *fakeSessions) InsertSession(ctx context.Context, s *models.PracticeSession) (*models.PracticeSession, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := *s
	out.ID = uuid.New()
	f.inserted = append(f.inserted, &out)
	return &out, nil
}

func (f *fakeSessions) ListSessions(ctx context.Context, q store.SessionQuery) ([]models.PracticeSession, error) {
	return nil, nil
}

func task(t *testing.T, s *models.PracticeSession) *asynq.Task {
	t.Helper()
	data, err := json.Marshal(queue.SessionRecordPayload{Session: *s})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return asynq.NewTask(queue.TypeSessionRecord, data)
}

func TestSessionWorkerInserts(t *testing.T) {
	sessions := &fakeSessions{}
	w := NewSessionWorker(sessions)

	s := models.NewPracticeSession(uuid.New(), uuid.New(), "guten Morgen")
	if err := w.ProcessTask(context.Background(), task(t, s)); err != nil {
		t.Fatalf("ProcessTask returned error: %v", err)
	}
	if len(sessions.inserted) != 1 {
		t.Fatalf("Expected one insert, got %d", len(sessions.inserted))
	}
	if sessions.inserted[0].Messages[0].Content != "guten Morgen" {
		t.Errorf("Unexpected message %+v", sessions.inserted[0].Messages[0])
	}
}

func TestSessionWorkerSkipsInvalid(t *testing.T) {
	sessions := &fakeSessions{}
	w := NewSessionWorker(sessions)

	s := models.NewPracticeSession(uuid.Nil, uuid.New(), "hola")
	err := w.ProcessTask(context.Background(), task(t, s))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Errorf("Expected SkipRetry, got %v", err)
	}
	if !errors.Is(err, models.ErrInvalidSession) {
		t.Errorf("Expected ErrInvalidSession, got %v", err)
	}
	if len(sessions.inserted) != 0 {
		t.Error("Expected no insert for an invalid session")
	}
}

func TestSessionWorkerStoreError(t *testing.T) {
	w := NewSessionWorker(&fakeSessions{err: errors.New("connection refused")})

	err := w.ProcessTask(context.Background(), task(t, models.NewPracticeSession(uuid.New(), uuid.New(), "hola")))
	if err == nil {
		t.Fatal("Expected error from store failure")
	}
}
