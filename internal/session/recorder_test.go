package session

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/nikhilbhutani/langcoach/internal/models"
	"github.com/nikhilbhutani/langcoach/internal/queue"
	"github.com/nikhilbhutani/langcoach/internal/store"
)

type memSessions struct {
	rows []models.PracticeSession
	err  error
}

func (m *memSessions) InsertSession(ctx context.Context, s *models.PracticeSession) (*models.PracticeSession, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := *s
	out.ID = uuid.New()
	m.rows = append(m.rows, out)
	return &out, nil
}

func (m *memSessions) ListSessions(ctx context.Context, q store.SessionQuery) ([]models.PracticeSession, error) {
	return m.rows, nil
}

type fakeEnqueuer struct {
	payloads []queue.SessionRecordPayload
	err      error
}

func (f *fakeEnqueuer) EnqueueSessionRecord(ctx context.Context, p queue.SessionRecordPayload) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.payloads = append(f.payloads, p)
	return "task-1", nil
}

func TestDirectRecorderStoresTranscript(t *testing.T) {
	sessions := &memSessions{}
	r := NewDirectRecorder(sessions)
	userID, langID := uuid.New(), uuid.New()

	receipt, err := Transcript(context.Background(), r, userID, langID, "obrigado")
	if err != nil {
		t.Fatalf("Transcript returned error: %v", err)
	}
	if receipt.Status != StatusStored || receipt.Session == nil || receipt.Session.ID == uuid.Nil {
		t.Fatalf("Expected stored receipt with ID, got %+v", receipt)
	}
	if len(sessions.rows) != 1 {
		t.Fatalf("Expected one row, got %d", len(sessions.rows))
	}
	row := sessions.rows[0]
	if row.UserID != userID || row.LanguageID != langID || row.SessionType != models.SessionTypeConversation {
		t.Errorf("Unexpected row %+v", row)
	}
	if len(row.Messages) != 1 || row.Messages[0] != (models.Message{Role: "user", Content: "obrigado"}) {
		t.Errorf("Expected one user message, got %+v", row.Messages)
	}
}

func TestDirectRecorderSurfacesFailures(t *testing.T) {
	storeErr := errors.New("insert failed")
	r := NewDirectRecorder(&memSessions{err: storeErr})

	if _, err := Transcript(context.Background(), r, uuid.New(), uuid.New(), "hola"); !errors.Is(err, storeErr) {
		t.Errorf("Expected store error, got %v", err)
	}
	if _, err := Transcript(context.Background(), r, uuid.New(), uuid.New(), ""); !errors.Is(err, models.ErrInvalidSession) {
		t.Errorf("Expected ErrInvalidSession for empty transcript, got %v", err)
	}
}

func TestQueueRecorder(t *testing.T) {
	q := &fakeEnqueuer{}
	r := NewQueueRecorder(q)

	receipt, err := Transcript(context.Background(), r, uuid.New(), uuid.New(), "merci")
	if err != nil {
		t.Fatalf("Transcript returned error: %v", err)
	}
	if receipt.Status != StatusQueued || receipt.TaskID != "task-1" {
		t.Errorf("Expected queued receipt, got %+v", receipt)
	}
	if len(q.payloads) != 1 || q.payloads[0].Session.Messages[0].Content != "merci" {
		t.Errorf("Unexpected payloads %+v", q.payloads)
	}

	q.err = errors.New("redis down")
	if _, err := Transcript(context.Background(), r, uuid.New(), uuid.New(), "merci"); err == nil {
		t.Error("Expected enqueue failure to be returned")
	}
}
