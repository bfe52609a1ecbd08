// Package store persists languages, user language choices and practice
// sessions. Postgres (pgx) and Supabase REST backends share one interface.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/nikhilbhutani/langcoach/internal/models"
)

var ErrNotFound = errors.New("not found")

type Languages interface {
	ListLanguages(ctx context.Context) ([]models.Language, error)
	GetLanguage(ctx context.Context, id uuid.UUID) (*models.Language, error)
	ListUserLanguages(ctx context.Context, userID uuid.UUID) ([]models.UserLanguage, error)
	AddUserLanguage(ctx context.Context, userID, languageID uuid.UUID) (*models.UserLanguage, error)
}

type Sessions interface {
	InsertSession(ctx context.Context, s *models.PracticeSession) (*models.PracticeSession, error)
	ListSessions(ctx context.Context, q SessionQuery) ([]models.PracticeSession, error)
}

type Store interface {
	Languages
	Sessions
	Ping(ctx context.Context) error
}

type SessionQuery struct {
	UserID     uuid.UUID
	LanguageID *uuid.UUID
	Limit      int
	Offset     int
}

func (q *SessionQuery) normalize() {
	if q.Limit <= 0 || q.Limit > 100 {
		q.Limit = 20
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
}
