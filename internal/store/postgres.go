package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikhilbhutani/langcoach/internal/models"
)

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *PostgresStore) ListLanguages(ctx context.Context) ([]models.Language, error) {
	rows, err := s.db.Query(ctx,
		"SELECT id, name, code, flag_emoji FROM languages ORDER BY name",
	)
	if err != nil {
		return nil, fmt.Errorf("list languages: %w", err)
	}
	defer rows.Close()

	var langs []models.Language
	for rows.Next() {
		var l models.Language
		if err := rows.Scan(&l.ID, &l.Name, &l.Code, &l.FlagEmoji); err != nil {
			return nil, fmt.Errorf("scan language: %w", err)
		}
		langs = append(langs, l)
	}
	return langs, rows.Err()
}

func (s *PostgresStore) GetLanguage(ctx context.Context, id uuid.UUID) (*models.Language, error) {
	var l models.Language
	err := s.db.QueryRow(ctx,
		"SELECT id, name, code, flag_emoji FROM languages WHERE id = $1", id,
	).Scan(&l.ID, &l.Name, &l.Code, &l.FlagEmoji)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get language: %w", err)
	}
	return &l, nil
}

func (s *PostgresStore) ListUserLanguages(ctx context.Context, userID uuid.UUID) ([]models.UserLanguage, error) {
	rows, err := s.db.Query(ctx,
		`SELECT ul.id, ul.user_id, ul.language_id, ul.created_at, l.id, l.name, l.code, l.flag_emoji
		 FROM user_languages ul JOIN languages l ON l.id = ul.language_id
		 WHERE ul.user_id = $1 ORDER BY ul.created_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list user languages: %w", err)
	}
	defer rows.Close()

	var out []models.UserLanguage
	for rows.Next() {
		var ul models.UserLanguage
		var l models.Language
		if err := rows.Scan(&ul.ID, &ul.UserID, &ul.LanguageID, &ul.CreatedAt, &l.ID, &l.Name, &l.Code, &l.FlagEmoji); err != nil {
			return nil, fmt.Errorf("scan user language: %w", err)
		}
		ul.Language = &l
		out = append(out, ul)
	}
	return out, rows.Err()
}

// AddUserLanguage is idempotent: adding a language twice returns the
// existing row.
func (s *PostgresStore) AddUserLanguage(ctx context.Context, userID, languageID uuid.UUID) (*models.UserLanguage, error) {
	lang, err := s.GetLanguage(ctx, languageID)
	if err != nil {
		return nil, err
	}

	var ul models.UserLanguage
	err = s.db.QueryRow(ctx,
		`INSERT INTO user_languages (user_id, language_id) VALUES ($1, $2)
		 ON CONFLICT (user_id, language_id) DO UPDATE SET user_id = EXCLUDED.user_id
		 RETURNING id, user_id, language_id, created_at`,
		userID, languageID,
	).Scan(&ul.ID, &ul.UserID, &ul.LanguageID, &ul.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert user language: %w", err)
	}
	ul.Language = lang
	return &ul, nil
}

func (s *PostgresStore) InsertSession(ctx context.Context, ps *models.PracticeSession) (*models.PracticeSession, error) {
	messages, err := json.Marshal(ps.Messages)
	if err != nil {
		return nil, fmt.Errorf("marshal messages: %w", err)
	}

	out := *ps
	err = s.db.QueryRow(ctx,
		`INSERT INTO practice_sessions (user_id, language_id, session_type, messages)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		ps.UserID, ps.LanguageID, ps.SessionType, messages,
	).Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert practice session: %w", err)
	}
	return &out, nil
}

func (s *PostgresStore) ListSessions(ctx context.Context, q SessionQuery) ([]models.PracticeSession, error) {
	q.normalize()

	query := `SELECT id, user_id, language_id, session_type, messages, created_at
			  FROM practice_sessions WHERE user_id = $1`
	args := []interface{}{q.UserID}
	argIdx := 2

	if q.LanguageID != nil {
		query += fmt.Sprintf(" AND language_id = $%d", argIdx)
		args = append(args, *q.LanguageID)
		argIdx++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, q.Limit, q.Offset)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query practice sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.PracticeSession
	for rows.Next() {
		var ps models.PracticeSession
		var messages json.RawMessage
		if err := rows.Scan(&ps.ID, &ps.UserID, &ps.LanguageID, &ps.SessionType, &messages, &ps.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan practice session: %w", err)
		}
		if err := json.Unmarshal(messages, &ps.Messages); err != nil {
			return nil, fmt.Errorf("decode messages of session %s: %w", ps.ID, err)
		}
		sessions = append(sessions, ps)
	}
	return sessions, rows.Err()
}
