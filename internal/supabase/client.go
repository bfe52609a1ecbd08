// Package supabase talks to a Supabase project's PostgREST API. It is the
// alternative persistence backend when the service has no direct database
// connection.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/nikhilbhutani/langcoach/internal/models"
	"github.com/nikhilbhutani/langcoach/internal/store"
)

// APIError is a non-success PostgREST response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("supabase request failed (%d): %s", e.StatusCode, e.Body)
}

type Client struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
}

func NewClient(supabaseURL, serviceKey string) *Client {
	return &Client{
		baseURL:    supabaseURL + "/rest/v1",
		serviceKey: serviceKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

var _ store.Store = (*Client)(nil)

func (c *Client) do(ctx context.Context, method, table string, query url.Values, body interface{}, prefer string, dest interface{}) error {
	u := fmt.Sprintf("%s/%s", c.baseURL, table)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s body: %w", table, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("create %s request: %w", table, err)
	}
	req.Header.Set("apikey", c.serviceKey)
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, table, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", table, err)
	}

	if resp.StatusCode >= 400 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if dest != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, dest); err != nil {
			return fmt.Errorf("decode %s response: %w", table, err)
		}
	}
	return nil
}

func (c *Client) Ping(ctx context.Context) error {
	q := url.Values{"select": {"id"}, "limit": {"1"}}
	return c.do(ctx, http.MethodGet, "languages", q, nil, "", nil)
}

func (c *Client) ListLanguages(ctx context.Context) ([]models.Language, error) {
	q := url.Values{"select": {"*"}, "order": {"name.asc"}}
	var langs []models.Language
	if err := c.do(ctx, http.MethodGet, "languages", q, nil, "", &langs); err != nil {
		return nil, err
	}
	return langs, nil
}

func (c *Client) GetLanguage(ctx context.Context, id uuid.UUID) (*models.Language, error) {
	q := url.Values{"select": {"*"}, "id": {"eq." + id.String()}}
	var langs []models.Language
	if err := c.do(ctx, http.MethodGet, "languages", q, nil, "", &langs); err != nil {
		return nil, err
	}
	if len(langs) == 0 {
		return nil, store.ErrNotFound
	}
	return &langs[0], nil
}

func (c *Client) ListUserLanguages(ctx context.Context, userID uuid.UUID) ([]models.UserLanguage, error) {
	q := url.Values{
		"select":  {"*,language:language_id(*)"},
		"user_id": {"eq." + userID.String()},
		"order":   {"created_at.asc"},
	}
	var out []models.UserLanguage
	if err := c.do(ctx, http.MethodGet, "user_languages", q, nil, "", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AddUserLanguage(ctx context.Context, userID, languageID uuid.UUID) (*models.UserLanguage, error) {
	lang, err := c.GetLanguage(ctx, languageID)
	if err != nil {
		return nil, err
	}

	q := url.Values{"on_conflict": {"user_id,language_id"}}
	body := map[string]string{
		"user_id":     userID.String(),
		"language_id": languageID.String(),
	}
	var rows []models.UserLanguage
	if err := c.do(ctx, http.MethodPost, "user_languages", q, body, "resolution=merge-duplicates,return=representation", &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("insert user language: empty response")
	}
	ul := rows[0]
	ul.Language = lang
	return &ul, nil
}

func (c *Client) InsertSession(ctx context.Context, s *models.PracticeSession) (*models.PracticeSession, error) {
	body := map[string]interface{}{
		"user_id":      s.UserID,
		"language_id":  s.LanguageID,
		"session_type": s.SessionType,
		"messages":     s.Messages,
	}
	var rows []models.PracticeSession
	if err := c.do(ctx, http.MethodPost, "practice_sessions", nil, body, "return=representation", &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("insert practice session: empty response")
	}
	return &rows[0], nil
}

func (c *Client) ListSessions(ctx context.Context, sq store.SessionQuery) ([]models.PracticeSession, error) {
	if sq.Limit <= 0 || sq.Limit > 100 {
		sq.Limit = 20
	}
	q := url.Values{
		"select":  {"*"},
		"user_id": {"eq." + sq.UserID.String()},
		"order":   {"created_at.desc"},
		"limit":   {strconv.Itoa(sq.Limit)},
		"offset":  {strconv.Itoa(max(sq.Offset, 0))},
	}
	if sq.LanguageID != nil {
		q.Set("language_id", "eq."+sq.LanguageID.String())
	}
	var out []models.PracticeSession
	if err := c.do(ctx, http.MethodGet, "practice_sessions", q, nil, "", &out); err != nil {
		return nil, err
	}
	return out, nil
}
