// Package client calls the langcoach API: the transcription proxy and the
// authenticated REST endpoints.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/langcoach/internal/coach"
	"github.com/nikhilbhutani/langcoach/internal/models"
	"github.com/nikhilbhutani/langcoach/internal/session"
)

// APIError is a non-success answer. Message is the server's "error" field
// when it sent one, the raw body otherwise.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("request failed (%d): %s", e.StatusCode, e.Message)
}

type Config struct {
	BaseURL string
	// Token is the user's access token for /api/v1.
	Token string
	// APIKey is sent as the apikey header, as browser clients do with the
	// project's anon key.
	APIKey     string
	HTTPClient *http.Client
}

type Client struct {
	baseURL    string
	token      string
	apiKey     string
	httpClient *http.Client
}

// New builds a client. The default HTTP client has no timeout, so a slow
// transcription is only bounded by the caller's context.
func New(cfg Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		apiKey:     cfg.APIKey,
		httpClient: hc,
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, dest interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(respBody))
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if dest != nil {
		if err := json.Unmarshal(respBody, dest); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// Transcribe posts an encoded recording to the proxy and returns the text.
// A 200 answer carrying an "error" field is still a failure.
func (c *Client) Transcribe(ctx context.Context, audio, language string) (string, error) {
	body := map[string]string{"audio": audio}
	if language != "" {
		body["language"] = language
	}

	var out struct {
		Text  *string `json:"text"`
		Error string  `json:"error"`
	}
	if err := c.do(ctx, http.MethodPost, "/speech-to-text", body, &out); err != nil {
		return "", err
	}
	if out.Error != "" {
		return "", &APIError{StatusCode: http.StatusOK, Message: out.Error}
	}
	if out.Text == nil {
		return "", fmt.Errorf("transcription response has no text")
	}
	return *out.Text, nil
}

func (c *Client) Languages(ctx context.Context) ([]models.Language, error) {
	var out struct {
		Languages []models.Language `json:"languages"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/languages", nil, &out); err != nil {
		return nil, err
	}
	return out.Languages, nil
}

func (c *Client) MyLanguages(ctx context.Context) ([]models.UserLanguage, error) {
	var out struct {
		Languages []models.UserLanguage `json:"languages"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/me/languages", nil, &out); err != nil {
		return nil, err
	}
	return out.Languages, nil
}

func (c *Client) AddLanguage(ctx context.Context, languageID uuid.UUID) (*models.UserLanguage, error) {
	var out models.UserLanguage
	body := map[string]uuid.UUID{"language_id": languageID}
	if err := c.do(ctx, http.MethodPost, "/api/v1/me/languages", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type CreateSessionRequest struct {
	LanguageID uuid.UUID        `json:"language_id"`
	Text       string           `json:"text,omitempty"`
	Messages   []models.Message `json:"messages,omitempty"`
}

// CreateSession records a session. The receipt is stored or queued
// depending on how the server is configured.
func (c *Client) CreateSession(ctx context.Context, req CreateSessionRequest) (*session.Receipt, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/api/v1/sessions", req, &raw); err != nil {
		return nil, err
	}

	var receipt session.Receipt
	if err := json.Unmarshal(raw, &receipt); err == nil && receipt.Status == session.StatusQueued {
		return &receipt, nil
	}
	var stored models.PracticeSession
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &session.Receipt{Status: session.StatusStored, Session: &stored}, nil
}

func (c *Client) ListSessions(ctx context.Context, languageID *uuid.UUID, limit, offset int) ([]models.PracticeSession, error) {
	q := url.Values{}
	if languageID != nil {
		q.Set("language", languageID.String())
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	path := "/api/v1/sessions"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out struct {
		Sessions []models.PracticeSession `json:"sessions"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Sessions, nil
}

func (c *Client) CoachReply(ctx context.Context, languageID uuid.UUID, text string, history []models.Message) (*coach.Reply, error) {
	body := map[string]interface{}{
		"language_id": languageID,
		"text":        text,
	}
	if len(history) > 0 {
		body["history"] = history
	}
	var out coach.Reply
	if err := c.do(ctx, http.MethodPost, "/api/v1/coach/reply", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
