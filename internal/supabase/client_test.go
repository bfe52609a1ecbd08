package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/nikhilbhutani/langcoach/internal/models"
	"github.com/nikhilbhutani/langcoach/internal/store"
)

func TestInsertSession(t *testing.T) {
	userID, langID := uuid.New(), uuid.New()
	sessionID := uuid.New()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/rest/v1/practice_sessions" {
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("apikey") != "service-key" || r.Header.Get("Authorization") != "Bearer service-key" {
			t.Error("Expected service key in apikey and Authorization headers")
		}
		if r.Header.Get("Prefer") != "return=representation" {
			t.Errorf("Expected return=representation, got %q", r.Header.Get("Prefer"))
		}

		var body struct {
			UserID      uuid.UUID        `json:"user_id"`
			LanguageID  uuid.UUID        `json:"language_id"`
			SessionType string           `json:"session_type"`
			Messages    []models.Message `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body.UserID != userID || body.LanguageID != langID {
			t.Error("Expected user and language IDs in body")
		}
		if len(body.Messages) != 1 || body.Messages[0].Role != "user" {
			t.Errorf("Expected one user message, got %+v", body.Messages)
		}

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode([]map[string]interface{}{{
			"id":           sessionID,
			"user_id":      body.UserID,
			"language_id":  body.LanguageID,
			"session_type": body.SessionType,
			"messages":     body.Messages,
			"created_at":   "2026-01-02T15:04:05Z",
		}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "service-key")
	got, err := c.InsertSession(context.Background(), models.NewPracticeSession(userID, langID, "ciao"))
	if err != nil {
		t.Fatalf("InsertSession returned error: %v", err)
	}
	if got.ID != sessionID {
		t.Errorf("Expected ID %s, got %s", sessionID, got.ID)
	}
	if got.Messages[0].Content != "ciao" {
		t.Errorf("Expected content ciao, got %q", got.Messages[0].Content)
	}
}

func TestListUserLanguagesFilters(t *testing.T) {
	userID := uuid.New()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("user_id") != "eq."+userID.String() {
			t.Errorf("Expected user filter, got %q", q.Get("user_id"))
		}
		if q.Get("select") != "*,language:language_id(*)" {
			t.Errorf("Expected embedded language select, got %q", q.Get("select"))
		}
		io.WriteString(w, `[{"id":"`+uuid.NewString()+`","user_id":"`+userID.String()+`","language_id":"`+uuid.NewString()+`","created_at":"2026-01-02T15:04:05Z","language":{"id":"`+uuid.NewString()+`","name":"Japanese","code":"ja","flag_emoji":"🇯🇵"}}]`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "service-key")
	out, err := c.ListUserLanguages(context.Background(), userID)
	if err != nil {
		t.Fatalf("ListUserLanguages returned error: %v", err)
	}
	if len(out) != 1 || out[0].Language == nil || out[0].Language.Name != "Japanese" {
		t.Errorf("Expected embedded Japanese language, got %+v", out)
	}
}

func TestGetLanguageNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "service-key")
	if _, err := c.GetLanguage(context.Background(), uuid.New()); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestAPIErrorSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		io.WriteString(w, `{"code":"23503","message":"violates foreign key constraint"}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "service-key")
	_, err := c.InsertSession(context.Background(), models.NewPracticeSession(uuid.New(), uuid.New(), "hej"))

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusConflict {
		t.Errorf("Expected 409, got %d", apiErr.StatusCode)
	}
}
