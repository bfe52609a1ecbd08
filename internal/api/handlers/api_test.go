package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nikhilbhutani/langcoach/internal/auth"
	"github.com/nikhilbhutani/langcoach/internal/coach"
	"github.com/nikhilbhutani/langcoach/internal/metrics"
	"github.com/nikhilbhutani/langcoach/internal/models"
	"github.com/nikhilbhutani/langcoach/internal/queue"
	"github.com/nikhilbhutani/langcoach/internal/session"
	"github.com/nikhilbhutani/langcoach/internal/store"
)

type memStore struct {
	mu        sync.Mutex
	languages []models.Language
	mine      map[uuid.UUID][]models.UserLanguage
	sessions  []models.PracticeSession
	lastQuery store.SessionQuery
}

func newMemStore(langs ...models.Language) *memStore {
	return &memStore{languages: langs, mine: map[uuid.UUID][]models.UserLanguage{}}
}

func (s *memStore) ListLanguages(context.Context) ([]models.Language, error) {
	return s.languages, nil
}

func (s *memStore) GetLanguage(_ context.Context, id uuid.UUID) (*models.Language, error) {
	for _, l := range s.languages {
		if l.ID == id {
			l := l
			return &l, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *memStore) ListUserLanguages(_ context.Context, userID uuid.UUID) ([]models.UserLanguage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mine[userID], nil
}

func (s *memStore) AddUserLanguage(ctx context.Context, userID, languageID uuid.UUID) (*models.UserLanguage, error) {
	lang, err := s.GetLanguage(ctx, languageID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ul := range s.mine[userID] {
		if ul.LanguageID == languageID {
			return &ul, nil
		}
	}
	ul := models.UserLanguage{ID: uuid.New(), UserID: userID, LanguageID: languageID, CreatedAt: time.Now(), Language: lang}
	s.mine[userID] = append(s.mine[userID], ul)
	return &ul, nil
}

func (s *memStore) InsertSession(_ context.Context, ps *models.PracticeSession) (*models.PracticeSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := *ps
	out.ID = uuid.New()
	out.CreatedAt = time.Now()
	s.sessions = append(s.sessions, out)
	return &out, nil
}

func (s *memStore) ListSessions(_ context.Context, q store.SessionQuery) ([]models.PracticeSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastQuery = q
	var out []models.PracticeSession
	for _, ps := range s.sessions {
		if ps.UserID == q.UserID && (q.LanguageID == nil || ps.LanguageID == *q.LanguageID) {
			out = append(out, ps)
		}
	}
	return out, nil
}

func (s *memStore) Ping(context.Context) error { return nil }

var italian = models.Language{ID: uuid.New(), Name: "Italian", Code: "it", FlagEmoji: "🇮🇹"}

func authed(method, target, body string, userID uuid.UUID) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	return req.WithContext(auth.WithUser(req.Context(), &auth.User{ID: userID}))
}

func TestAddAndListMyLanguages(t *testing.T) {
	st := newMemStore(italian)
	h := NewLanguageHandler(st)
	userID := uuid.New()

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.AddMine(rec, authed(http.MethodPost, "/api/v1/me/languages", `{"language_id":"`+italian.ID.String()+`"}`, userID))
		if rec.Code != http.StatusCreated {
			t.Fatalf("add %d: expected 201, got %d", i, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	h.ListMine(rec, authed(http.MethodGet, "/api/v1/me/languages", "", userID))
	var out struct {
		Languages []models.UserLanguage `json:"languages"`
	}
	json.NewDecoder(rec.Body).Decode(&out)
	if len(out.Languages) != 1 {
		t.Fatalf("Expected adding twice to keep one row, got %d", len(out.Languages))
	}
	if out.Languages[0].Language == nil || out.Languages[0].Language.Code != "it" {
		t.Errorf("Expected joined language, got %+v", out.Languages[0])
	}
}

func TestAddUnknownLanguage(t *testing.T) {
	h := NewLanguageHandler(newMemStore(italian))

	rec := httptest.NewRecorder()
	h.AddMine(rec, authed(http.MethodPost, "/api/v1/me/languages", `{"language_id":"`+uuid.NewString()+`"}`, uuid.New()))
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.AddMine(rec, authed(http.MethodPost, "/api/v1/me/languages", `{}`, uuid.New()))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}

func TestListLanguagesEmptyIsArray(t *testing.T) {
	h := NewLanguageHandler(newMemStore())
	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/languages", nil))
	if !strings.Contains(rec.Body.String(), `"languages":[]`) {
		t.Errorf("Expected empty array, got %s", rec.Body.String())
	}
}

func TestCreateSessionDirect(t *testing.T) {
	st := newMemStore(italian)
	h := NewSessionHandler(session.NewDirectRecorder(st), st, metrics.New(prometheus.NewRegistry()))
	userID := uuid.New()

	rec := httptest.NewRecorder()
	h.Create(rec, authed(http.MethodPost, "/api/v1/sessions", `{"language_id":"`+italian.ID.String()+`","text":"buongiorno"}`, userID))

	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var got models.PracticeSession
	json.NewDecoder(rec.Body).Decode(&got)
	if got.ID == uuid.Nil || got.UserID != userID {
		t.Errorf("Expected stored session for user, got %+v", got)
	}
	if got.SessionType != models.SessionTypeConversation || len(got.Messages) != 1 || got.Messages[0].Role != models.RoleUser || got.Messages[0].Content != "buongiorno" {
		t.Errorf("Unexpected session shape %+v", got)
	}
}

type fakeEnqueuer struct{ payloads int }

func (f *fakeEnqueuer) EnqueueSessionRecord(context.Context, queue.SessionRecordPayload) (string, error) {
	f.payloads++
	return "task-1", nil
}

func TestCreateSessionQueued(t *testing.T) {
	st := newMemStore(italian)
	q := &fakeEnqueuer{}
	h := NewSessionHandler(session.NewQueueRecorder(q), st, metrics.New(prometheus.NewRegistry()))

	rec := httptest.NewRecorder()
	h.Create(rec, authed(http.MethodPost, "/api/v1/sessions", `{"language_id":"`+italian.ID.String()+`","text":"ciao"}`, uuid.New()))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("Expected 202, got %d", rec.Code)
	}
	var receipt session.Receipt
	json.NewDecoder(rec.Body).Decode(&receipt)
	if receipt.Status != session.StatusQueued || receipt.TaskID != "task-1" {
		t.Errorf("Unexpected receipt %+v", receipt)
	}
	if len(st.sessions) != 0 {
		t.Error("Expected nothing stored synchronously")
	}
}

func TestCreateSessionInvalid(t *testing.T) {
	st := newMemStore(italian)
	h := NewSessionHandler(session.NewDirectRecorder(st), st, metrics.New(prometheus.NewRegistry()))

	tests := []struct {
		name string
		body string
	}{
		{"blank text", `{"language_id":"` + italian.ID.String() + `","text":"  "}`},
		{"missing language", `{"text":"ciao"}`},
		{"bad role", `{"language_id":"` + italian.ID.String() + `","messages":[{"role":"narrator","content":"x"}]}`},
		{"bad json", `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Create(rec, authed(http.MethodPost, "/api/v1/sessions", tt.body, uuid.New()))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d", rec.Code)
			}
		})
	}
	if len(st.sessions) != 0 {
		t.Errorf("Expected no stored sessions, got %d", len(st.sessions))
	}
}

func TestListSessionsQuery(t *testing.T) {
	st := newMemStore(italian)
	h := NewSessionHandler(session.NewDirectRecorder(st), st, metrics.New(prometheus.NewRegistry()))
	userID := uuid.New()

	rec := httptest.NewRecorder()
	h.List(rec, authed(http.MethodGet, "/api/v1/sessions?language="+italian.ID.String()+"&limit=5&offset=10", "", userID))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if st.lastQuery.UserID != userID || st.lastQuery.LanguageID == nil || *st.lastQuery.LanguageID != italian.ID {
		t.Errorf("Unexpected query %+v", st.lastQuery)
	}
	if st.lastQuery.Limit != 5 || st.lastQuery.Offset != 10 {
		t.Errorf("Expected limit 5 offset 10, got %d %d", st.lastQuery.Limit, st.lastQuery.Offset)
	}

	rec = httptest.NewRecorder()
	h.List(rec, authed(http.MethodGet, "/api/v1/sessions?language=nope", "", userID))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad language id, got %d", rec.Code)
	}
}

type fakeCoach struct {
	enabled bool
	err     error
	last    coach.Request
}

func (f *fakeCoach) Enabled() bool { return f.enabled }

func (f *fakeCoach) Reply(_ context.Context, req coach.Request) (*coach.Reply, error) {
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return &coach.Reply{Provider: "openai", Content: "Ciao! Come stai?"}, nil
}

func TestCoachReply(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	body := `{"language_id":"` + italian.ID.String() + `","text":"ciao"}`

	t.Run("disabled", func(t *testing.T) {
		h := NewCoachHandler(&fakeCoach{}, newMemStore(italian), m)
		rec := httptest.NewRecorder()
		h.Reply(rec, authed(http.MethodPost, "/api/v1/coach/reply", body, uuid.New()))
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("Expected 503, got %d", rec.Code)
		}
	})

	t.Run("ok", func(t *testing.T) {
		fc := &fakeCoach{enabled: true}
		h := NewCoachHandler(fc, newMemStore(italian), m)
		rec := httptest.NewRecorder()
		h.Reply(rec, authed(http.MethodPost, "/api/v1/coach/reply", body, uuid.New()))
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rec.Code)
		}
		if fc.last.LanguageName != "Italian" || fc.last.Text != "ciao" {
			t.Errorf("Unexpected coach request %+v", fc.last)
		}
	})

	t.Run("provider error", func(t *testing.T) {
		h := NewCoachHandler(&fakeCoach{enabled: true, err: errors.New("upstream down")}, newMemStore(italian), m)
		rec := httptest.NewRecorder()
		h.Reply(rec, authed(http.MethodPost, "/api/v1/coach/reply", body, uuid.New()))
		if rec.Code != http.StatusBadGateway {
			t.Errorf("Expected 502, got %d", rec.Code)
		}
	})

	t.Run("unknown language", func(t *testing.T) {
		h := NewCoachHandler(&fakeCoach{enabled: true}, newMemStore(), m)
		rec := httptest.NewRecorder()
		h.Reply(rec, authed(http.MethodPost, "/api/v1/coach/reply", body, uuid.New()))
		if rec.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", rec.Code)
		}
	})
}

func TestReadyz(t *testing.T) {
	h := NewHealthHandler(map[string]Pinger{
		"database": newMemStore(),
		"redis":    PingFunc(func(context.Context) error { return errors.New("connection refused") }),
		"skipped":  nil,
	})

	rec := httptest.NewRecorder()
	h.Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503, got %d", rec.Code)
	}
	var out struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	json.NewDecoder(rec.Body).Decode(&out)
	if out.Checks["database"] != "ok" || !strings.HasPrefix(out.Checks["redis"], "unhealthy") {
		t.Errorf("Unexpected checks %+v", out.Checks)
	}
	if _, ok := out.Checks["skipped"]; ok {
		t.Error("Expected nil pinger to be skipped")
	}
}
