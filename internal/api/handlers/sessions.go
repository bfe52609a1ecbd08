package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/langcoach/internal/auth"
	"github.com/nikhilbhutani/langcoach/internal/metrics"
	"github.com/nikhilbhutani/langcoach/internal/models"
	"github.com/nikhilbhutani/langcoach/internal/session"
	"github.com/nikhilbhutani/langcoach/internal/store"
)

type SessionHandler struct {
	recorder session.Recorder
	sessions store.Sessions
	metrics  *metrics.Metrics
}

func NewSessionHandler(recorder session.Recorder, sessions store.Sessions, m *metrics.Metrics) *SessionHandler {
	return &SessionHandler{recorder: recorder, sessions: sessions, metrics: m}
}

type CreateSessionRequest struct {
	LanguageID  uuid.UUID        `json:"language_id"`
	Text        string           `json:"text,omitempty"`
	SessionType string           `json:"session_type,omitempty"`
	Messages    []models.Message `json:"messages,omitempty"`
}

// Create records a session. A bare text becomes the single-message
// transcript session; explicit messages are stored as given.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	userID := auth.UserIDFromContext(r.Context())
	ps := models.NewPracticeSession(userID, req.LanguageID, req.Text)
	if len(req.Messages) > 0 {
		ps.Messages = req.Messages
	}
	if req.SessionType != "" {
		ps.SessionType = req.SessionType
	}

	receipt, err := h.recorder.Record(r.Context(), ps)
	if errors.Is(err, models.ErrInvalidSession) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		h.metrics.RecordSession("failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	h.metrics.RecordSession(string(receipt.Status))

	if receipt.Status == session.StatusQueued {
		writeJSON(w, http.StatusAccepted, receipt)
		return
	}
	writeJSON(w, http.StatusCreated, receipt.Session)
}

func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	q := store.SessionQuery{UserID: auth.UserIDFromContext(r.Context())}

	if v := strings.TrimSpace(r.URL.Query().Get("language")); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid language id"})
			return
		}
		q.LanguageID = &id
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		q.Limit, _ = strconv.Atoi(v)
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		q.Offset, _ = strconv.Atoi(v)
	}

	sessions, err := h.sessions.ListSessions(r.Context(), q)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if sessions == nil {
		sessions = []models.PracticeSession{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions})
}
