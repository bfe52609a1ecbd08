package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/langcoach/internal/coach"
	"github.com/nikhilbhutani/langcoach/internal/metrics"
	"github.com/nikhilbhutani/langcoach/internal/models"
	"github.com/nikhilbhutani/langcoach/internal/store"
)

// Replier is satisfied by *coach.Gateway.
type Replier interface {
	Reply(ctx context.Context, req coach.Request) (*coach.Reply, error)
	Enabled() bool
}

type CoachHandler struct {
	coach     Replier
	languages store.Languages
	metrics   *metrics.Metrics
}

func NewCoachHandler(c Replier, languages store.Languages, m *metrics.Metrics) *CoachHandler {
	return &CoachHandler{coach: c, languages: languages, metrics: m}
}

type CoachReplyRequest struct {
	LanguageID uuid.UUID        `json:"language_id"`
	Text       string           `json:"text"`
	History    []models.Message `json:"history,omitempty"`
}

func (h *CoachHandler) Reply(w http.ResponseWriter, r *http.Request) {
	if !h.coach.Enabled() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": coach.ErrNotConfigured.Error()})
		return
	}

	var req CoachReplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "text is required"})
		return
	}

	lang, err := h.languages.GetLanguage(r.Context(), req.LanguageID)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "language not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	resp, err := h.coach.Reply(r.Context(), coach.Request{
		LanguageName: lang.Name,
		LanguageCode: lang.Code,
		History:      req.History,
		Text:         req.Text,
	})
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}

	h.metrics.RecordCoachReply(resp.Provider)
	writeJSON(w, http.StatusOK, resp)
}
