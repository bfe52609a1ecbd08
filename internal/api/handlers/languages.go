package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/langcoach/internal/auth"
	"github.com/nikhilbhutani/langcoach/internal/models"
	"github.com/nikhilbhutani/langcoach/internal/store"
)

type LanguageHandler struct {
	languages store.Languages
}

func NewLanguageHandler(languages store.Languages) *LanguageHandler {
	return &LanguageHandler{languages: languages}
}

func (h *LanguageHandler) List(w http.ResponseWriter, r *http.Request) {
	langs, err := h.languages.ListLanguages(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if langs == nil {
		langs = []models.Language{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"languages": langs})
}

func (h *LanguageHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	out, err := h.languages.ListUserLanguages(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if out == nil {
		out = []models.UserLanguage{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"languages": out})
}

func (h *LanguageHandler) AddMine(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LanguageID uuid.UUID `json:"language_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.LanguageID == uuid.Nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "language_id is required"})
		return
	}

	userID := auth.UserIDFromContext(r.Context())
	ul, err := h.languages.AddUserLanguage(r.Context(), userID, req.LanguageID)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "language not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusCreated, ul)
}
