package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/nikhilbhutani/langcoach/internal/metrics"
	"github.com/nikhilbhutani/langcoach/internal/stt"
	"github.com/nikhilbhutani/langcoach/internal/transcode"
)

// maxSpeechBody bounds the JSON body: the upstream 25 MB file limit after
// base64 expansion, plus room for the envelope.
const maxSpeechBody = 36 << 20

type SpeechRequest struct {
	Audio    string `json:"audio"`
	Language string `json:"language,omitempty"`
}

// SpeechHandler is the transcription proxy. It holds no per-request state.
type SpeechHandler struct {
	provider stt.STTProvider
	metrics  *metrics.Metrics
}

func NewSpeechHandler(provider stt.STTProvider, m *metrics.Metrics) *SpeechHandler {
	return &SpeechHandler{provider: provider, metrics: m}
}

func (h *SpeechHandler) Transcribe(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSpeechBody)

	var req SpeechRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.metrics.RecordTranscriptionFailure("bad_request", 0)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Audio) == "" {
		h.metrics.RecordTranscriptionFailure("bad_request", 0)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "audio is required"})
		return
	}

	if err := h.provider.Validate(); err != nil {
		h.metrics.RecordTranscriptionFailure("configuration", 0)
		slog.Error("transcription provider unavailable", "provider", h.provider.Name(), "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	audio, err := transcode.Decode(req.Audio)
	if err != nil {
		h.metrics.RecordTranscriptionFailure("malformed_payload", 0)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	h.metrics.RecordTranscriptionRequest(len(audio))

	start := time.Now()
	resp, err := h.provider.Transcribe(r.Context(), stt.TranscriptionRequest{
		Audio:    audio,
		Language: req.Language,
	})
	elapsed := time.Since(start).Seconds()
	if err != nil {
		reason := "upstream"
		var perr *stt.ProviderError
		if errors.As(err, &perr) {
			reason = "provider"
		}
		h.metrics.RecordTranscriptionFailure(reason, elapsed)
		slog.Error("transcription failed",
			"provider", h.provider.Name(),
			"audio_bytes", len(audio),
			"error", err,
		)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	h.metrics.RecordTranscriptionSuccess(elapsed)
	slog.Debug("transcription complete", "provider", h.provider.Name(), "audio_bytes", len(audio), "chars", len(resp.Text))
	writeJSON(w, http.StatusOK, resp)
}
