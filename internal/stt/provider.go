package stt

import (
	"context"
	"errors"
	"fmt"
)

// ErrMissingCredential is returned by Validate when the provider needs an
// API key that was not configured.
var ErrMissingCredential = errors.New("transcription provider is not configured")

// TranscriptionRequest holds the audio to transcribe.
type TranscriptionRequest struct {
	Audio       []byte
	Filename    string // default: "audio.webm"
	ContentType string // default: "audio/webm"
	Language    string // optional ISO-639-1 hint
}

// TranscriptionResponse holds the transcription result.
type TranscriptionResponse struct {
	Text string `json:"text"`
}

// ProviderError is a non-success response from the provider. Body is kept
// verbatim so callers can surface it.
type ProviderError struct {
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("transcription failed (status %d): %s", e.StatusCode, e.Body)
}

// STTProvider is the interface for speech-to-text backends.
type STTProvider interface {
	Transcribe(ctx context.Context, req TranscriptionRequest) (*TranscriptionResponse, error)
	// Validate reports whether the provider has what it needs to make calls.
	Validate() error
	Name() string
}
