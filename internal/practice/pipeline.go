// Package practice runs one recording cycle end to end: captured blob,
// encoding, transcription, and recording of the resulting session.
package practice

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/langcoach/internal/capture"
	"github.com/nikhilbhutani/langcoach/internal/client"
	"github.com/nikhilbhutani/langcoach/internal/coach"
	"github.com/nikhilbhutani/langcoach/internal/models"
	"github.com/nikhilbhutani/langcoach/internal/session"
	"github.com/nikhilbhutani/langcoach/internal/transcode"
)

// NoSpeechText is shown when the provider returned no words.
const NoSpeechText = "No transcription found"

type Outcome int

const (
	OutcomeTranscribed Outcome = iota
	OutcomeNoSpeech
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeTranscribed:
		return "transcribed"
	case OutcomeNoSpeech:
		return "no_speech"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result of one cycle. Err is set for OutcomeFailed. RecordErr and ReplyErr
// report later steps that failed after a good transcription.
type Result struct {
	Outcome   Outcome
	Text      string
	Display   string
	AudioSize int
	Receipt   *session.Receipt
	Reply     *coach.Reply
	Err       error
	RecordErr error
	ReplyErr  error
}

type Transcriber interface {
	Transcribe(ctx context.Context, audio, language string) (string, error)
}

type SessionRecorder interface {
	CreateSession(ctx context.Context, req client.CreateSessionRequest) (*session.Receipt, error)
}

type Coach interface {
	CoachReply(ctx context.Context, languageID uuid.UUID, text string, history []models.Message) (*coach.Reply, error)
}

type Config struct {
	LanguageID   uuid.UUID
	LanguageCode string // optional hint for the provider
	// Coach, when set, asks for a tutor reply and stores it with the
	// learner's message.
	Coach Coach
}

type Pipeline struct {
	transcriber Transcriber
	recorder    SessionRecorder
	cfg         Config
	results     chan Result
}

func NewPipeline(t Transcriber, r SessionRecorder, cfg Config) *Pipeline {
	return &Pipeline{
		transcriber: t,
		recorder:    r,
		cfg:         cfg,
		results:     make(chan Result, 1),
	}
}

// OnComplete returns a capture completion callback. Each blob is processed
// on its own goroutine and its Result delivered on Results.
func (p *Pipeline) OnComplete(ctx context.Context) func(capture.Blob) {
	return func(blob capture.Blob) {
		go func() {
			res := p.Process(ctx, blob)
			select {
			case p.results <- res:
			case <-ctx.Done():
			}
		}()
	}
}

func (p *Pipeline) Results() <-chan Result {
	return p.results
}

// Process encodes the blob, transcribes it and records a session when
// there is text. It never panics on provider output and never drops an
// error silently.
func (p *Pipeline) Process(ctx context.Context, blob capture.Blob) Result {
	res := Result{AudioSize: len(blob.Data)}

	encoded := transcode.Encode(blob.Data)
	slog.Debug("sending audio for transcription",
		"bytes", len(blob.Data),
		"encoded_len", len(encoded),
		"content_type", blob.ContentType,
	)

	text, err := p.transcriber.Transcribe(ctx, encoded, p.cfg.LanguageCode)
	if err != nil {
		res.Outcome = OutcomeFailed
		res.Err = fmt.Errorf("transcribe: %w", err)
		res.Display = res.Err.Error()
		return res
	}

	if strings.TrimSpace(text) == "" {
		res.Outcome = OutcomeNoSpeech
		res.Display = NoSpeechText
		return res
	}

	res.Outcome = OutcomeTranscribed
	res.Text = text
	res.Display = text

	messages := []models.Message{{Role: models.RoleUser, Content: text}}
	if p.cfg.Coach != nil {
		reply, err := p.cfg.Coach.CoachReply(ctx, p.cfg.LanguageID, text, nil)
		if err != nil {
			res.ReplyErr = fmt.Errorf("coach reply: %w", err)
		} else if strings.TrimSpace(reply.Content) != "" {
			res.Reply = reply
			messages = append(messages, models.Message{Role: models.RoleAssistant, Content: reply.Content})
		}
	}

	receipt, err := p.recorder.CreateSession(ctx, client.CreateSessionRequest{
		LanguageID: p.cfg.LanguageID,
		Text:       text,
		Messages:   messages,
	})
	if err != nil {
		res.RecordErr = fmt.Errorf("record session: %w", err)
		return res
	}
	res.Receipt = receipt
	return res
}
