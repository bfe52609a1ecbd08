package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

const (
	SessionTypeConversation  = "conversation"
	SessionTypePronunciation = "pronunciation"
)

var ErrInvalidSession = errors.New("invalid practice session")

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type PracticeSession struct {
	ID          uuid.UUID `json:"id" db:"id"`
	UserID      uuid.UUID `json:"user_id" db:"user_id"`
	LanguageID  uuid.UUID `json:"language_id" db:"language_id"`
	SessionType string    `json:"session_type" db:"session_type"`
	Messages    []Message `json:"messages" db:"messages"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// NewPracticeSession builds the record stored after one successful
// transcription: a conversation holding the learner's utterance.
func NewPracticeSession(userID, languageID uuid.UUID, text string) *PracticeSession {
	return &PracticeSession{
		UserID:      userID,
		LanguageID:  languageID,
		SessionType: SessionTypeConversation,
		Messages:    []Message{{Role: RoleUser, Content: text}},
	}
}

func (s *PracticeSession) Validate() error {
	if s.UserID == uuid.Nil {
		return fmt.Errorf("%w: user_id required", ErrInvalidSession)
	}
	if s.LanguageID == uuid.Nil {
		return fmt.Errorf("%w: language_id required", ErrInvalidSession)
	}
	switch s.SessionType {
	case SessionTypeConversation, SessionTypePronunciation:
	default:
		return fmt.Errorf("%w: unknown session_type %q", ErrInvalidSession, s.SessionType)
	}
	if len(s.Messages) == 0 {
		return fmt.Errorf("%w: at least one message required", ErrInvalidSession)
	}
	for i, m := range s.Messages {
		switch m.Role {
		case RoleUser, RoleAssistant, RoleSystem:
		default:
			return fmt.Errorf("%w: message %d has unknown role %q", ErrInvalidSession, i, m.Role)
		}
		if strings.TrimSpace(m.Content) == "" {
			return fmt.Errorf("%w: message %d is empty", ErrInvalidSession, i)
		}
	}
	return nil
}
