package queue

import "github.com/nikhilbhutani/langcoach/internal/models"

const (
	TypeSessionRecord = "session:record"
)

type SessionRecordPayload struct {
	Session models.PracticeSession `json:"session"`
}
