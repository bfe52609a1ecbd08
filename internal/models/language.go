package models

import (
	"time"

	"github.com/google/uuid"
)

type Language struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Code      string    `json:"code" db:"code"`
	FlagEmoji string    `json:"flag_emoji,omitempty" db:"flag_emoji"`
}

type UserLanguage struct {
	ID         uuid.UUID `json:"id" db:"id"`
	UserID     uuid.UUID `json:"user_id" db:"user_id"`
	LanguageID uuid.UUID `json:"language_id" db:"language_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	Language   *Language `json:"language,omitempty"`
}
