package models

import (
	"time"

	"github.com/google/uuid"
)

// Organizer is the account that owns a guest list
type Organizer struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
