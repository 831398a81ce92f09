package models

import (
	"time"

	"github.com/google/uuid"
)

// AllowedPerson is a whitelisted person for restricted zones.
type AllowedPerson struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	PhotoPath   string    `json:"photo_path,omitempty"`
	CreatedBy   uuid.UUID `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}
