package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Activity is an append-only observation log entry, one per detector hit,
// created regardless of whether the hit qualified for an alert.
type Activity struct {
	ID              uuid.UUID       `json:"id"`
	CameraID        uuid.UUID       `json:"camera_id"`
	CameraName      string          `json:"camera_name,omitempty"`
	ActivityType    string          `json:"activity_type"`
	Description     string          `json:"description"`
	ConfidenceScore float64         `json:"confidence_score"`
	Metadata        json.RawMessage `json:"metadata,omitempty"`
	Timestamp       time.Time       `json:"timestamp"`
	CreatedAt       time.Time       `json:"created_at"`
}
