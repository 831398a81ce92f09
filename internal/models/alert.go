package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Alert severities, lowest to highest.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// Alert statuses.
const (
	AlertStatusPending  = "pending"
	AlertStatusResolved = "resolved"
)

// Alert types emitted by the analysis pipeline.
const (
	AlertTypeFaceSpoof          = "face_spoof"
	AlertTypeMaskViolation      = "mask_violation"
	AlertTypeSuspiciousActivity = "suspicious_activity"
	AlertTypeMediaProcessed     = "media_processed"
)

// Alert is a severity-ranked record meant for operator attention. Creation
// fields are write-once; only Status/ResolvedAt change, via resolve.
type Alert struct {
	ID         uuid.UUID       `json:"id"`
	CameraID   uuid.UUID       `json:"camera_id"`
	CameraName string          `json:"camera_name,omitempty"`
	AlertType  string          `json:"alert_type"`
	Severity   string          `json:"severity"`
	Message    string          `json:"message"`
	Status     string          `json:"status"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	ResolvedAt *time.Time      `json:"resolved_at,omitempty"`
}
