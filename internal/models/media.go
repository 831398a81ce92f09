package models

import (
	"time"

	"github.com/google/uuid"
)

// MediaKind distinguishes uploaded media types.
type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindVideo MediaKind = "video"
)

// MediaAsset is one uploaded image or video file. Creation fields are
// immutable; only ArchiveURL is set later, once, by the archive worker.
type MediaAsset struct {
	ID           uuid.UUID `json:"id"`
	CameraID     uuid.UUID `json:"camera_id"`
	Kind         MediaKind `json:"kind"`
	StoragePath  string    `json:"storage_path"`
	OriginalName string    `json:"original_name"`
	ContentType  string    `json:"content_type,omitempty"`
	SizeBytes    int64     `json:"size_bytes"`
	ArchiveURL   string    `json:"archive_url,omitempty"`
	UploadedAt   time.Time `json:"uploaded_at"`
}
