package queue

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestJobEnvelopeRoundTrip(t *testing.T) {
	payload := MediaArchivePayload{
		MediaID:  uuid.New(),
		CameraID: uuid.New(),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	job := Job{
		ID:        uuid.New().String(),
		Type:      JobTypeMediaArchive,
		Payload:   body,
		CreatedAt: time.Now().UTC(),
	}
	raw, err := json.Marshal(job)
	if err != nil {
		t.Fatalf("marshal job: %v", err)
	}

	var decoded Job
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal job: %v", err)
	}
	if decoded.Type != JobTypeMediaArchive {
		t.Errorf("type = %s, want %s", decoded.Type, JobTypeMediaArchive)
	}
	var got MediaArchivePayload
	if err := json.Unmarshal(decoded.Payload, &got); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if got.MediaID != payload.MediaID || got.CameraID != payload.CameraID {
		t.Errorf("payload round trip mismatch: got %+v want %+v", got, payload)
	}
}
