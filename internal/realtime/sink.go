package realtime

import (
	"context"

	"github.com/asmita-kamble/smart-cctv-app/internal/analysis"
	"github.com/asmita-kamble/smart-cctv-app/internal/models"
)

// BroadcastSink decorates an analysis sink so persisted alerts and
// activities are also pushed to live camera watchers.
type BroadcastSink struct {
	next analysis.Sink
	hub  *Hub
}

// NewBroadcastSink wraps next with hub broadcasts.
func NewBroadcastSink(next analysis.Sink, hub *Hub) *BroadcastSink {
	return &BroadcastSink{next: next, hub: hub}
}

func (s *BroadcastSink) CreateAlert(ctx context.Context, a *models.Alert) error {
	if err := s.next.CreateAlert(ctx, a); err != nil {
		return err
	}
	s.hub.BroadcastToCameraAndPublish(a.CameraID, EventAlertCreated, a)
	return nil
}

func (s *BroadcastSink) CreateActivity(ctx context.Context, a *models.Activity) error {
	if err := s.next.CreateActivity(ctx, a); err != nil {
		return err
	}
	s.hub.BroadcastToCameraAndPublish(a.CameraID, EventActivityCreated, a)
	return nil
}
