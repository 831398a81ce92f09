package analysis

import (
	"context"

	"github.com/asmita-kamble/smart-cctv-app/internal/models"
)

// AlertWriter persists alerts. Satisfied by the alerts repository.
type AlertWriter interface {
	Create(ctx context.Context, a *models.Alert) error
}

// ActivityWriter persists activities. Satisfied by the activities repository.
type ActivityWriter interface {
	Create(ctx context.Context, a *models.Activity) error
}

type repoSink struct {
	alerts     AlertWriter
	activities ActivityWriter
}

// NewRepoSink builds a Sink backed by the given writers.
func NewRepoSink(alerts AlertWriter, activities ActivityWriter) Sink {
	return &repoSink{alerts: alerts, activities: activities}
}

func (s *repoSink) CreateAlert(ctx context.Context, a *models.Alert) error {
	return s.alerts.Create(ctx, a)
}

func (s *repoSink) CreateActivity(ctx context.Context, a *models.Activity) error {
	return s.activities.Create(ctx, a)
}
