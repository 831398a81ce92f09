package dashboard

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/asmita-kamble/smart-cctv-app/internal/activities"
	"github.com/asmita-kamble/smart-cctv-app/internal/alerts"
	"github.com/asmita-kamble/smart-cctv-app/internal/cameras"
	"github.com/asmita-kamble/smart-cctv-app/internal/middleware"
	"github.com/asmita-kamble/smart-cctv-app/internal/streaming"
	"github.com/asmita-kamble/smart-cctv-app/pkg/response"
)

// Handler handles GET /dashboard/overview.
type Handler struct {
	cameraRepo   *cameras.Repository
	alertRepo    *alerts.Repository
	activityRepo *activities.Repository
	streams      *streaming.Manager
}

// NewHandler creates a dashboard handler.
func NewHandler(
	cameraRepo *cameras.Repository,
	alertRepo *alerts.Repository,
	activityRepo *activities.Repository,
	streams *streaming.Manager,
) *Handler {
	return &Handler{
		cameraRepo:   cameraRepo,
		alertRepo:    alertRepo,
		activityRepo: activityRepo,
		streams:      streams,
	}
}

// OverviewResponse is the JSON shape for the dashboard overview.
type OverviewResponse struct {
	Cameras       int                `json:"cameras"`
	LiveStreams   int                `json:"live_streams"`
	Alerts        *alerts.Statistics `json:"alerts"`
	Activities24h int                `json:"activities_24h"`
	GeneratedAt   time.Time          `json:"generated_at"`
}

// Overview handles GET /dashboard/overview.
func (h *Handler) Overview(c *gin.Context) {
	ctx := c.Request.Context()

	cameraCount, err := h.cameraRepo.Count(ctx, middleware.UserID(c), middleware.IsAdmin(c))
	if err != nil {
		response.Internal(c, "failed to count cameras")
		return
	}

	stats, err := h.alertRepo.Stats(ctx)
	if err != nil {
		response.Internal(c, "failed to compute alert statistics")
		return
	}

	activities24h, err := h.activityRepo.CountSince(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		response.Internal(c, "failed to count activities")
		return
	}

	live := 0
	if h.streams != nil {
		live = h.streams.RunningCount()
	}

	response.OK(c, OverviewResponse{
		Cameras:       cameraCount,
		LiveStreams:   live,
		Alerts:        stats,
		Activities24h: activities24h,
		GeneratedAt:   time.Now().UTC(),
	})
}
