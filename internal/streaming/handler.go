package streaming

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/asmita-kamble/smart-cctv-app/internal/middleware"
	"github.com/asmita-kamble/smart-cctv-app/internal/models"
	"github.com/asmita-kamble/smart-cctv-app/pkg/response"
)

// CameraGetter loads cameras for stream operations.
type CameraGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Camera, error)
}

// Handler handles stream lifecycle and HLS HTTP endpoints.
type Handler struct {
	manager *Manager
	cameras CameraGetter
	logger  *zap.Logger
}

// NewHandler creates a streaming handler.
func NewHandler(manager *Manager, cameras CameraGetter, logger *zap.Logger) *Handler {
	return &Handler{manager: manager, cameras: cameras, logger: logger}
}

func (h *Handler) loadCamera(c *gin.Context) (*models.Camera, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid camera id")
		return nil, false
	}
	cam, err := h.cameras.GetByID(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "camera not found")
		return nil, false
	}
	if !middleware.IsAdmin(c) && cam.UserID != middleware.UserID(c) {
		response.Forbidden(c, "not your camera")
		return nil, false
	}
	return cam, true
}

// Start handles POST /cameras/:id/stream/start.
func (h *Handler) Start(c *gin.Context) {
	cam, ok := h.loadCamera(c)
	if !ok {
		return
	}
	if cam.Status != models.CameraStatusActive {
		response.Conflict(c, "camera is not active")
		return
	}
	info, err := h.manager.Start(c.Request.Context(), cam)
	if err != nil {
		h.logger.Warn("stream start failed", zap.String("camera_id", cam.ID.String()), zap.Error(err))
		if errors.Is(err, ErrManifestTimeout) {
			response.ServiceUnavailable(c, "stream source did not respond")
			return
		}
		if errors.Is(err, ErrStartAborted) {
			response.Conflict(c, "stream was stopped while starting")
			return
		}
		response.Internal(c, "failed to start stream")
		return
	}
	response.OK(c, info)
}

// Stop handles POST /cameras/:id/stream/stop.
func (h *Handler) Stop(c *gin.Context) {
	cam, ok := h.loadCamera(c)
	if !ok {
		return
	}
	if err := h.manager.Stop(c.Request.Context(), cam.ID); err != nil {
		response.Internal(c, "failed to stop stream")
		return
	}
	response.OK(c, h.manager.Status(cam.ID))
}

// Status handles GET /cameras/:id/stream/status.
func (h *Handler) Status(c *gin.Context) {
	cam, ok := h.loadCamera(c)
	if !ok {
		return
	}
	response.OK(c, h.manager.Status(cam.ID))
}

// Playlist handles GET /cameras/:id/hls/playlist.m3u8.
func (h *Handler) Playlist(c *gin.Context) {
	cam, ok := h.loadCamera(c)
	if !ok {
		return
	}
	data, err := h.manager.Playlist(cam.ID)
	if err != nil {
		if errors.Is(err, ErrNotStreaming) {
			response.Conflict(c, "camera is not streaming")
			return
		}
		response.Internal(c, "failed to read playlist")
		return
	}
	c.Data(200, "application/vnd.apple.mpegurl", data)
}

// Segment handles GET /cameras/:id/hls/:segment.
func (h *Handler) Segment(c *gin.Context) {
	cam, ok := h.loadCamera(c)
	if !ok {
		return
	}
	data, err := h.manager.Segment(cam.ID, c.Param("segment"))
	if err != nil {
		switch {
		case errors.Is(err, ErrBadSegment):
			response.BadRequest(c, "invalid segment name")
		case errors.Is(err, ErrNotStreaming):
			response.Conflict(c, "camera is not streaming")
		default:
			response.NotFound(c, "segment not found")
		}
		return
	}
	c.Data(200, "video/mp2t", data)
}
