package cameras

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

// StreamStopper tears down any live stream session for a camera.
// Satisfied by the streaming manager.
type StreamStopper interface {
	Stop(ctx context.Context, cameraID uuid.UUID) error
}

// CreateRequest is the body for POST /cameras.
type CreateRequest struct {
	Name             string `json:"name" binding:"required"`
	Location         string `json:"location" binding:"required"`
	IPAddress        string `json:"ip_address"`
	RTSPPort         int    `json:"rtsp_port"`
	RTSPUsername     string `json:"rtsp_username"`
	RTSPPassword     string `json:"rtsp_password"`
	RTSPPath         string `json:"rtsp_path"`
	IsRestrictedZone bool   `json:"is_restricted_zone"`
	Status           string `json:"status"`
}

// UpdateRequest is the body for PUT /cameras/:id. All fields optional.
type UpdateRequest struct {
	Name             *string `json:"name"`
	Location         *string `json:"location"`
	IPAddress        *string `json:"ip_address"`
	RTSPPort         *int    `json:"rtsp_port"`
	RTSPUsername     *string `json:"rtsp_username"`
	RTSPPassword     *string `json:"rtsp_password"`
	RTSPPath         *string `json:"rtsp_path"`
	IsRestrictedZone *bool   `json:"is_restricted_zone"`
	Status           *string `json:"status"`
}

// Handler handles camera HTTP endpoints.
type Handler struct {
	repo    *Repository
	streams StreamStopper
	logger  *zap.Logger
}

// NewHandler creates a camera handler.
func NewHandler(repo *Repository, streams StreamStopper, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, streams: streams, logger: logger}
}

func validStatus(s string) bool {
	switch s {
	case models.CameraStatusActive, models.CameraStatusInactive, models.CameraStatusMaintenance:
		return true
	}
	return false
}

// Authorize loads the camera and checks the caller may act on it.
// Admins may act on any camera, operators only on their own.
func (h *Handler) Authorize(c *gin.Context, id uuid.UUID) (*models.Camera, bool) {
	cam, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "camera not found")
		} else {
			response.Internal(c, "failed to load camera")
		}
		return nil, false
	}
	if !middleware.IsAdmin(c) && cam.UserID != middleware.UserID(c) {
		response.Forbidden(c, "not your camera")
		return nil, false
	}
	return cam, true
}

// Create handles POST /cameras.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	status := req.Status
	if status == "" {
		status = models.CameraStatusActive
	}
	if !validStatus(status) {
		response.BadRequest(c, "invalid status")
		return
	}

	taken, err := h.repo.NameExists(c.Request.Context(), req.Name, uuid.Nil)
	if err != nil {
		response.Internal(c, "failed to check camera name")
		return
	}
	if taken {
		response.Conflict(c, ErrNameTaken.Error())
		return
	}

	cam := &models.Camera{
		Name:             req.Name,
		Location:         req.Location,
		IPAddress:        req.IPAddress,
		RTSPPort:         req.RTSPPort,
		RTSPUsername:     req.RTSPUsername,
		RTSPPassword:     req.RTSPPassword,
		RTSPPath:         req.RTSPPath,
		IsRestrictedZone: req.IsRestrictedZone,
		Status:           status,
		UserID:           middleware.UserID(c),
	}
	if err := h.repo.Create(c.Request.Context(), cam); err != nil {
		response.Internal(c, "failed to create camera")
		return
	}
	response.Created(c, cam)
}

// List handles GET /cameras.
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context(), middleware.UserID(c), middleware.IsAdmin(c))
	if err != nil {
		response.Internal(c, "failed to list cameras")
		return
	}
	response.OK(c, list)
}

// GetByID handles GET /cameras/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid camera id")
		return
	}
	cam, ok := h.Authorize(c, id)
	if !ok {
		return
	}
	response.OK(c, cam)
}

// Update handles PUT /cameras/:id.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid camera id")
		return
	}
	if _, ok := h.Authorize(c, id); !ok {
		return
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.Status != nil && !validStatus(*req.Status) {
		response.BadRequest(c, "invalid status")
		return
	}
	if req.Name != nil {
		taken, err := h.repo.NameExists(c.Request.Context(), *req.Name, id)
		if err != nil {
			response.Internal(c, "failed to check camera name")
			return
		}
		if taken {
			response.Conflict(c, ErrNameTaken.Error())
			return
		}
	}

	cam, err := h.repo.Update(c.Request.Context(), id, &UpdateParams{
		Name:             req.Name,
		Location:         req.Location,
		IPAddress:        req.IPAddress,
		RTSPPort:         req.RTSPPort,
		RTSPUsername:     req.RTSPUsername,
		RTSPPassword:     req.RTSPPassword,
		RTSPPath:         req.RTSPPath,
		IsRestrictedZone: req.IsRestrictedZone,
		Status:           req.Status,
	})
	if err != nil {
		response.Internal(c, "failed to update camera")
		return
	}
	response.OK(c, cam)
}

// Delete handles DELETE /cameras/:id. Any live stream session is torn down
// before the row is removed.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid camera id")
		return
	}
	if _, ok := h.Authorize(c, id); !ok {
		return
	}

	if h.streams != nil {
		if err := h.streams.Stop(c.Request.Context(), id); err != nil {
			h.logger.Warn("stream teardown on camera delete failed",
				zap.String("camera_id", id.String()), zap.Error(err))
		}
	}

	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		response.Internal(c, "failed to delete camera")
		return
	}
	response.NoContent(c)
}
