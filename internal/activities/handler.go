package activities

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/asmita-kamble/smart-cctv-app/pkg/response"
)

// Handler handles activity HTTP endpoints.
type Handler struct {
	repo *Repository
}

// NewHandler creates an activity handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// List handles GET /activities. Supports ?camera_id, ?type, ?limit.
func (h *Handler) List(c *gin.Context) {
	var f Filter
	if s := c.Query("camera_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			response.BadRequest(c, "invalid camera_id")
			return
		}
		f.CameraID = &id
	}
	f.ActivityType = c.Query("type")
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			response.BadRequest(c, "invalid limit")
			return
		}
		f.Limit = n
	}

	list, err := h.repo.List(c.Request.Context(), f)
	if err != nil {
		response.Internal(c, "failed to list activities")
		return
	}
	response.OK(c, list)
}

// GetByID handles GET /activities/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid activity id")
		return
	}
	a, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "activity not found")
		} else {
			response.Internal(c, "failed to load activity")
		}
		return
	}
	response.OK(c, a)
}
