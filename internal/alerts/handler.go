package alerts

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/asmita-kamble/smart-cctv-app/internal/models"
	"github.com/asmita-kamble/smart-cctv-app/pkg/response"
)

// Handler handles alert HTTP endpoints.
type Handler struct {
	repo *Repository
}

// NewHandler creates an alert handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// List handles GET /alerts. Supports ?camera_id, ?status, ?severity, ?limit.
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
	if s := c.Query("status"); s != "" {
		if s != models.AlertStatusPending && s != models.AlertStatusResolved {
			response.BadRequest(c, "invalid status")
			return
		}
		f.Status = s
	}
	if s := c.Query("severity"); s != "" {
		switch s {
		case models.SeverityLow, models.SeverityMedium, models.SeverityHigh, models.SeverityCritical:
			f.Severity = s
		default:
			response.BadRequest(c, "invalid severity")
			return
		}
	}
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
		response.Internal(c, "failed to list alerts")
		return
	}
	response.OK(c, list)
}

// GetByID handles GET /alerts/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid alert id")
		return
	}
	a, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "alert not found")
		} else {
			response.Internal(c, "failed to load alert")
		}
		return
	}
	response.OK(c, a)
}

// Resolve handles POST /alerts/:id/resolve. Idempotent.
func (h *Handler) Resolve(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid alert id")
		return
	}
	a, err := h.repo.Resolve(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "alert not found")
		} else {
			response.Internal(c, "failed to resolve alert")
		}
		return
	}
	response.OK(c, a)
}

// Stats handles GET /alerts/statistics.
func (h *Handler) Stats(c *gin.Context) {
	s, err := h.repo.Stats(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to compute alert statistics")
		return
	}
	response.OK(c, s)
}
