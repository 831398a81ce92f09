package allowedpersons

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/asmita-kamble/smart-cctv-app/internal/middleware"
	"github.com/asmita-kamble/smart-cctv-app/internal/models"
	"github.com/asmita-kamble/smart-cctv-app/pkg/response"
)

// CreateRequest is the body for POST /allowed-persons.
type CreateRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	PhotoPath   string `json:"photo_path"`
}

// Handler handles allowed person HTTP endpoints.
type Handler struct {
	repo *Repository
}

// NewHandler creates an allowed persons handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// Create handles POST /allowed-persons (admin only).
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	p := &models.AllowedPerson{
		Name:        req.Name,
		Description: req.Description,
		PhotoPath:   req.PhotoPath,
		CreatedBy:   middleware.UserID(c),
	}
	if err := h.repo.Create(c.Request.Context(), p); err != nil {
		response.Internal(c, "failed to create allowed person")
		return
	}
	response.Created(c, p)
}

// List handles GET /allowed-persons.
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to list allowed persons")
		return
	}
	response.OK(c, list)
}

// Delete handles DELETE /allowed-persons/:id (admin only).
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid id")
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "allowed person not found")
		} else {
			response.Internal(c, "failed to delete allowed person")
		}
		return
	}
	response.NoContent(c)
}
