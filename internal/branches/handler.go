package branches

import (
	"context"
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campus-events/backend/internal/models"
	"github.com/campus-events/backend/pkg/response"
)

// Store is the persistence surface the branches handler needs.
type Store interface {
	List(ctx context.Context) ([]models.Branch, error)
	GetByID(ctx context.Context, id int64) (*models.Branch, error)
	Create(ctx context.Context, b *models.Branch) error
}

// CreateRequest is the body for POST /branches.
type CreateRequest struct {
	Name string `json:"name" binding:"required"`
	Code string `json:"code" binding:"required,min=2,max=10"`
}

// Handler handles branch HTTP endpoints.
type Handler struct {
	store Store
}

// NewHandler creates a branches handler.
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// List handles GET /branches.
func (h *Handler) List(c *gin.Context) {
	list, err := h.store.List(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to list branches")
		return
	}
	response.OK(c, list)
}

// GetByID handles GET /branches/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid branch id")
		return
	}
	b, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrBranchNotFound) {
			response.NotFound(c, "branch not found")
			return
		}
		response.Internal(c, "failed to load branch")
		return
	}
	response.OK(c, b)
}

// Create handles POST /branches (admin only).
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	b := &models.Branch{Name: req.Name, Code: req.Code}
	if err := h.store.Create(c.Request.Context(), b); err != nil {
		response.Conflict(c, response.CodeValidation, "branch code already exists")
		return
	}
	response.Created(c, b)
}
