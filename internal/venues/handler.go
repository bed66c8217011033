package venues

import (
	"context"
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campus-events/backend/internal/models"
	"github.com/campus-events/backend/pkg/response"
)

// Store is the persistence surface the venues handler needs.
type Store interface {
	List(ctx context.Context) ([]models.Venue, error)
	GetByID(ctx context.Context, id int64) (*models.Venue, error)
	Create(ctx context.Context, v *models.Venue) error
	Update(ctx context.Context, v *models.Venue) error
}

// VenueRequest is the body for POST /venues and PUT /venues/:id.
type VenueRequest struct {
	Name     string `json:"name" binding:"required"`
	Location string `json:"location"`
	Capacity int    `json:"capacity" binding:"required,gt=0"`
}

// Handler handles venue HTTP endpoints. All mutations are admin-only (route
// middleware enforces the role).
type Handler struct {
	store Store
}

// NewHandler creates a venues handler.
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// List handles GET /venues.
func (h *Handler) List(c *gin.Context) {
	list, err := h.store.List(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to list venues")
		return
	}
	response.OK(c, list)
}

// GetByID handles GET /venues/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid venue id")
		return
	}
	v, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrVenueNotFound) {
			response.NotFound(c, "venue not found")
			return
		}
		response.Internal(c, "failed to load venue")
		return
	}
	response.OK(c, v)
}

// Create handles POST /venues.
func (h *Handler) Create(c *gin.Context) {
	var req VenueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	v := &models.Venue{Name: req.Name, Location: req.Location, Capacity: req.Capacity}
	if err := h.store.Create(c.Request.Context(), v); err != nil {
		response.Internal(c, "failed to create venue")
		return
	}
	response.Created(c, v)
}

// Update handles PUT /venues/:id.
func (h *Handler) Update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid venue id")
		return
	}
	var req VenueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	v := &models.Venue{ID: id, Name: req.Name, Location: req.Location, Capacity: req.Capacity}
	err = h.store.Update(c.Request.Context(), v)
	switch {
	case err == nil:
		response.OK(c, v)
	case errors.Is(err, ErrVenueNotFound):
		response.NotFound(c, "venue not found")
	case errors.Is(err, ErrVenueInUse):
		response.Conflict(c, response.CodeValidation, err.Error())
	default:
		response.Internal(c, "failed to update venue")
	}
}
