package events

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/campus-events/backend/internal/middleware"
	"github.com/campus-events/backend/internal/models"
	"github.com/campus-events/backend/pkg/response"
)

// Store is the persistence surface the events handler needs.
type Store interface {
	Create(ctx context.Context, e *models.Event) error
	GetByID(ctx context.Context, id int64) (*models.Event, error)
	List(ctx context.Context, f ListFilter) ([]models.Event, error)
	Update(ctx context.Context, id int64, p UpdateParams) (*models.Event, error)
	Publish(ctx context.Context, id int64) (*models.Event, error)
	SetStatus(ctx context.Context, id int64, status models.EventStatus) (*models.Event, error)
	Delete(ctx context.Context, id int64) error
	SetPosterKey(ctx context.Context, id int64, key string) error
}

// CreateRequest is the body for POST /events.
type CreateRequest struct {
	Name        string    `json:"name" binding:"required"`
	Description string    `json:"description"`
	StartsAt    time.Time `json:"starts_at" binding:"required"`
	EndsAt      time.Time `json:"ends_at" binding:"required"`
	MaxSlots    int       `json:"max_slots" binding:"required,gt=0"`
	VenueID     int64     `json:"venue_id" binding:"required"`
	FeeCents    int       `json:"fee_cents" binding:"gte=0"`
}

// UpdateRequest is the body for PATCH /events/:id. Omitted fields keep their
// current value.
type UpdateRequest struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	StartsAt    *time.Time `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
	MaxSlots    *int       `json:"max_slots"`
	VenueID     *int64     `json:"venue_id"`
	FeeCents    *int       `json:"fee_cents"`
}

// StatusRequest is the body for PUT /events/:id/status.
type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// Handler handles event HTTP endpoints.
type Handler struct {
	store  Store
	logger *zap.Logger
}

// NewHandler creates an events handler.
func NewHandler(store Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, logger: logger}
}

func eventID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "invalid event id")
		return 0, false
	}
	return id, true
}

// List handles GET /events. Students see published events only; admins see
// everything and may filter by status.
func (h *Handler) List(c *gin.Context) {
	f := ListFilter{PublishedOnly: !middleware.IsAdmin(c)}
	if s := c.Query("status"); s != "" {
		status, ok := models.ParseEventStatus(s)
		if !ok {
			response.BadRequest(c, "invalid status filter")
			return
		}
		f.Status = &status
	}
	if c.Query("upcoming") == "true" {
		f.UpcomingOnly = true
	}

	list, err := h.store.List(c.Request.Context(), f)
	if err != nil {
		response.Internal(c, "failed to list events")
		return
	}
	response.OK(c, list)
}

// GetByID handles GET /events/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	e, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrEventNotFound) {
			response.NotFound(c, "event not found")
			return
		}
		response.Internal(c, "failed to load event")
		return
	}
	if !e.Published && !middleware.IsAdmin(c) {
		response.NotFound(c, "event not found")
		return
	}
	response.OK(c, e)
}

// Create handles POST /events (admin only).
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	e := &models.Event{
		Name:        req.Name,
		Description: req.Description,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		MaxSlots:    req.MaxSlots,
		VenueID:     req.VenueID,
		FeeCents:    req.FeeCents,
		CreatedBy:   middleware.UserID(c),
	}
	err := h.store.Create(c.Request.Context(), e)
	switch {
	case err == nil:
		response.Created(c, e)
	case errors.Is(err, ErrInvalidWindow), errors.Is(err, ErrVenueTooSmall):
		response.BadRequest(c, err.Error())
	case errors.Is(err, ErrVenueNotFound):
		response.NotFound(c, "venue not found")
	default:
		h.logger.Error("create event failed", zap.Error(err))
		response.Internal(c, "failed to create event")
	}
}

// Update handles PATCH /events/:id (admin only).
func (h *Handler) Update(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.MaxSlots != nil && *req.MaxSlots <= 0 {
		response.BadRequest(c, "max_slots must be positive")
		return
	}

	e, err := h.store.Update(c.Request.Context(), id, UpdateParams{
		Name:        req.Name,
		Description: req.Description,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		MaxSlots:    req.MaxSlots,
		VenueID:     req.VenueID,
		FeeCents:    req.FeeCents,
	})
	switch {
	case err == nil:
		response.OK(c, e)
	case errors.Is(err, ErrEventNotFound):
		response.NotFound(c, "event not found")
	case errors.Is(err, ErrEventLocked):
		response.Conflict(c, response.CodeValidation, err.Error())
	case errors.Is(err, ErrInvalidWindow), errors.Is(err, ErrVenueTooSmall):
		response.BadRequest(c, err.Error())
	case errors.Is(err, ErrVenueNotFound):
		response.NotFound(c, "venue not found")
	default:
		h.logger.Error("update event failed", zap.Error(err), zap.Int64("event_id", id))
		response.Internal(c, "failed to update event")
	}
}

// Publish handles POST /events/:id/publish (admin only).
func (h *Handler) Publish(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	e, err := h.store.Publish(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrEventNotFound) {
			response.NotFound(c, "event not found")
			return
		}
		response.Internal(c, "failed to publish event")
		return
	}
	response.OK(c, e)
}

// SetStatus handles PUT /events/:id/status (admin only).
func (h *Handler) SetStatus(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	status, okStatus := models.ParseEventStatus(req.Status)
	if !okStatus {
		response.BadRequest(c, "invalid event status")
		return
	}

	e, err := h.store.SetStatus(c.Request.Context(), id, status)
	switch {
	case err == nil:
		response.OK(c, e)
	case errors.Is(err, ErrEventNotFound):
		response.NotFound(c, "event not found")
	case errors.Is(err, ErrLifecycle):
		response.Conflict(c, response.CodeValidation, err.Error())
	default:
		response.Internal(c, "failed to change event status")
	}
}

// Delete handles DELETE /events/:id (admin only).
func (h *Handler) Delete(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	err := h.store.Delete(c.Request.Context(), id)
	switch {
	case err == nil:
		response.NoContent(c)
	case errors.Is(err, ErrEventNotFound):
		response.NotFound(c, "event not found")
	case errors.Is(err, ErrEventNotDeletable):
		response.Conflict(c, response.CodeValidation, err.Error())
	default:
		response.Internal(c, "failed to delete event")
	}
}
