package registrations

import (
	"context"
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/campus-events/backend/internal/middleware"
	"github.com/campus-events/backend/internal/models"
	"github.com/campus-events/backend/pkg/cache"
	"github.com/campus-events/backend/pkg/response"
)

// Service is the mutation surface of the registration engine.
type Service interface {
	Register(ctx context.Context, userID, eventID int64) (*models.Registration, error)
	Cancel(ctx context.Context, regID, eventID, actorID int64, actorIsAdmin bool) (*models.Registration, error)
	UpdateStatus(ctx context.Context, regID int64, newStatus models.RegStatus) (*models.Registration, error)
}

// Reader is the query surface for registrations.
type Reader interface {
	ListByEvent(ctx context.Context, eventID int64) ([]models.Registration, error)
	ListByUser(ctx context.Context, userID int64) ([]models.Registration, error)
	StatsByEvent(ctx context.Context, eventID int64) (*models.RegistrationStats, error)
}

// UpdateStatusRequest is the body for PUT /registrations/:id (admin only).
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
}

// Handler handles registration HTTP endpoints.
type Handler struct {
	engine Service
	reader Reader
	stats  *cache.StatsCache
	logger *zap.Logger
}

// NewHandler creates a registrations handler.
func NewHandler(engine Service, reader Reader, stats *cache.StatsCache, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if stats == nil {
		stats = cache.NewStatsCache(nil, logger)
	}
	return &Handler{engine: engine, reader: reader, stats: stats, logger: logger}
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

// Register handles POST /events/:id/registrations.
func (h *Handler) Register(c *gin.Context) {
	eventID, ok := pathID(c, "id")
	if !ok {
		return
	}
	userID := middleware.UserID(c)

	reg, err := h.engine.Register(c.Request.Context(), userID, eventID)
	switch {
	case err == nil:
		h.stats.Invalidate(c.Request.Context(), eventID)
		response.Created(c, reg)
	case errors.Is(err, ErrEventNotFound):
		response.NotFound(c, "event not found")
	case errors.Is(err, ErrRegistrationClosed):
		response.Conflict(c, response.CodeRegistrationClosed, err.Error())
	case errors.Is(err, ErrAlreadyRegistered):
		response.Conflict(c, response.CodeAlreadyRegistered, err.Error())
	default:
		h.logger.Error("register failed", zap.Error(err),
			zap.Int64("event_id", eventID), zap.Int64("user_id", userID))
		response.Internal(c, "failed to register")
	}
}

// Cancel handles DELETE /events/:id/registrations/:regId. The registration
// owner or an admin may cancel.
func (h *Handler) Cancel(c *gin.Context) {
	eventID, ok := pathID(c, "id")
	if !ok {
		return
	}
	regID, ok := pathID(c, "regId")
	if !ok {
		return
	}

	reg, err := h.engine.Cancel(c.Request.Context(), regID, eventID,
		middleware.UserID(c), middleware.IsAdmin(c))
	switch {
	case err == nil:
		h.stats.Invalidate(c.Request.Context(), eventID)
		response.OK(c, reg)
	case errors.Is(err, ErrRegistrationNotFound), errors.Is(err, ErrEventNotFound):
		response.NotFound(c, "registration not found")
	case errors.Is(err, ErrAlreadyCancelled):
		response.Conflict(c, response.CodeAlreadyCancelled, err.Error())
	case errors.Is(err, ErrNotOwner):
		response.Forbidden(c, "registration belongs to another user")
	default:
		h.logger.Error("cancel failed", zap.Error(err), zap.Int64("registration_id", regID))
		response.Internal(c, "failed to cancel registration")
	}
}

// UpdateStatus handles PUT /registrations/:id (admin only).
func (h *Handler) UpdateStatus(c *gin.Context) {
	regID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	status, okStatus := models.ParseRegStatus(req.Status)
	if !okStatus {
		response.BadRequest(c, "unknown registration status")
		return
	}

	reg, err := h.engine.UpdateStatus(c.Request.Context(), regID, status)
	switch {
	case err == nil:
		h.stats.Invalidate(c.Request.Context(), reg.EventID)
		response.OK(c, reg)
	case errors.Is(err, ErrRegistrationNotFound), errors.Is(err, ErrEventNotFound):
		response.NotFound(c, "registration not found")
	case errors.Is(err, ErrInvalidTransition):
		response.Conflict(c, response.CodeInvalidTransition, err.Error())
	case errors.Is(err, ErrEventFull):
		response.Conflict(c, response.CodeEventFull, err.Error())
	default:
		h.logger.Error("update status failed", zap.Error(err),
			zap.Int64("registration_id", regID), zap.String("status", req.Status))
		response.Internal(c, "failed to update registration status")
	}
}

// ListByEvent handles GET /events/:id/registrations (admin only).
func (h *Handler) ListByEvent(c *gin.Context) {
	eventID, ok := pathID(c, "id")
	if !ok {
		return
	}
	list, err := h.reader.ListByEvent(c.Request.Context(), eventID)
	if err != nil {
		response.Internal(c, "failed to list registrations")
		return
	}
	response.OK(c, list)
}

// ListMine handles GET /my/registrations.
func (h *Handler) ListMine(c *gin.Context) {
	list, err := h.reader.ListByUser(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.Internal(c, "failed to list registrations")
		return
	}
	response.OK(c, list)
}

// Stats handles GET /events/:id/registrations/stats (admin only). Responses
// may be up to 30s stale via the Redis cache; mutations invalidate eagerly.
func (h *Handler) Stats(c *gin.Context) {
	eventID, ok := pathID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if cached := h.stats.Get(ctx, eventID); cached != nil {
		response.OK(c, cached)
		return
	}

	stats, err := h.reader.StatsByEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, ErrEventNotFound) {
			response.NotFound(c, "event not found")
			return
		}
		response.Internal(c, "failed to load stats")
		return
	}
	h.stats.Set(ctx, stats)
	response.OK(c, stats)
}
