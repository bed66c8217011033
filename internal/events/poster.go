package events

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campus-events/backend/pkg/response"
	"github.com/campus-events/backend/pkg/storage"
)

// PosterHandler handles event poster upload and download via S3.
type PosterHandler struct {
	store  Store
	s3     *storage.S3
	logger *zap.Logger
}

// NewPosterHandler creates a poster handler. A nil s3 client disables the
// endpoints (503).
func NewPosterHandler(store Store, s3 *storage.S3, logger *zap.Logger) *PosterHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PosterHandler{store: store, s3: s3, logger: logger}
}

// Upload handles POST /events/:id/poster (admin only, multipart field "poster").
func (h *PosterHandler) Upload(c *gin.Context) {
	if h.s3 == nil {
		response.Internal(c, "poster storage not configured")
		return
	}
	id, ok := eventID(c)
	if !ok {
		return
	}
	e, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "event not found")
		return
	}

	file, err := c.FormFile("poster")
	if err != nil {
		response.BadRequest(c, "poster file required")
		return
	}
	if file.Size > storage.MaxPosterSize {
		response.BadRequest(c, "poster exceeds maximum size")
		return
	}
	contentType := file.Header.Get("Content-Type")
	if !storage.ValidPosterType(contentType, file.Filename) {
		response.BadRequest(c, "poster must be a jpeg, png or webp image")
		return
	}

	src, err := file.Open()
	if err != nil {
		response.Internal(c, "failed to read poster")
		return
	}
	defer src.Close()

	key := storage.PosterKey(id, uuid.New().String()+"-"+file.Filename)
	if contentType == "" {
		contentType = storage.ContentTypeForFilename(file.Filename)
	}
	if err := h.s3.UploadPoster(c.Request.Context(), key, contentType, src, file.Size); err != nil {
		h.logger.Error("poster upload failed", zap.Error(err), zap.Int64("event_id", id))
		response.Internal(c, "failed to upload poster")
		return
	}
	if err := h.store.SetPosterKey(c.Request.Context(), id, key); err != nil {
		response.Internal(c, "failed to save poster reference")
		return
	}
	// Replacing a poster orphans the old object; removal is best effort.
	if e.PosterKey != nil {
		if err := h.s3.DeletePoster(c.Request.Context(), *e.PosterKey); err != nil {
			h.logger.Warn("failed to delete replaced poster", zap.Error(err), zap.String("key", *e.PosterKey))
		}
	}

	response.Created(c, gin.H{"poster_key": key})
}

// URL handles GET /events/:id/poster. Returns a pre-signed download URL.
func (h *PosterHandler) URL(c *gin.Context) {
	if h.s3 == nil {
		response.Internal(c, "poster storage not configured")
		return
	}
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
	if e.PosterKey == nil {
		response.NotFound(c, "event has no poster")
		return
	}

	url, err := h.s3.PosterDownloadURL(c.Request.Context(), *e.PosterKey)
	if err != nil {
		h.logger.Error("poster presign failed", zap.Error(err), zap.Int64("event_id", id))
		response.Internal(c, "failed to generate poster url")
		return
	}
	response.OK(c, gin.H{"url": url, "expires_in": h.s3.PresignExpire().String()})
}
