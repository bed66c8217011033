package auth

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/campus-events/backend/internal/middleware"
	"github.com/campus-events/backend/internal/models"
	"github.com/campus-events/backend/internal/validation"
	"github.com/campus-events/backend/pkg/response"
	"github.com/campus-events/backend/pkg/utils"
)

// UserStore is the persistence surface the auth handler needs.
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByLogin(ctx context.Context, login string) (*models.User, error)
	Create(ctx context.Context, p CreateUserParams) (*models.User, error)
	UpdateProfile(ctx context.Context, id int64, phone string, branchID *int64, gradYear int) (*models.User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	Deactivate(ctx context.Context, id int64) error
	List(ctx context.Context) ([]models.UserPublic, error)
}

// SignupRequest is the body for POST /auth/signup.
type SignupRequest struct {
	StudentID string `json:"student_id" binding:"required"`
	Username  string `json:"username" binding:"required,min=3,max=30"`
	Email     string `json:"email" binding:"required"`
	Password  string `json:"password" binding:"required"`
	Phone     string `json:"phone" binding:"required"`
	BranchID  *int64 `json:"branch_id"`
	GradYear  int    `json:"grad_year" binding:"required"`
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Login    string `json:"login" binding:"required"` // username or email
	Password string `json:"password" binding:"required"`
}

// UpdateProfileRequest is the body for PUT /profile.
type UpdateProfileRequest struct {
	Phone    string `json:"phone" binding:"required"`
	BranchID *int64 `json:"branch_id"`
	GradYear int    `json:"grad_year" binding:"required"`
}

// ChangePasswordRequest is the body for PUT /profile/password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// TokenResponse is the auth response with JWT.
type TokenResponse struct {
	Token string            `json:"token"`
	User  models.UserPublic `json:"user"`
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	store  UserStore
	jwt    *JWTService
	logger *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(store UserStore, jwt *JWTService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, jwt: jwt, logger: logger}
}

// Signup handles POST /auth/signup.
func (h *Handler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	email := validation.NormalizeEmail(req.Email)
	if err := validation.Email(email); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := validation.StudentID(req.StudentID); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := validation.Password(req.Password); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	phone, err := validation.NormalizePhone(req.Phone)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := validation.GradYear(req.GradYear, time.Now()); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		response.Internal(c, "failed to hash password")
		return
	}

	user, err := h.store.Create(c.Request.Context(), CreateUserParams{
		StudentID:    req.StudentID,
		Username:     req.Username,
		Email:        email,
		PasswordHash: hash,
		Phone:        phone,
		Role:         models.RoleStudent,
		BranchID:     req.BranchID,
		GradYear:     req.GradYear,
	})
	if err != nil {
		// Unique violations on student_id/username/email land here.
		h.logger.Warn("signup failed", zap.Error(err), zap.String("username", req.Username))
		response.Conflict(c, response.CodeValidation, "student id, username or email already in use")
		return
	}

	token, err := h.jwt.Generate(user.ID, user.Email, string(user.Role))
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}

	response.Created(c, TokenResponse{Token: token, User: user.ToPublic()})
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	user, err := h.store.GetByLogin(c.Request.Context(), validation.NormalizeEmail(req.Login))
	if err != nil {
		response.Unauthorized(c, "invalid credentials")
		return
	}
	if !user.IsActive {
		response.Unauthorized(c, "account is deactivated")
		return
	}
	if !utils.CheckPassword(req.Password, user.Password) {
		response.Unauthorized(c, "invalid credentials")
		return
	}

	token, err := h.jwt.Generate(user.ID, user.Email, string(user.Role))
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}

	response.OK(c, TokenResponse{Token: token, User: user.ToPublic()})
}

// Me handles GET /profile.
func (h *Handler) Me(c *gin.Context) {
	userID := middleware.UserID(c)
	user, err := h.store.GetByID(c.Request.Context(), userID)
	if err != nil {
		response.NotFound(c, "user not found")
		return
	}
	response.OK(c, user.ToPublic())
}

// UpdateProfile handles PUT /profile.
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	phone, err := validation.NormalizePhone(req.Phone)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := validation.GradYear(req.GradYear, time.Now()); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	userID := middleware.UserID(c)
	user, err := h.store.UpdateProfile(c.Request.Context(), userID, phone, req.BranchID, req.GradYear)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			response.NotFound(c, "user not found")
			return
		}
		h.logger.Error("update profile failed", zap.Error(err), zap.Int64("user_id", userID))
		response.Internal(c, "failed to update profile")
		return
	}
	response.OK(c, user.ToPublic())
}

// ChangePassword handles PUT /profile/password.
func (h *Handler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if err := validation.Password(req.NewPassword); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	userID := middleware.UserID(c)
	user, err := h.store.GetByID(c.Request.Context(), userID)
	if err != nil {
		response.NotFound(c, "user not found")
		return
	}
	if !utils.CheckPassword(req.CurrentPassword, user.Password) {
		response.Unauthorized(c, "current password is incorrect")
		return
	}

	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		response.Internal(c, "failed to hash password")
		return
	}
	if err := h.store.UpdatePassword(c.Request.Context(), userID, hash); err != nil {
		h.logger.Error("change password failed", zap.Error(err), zap.Int64("user_id", userID))
		response.Internal(c, "failed to change password")
		return
	}
	response.NoContent(c)
}

// List handles GET /users (admin only).
func (h *Handler) List(c *gin.Context) {
	list, err := h.store.List(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to list users")
		return
	}
	response.OK(c, list)
}

// Deactivate handles DELETE /users/:id (admin only). Soft-deactivation; user
// rows are never removed.
func (h *Handler) Deactivate(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	if err := h.store.Deactivate(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			response.NotFound(c, "user not found")
			return
		}
		response.Internal(c, "failed to deactivate user")
		return
	}
	response.NoContent(c)
}
