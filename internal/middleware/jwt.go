package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/campus-events/backend/pkg/response"
)

const (
	// ContextUserID is the key for user ID in gin context.
	ContextUserID = "user_id"
	// ContextUserRole is the key for user role in gin context.
	ContextUserRole = "user_role"
	// ContextUserEmail is the key for user email in gin context.
	ContextUserEmail = "user_email"
)

// ValidateFunc validates a bearer token and returns the user claims.
type ValidateFunc func(token string) (userID int64, email, role string, err error)

// JWT returns a middleware that validates the Authorization header and sets
// user claims in context.
func JWT(validate ValidateFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}
		userID, email, role, err := validate(parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		c.Set(ContextUserID, userID)
		c.Set(ContextUserRole, role)
		c.Set(ContextUserEmail, email)
		c.Next()
	}
}

// UserID returns the authenticated user's ID from context (0 if unset).
func UserID(c *gin.Context) int64 {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return 0
	}
	id, _ := v.(int64)
	return id
}

// UserRole returns the authenticated user's role from context.
func UserRole(c *gin.Context) string {
	v, ok := c.Get(ContextUserRole)
	if !ok {
		return ""
	}
	role, _ := v.(string)
	return role
}

// IsAdmin reports whether the authenticated user has the admin role.
func IsAdmin(c *gin.Context) bool {
	return UserRole(c) == "admin"
}
