package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Stable machine-readable error codes surfaced alongside messages.
const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeNotFound          = "NOT_FOUND"
	CodeAlreadyRegistered = "ALREADY_REGISTERED"
	CodeRegistrationClosed = "REGISTRATION_CLOSED"
	CodeEventFull         = "EVENT_FULL"
	CodeInvalidTransition = "INVALID_STATUS_TRANSITION"
	CodeAlreadyCancelled  = "ALREADY_CANCELLED"
	CodeForbidden         = "FORBIDDEN"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeInternal          = "INTERNAL"
)

// Body is the standard API response envelope.
type Body struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// OK sends a 200 JSON response with data.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Body{Success: true, Data: data})
}

// Created sends a 201 JSON response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Body{Success: true, Data: data})
}

// NoContent sends 204.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// BadRequest sends 400 with error message.
func BadRequest(c *gin.Context, err string) {
	c.JSON(http.StatusBadRequest, Body{Success: false, Error: err, Code: CodeValidation})
}

// Unauthorized sends 401.
func Unauthorized(c *gin.Context, err string) {
	c.JSON(http.StatusUnauthorized, Body{Success: false, Error: err, Code: CodeUnauthorized})
}

// Forbidden sends 403.
func Forbidden(c *gin.Context, err string) {
	c.JSON(http.StatusForbidden, Body{Success: false, Error: err, Code: CodeForbidden})
}

// NotFound sends 404.
func NotFound(c *gin.Context, err string) {
	c.JSON(http.StatusNotFound, Body{Success: false, Error: err, Code: CodeNotFound})
}

// Conflict sends 409 with a stable error code.
func Conflict(c *gin.Context, code, err string) {
	c.JSON(http.StatusConflict, Body{Success: false, Error: err, Code: code})
}

// Internal sends 500. Implementation detail is never exposed here; callers log
// the underlying error and pass a generic message.
func Internal(c *gin.Context, err string) {
	c.JSON(http.StatusInternalServerError, Body{Success: false, Error: err, Code: CodeInternal})
}
