// Package handlers implements the HTTP endpoints of the public API.
//
// This file holds the shared response utilities: the error envelope, the
// fail/ok helpers, and conventions every endpoint follows. All failures
// return ErrorResponse with a stable snake_case `code`; 5xx responses are
// additionally logged with the request-scoped logger.
//
// Example error response:
//
//	HTTP/1.1 400 Bad Request
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "max_hints_used",
//	  "message": "maximum hints already used for this chat"
//	}
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hintly/go-hints-backend/internal/http/middleware"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// RequestID correlates server logs and client errors.
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Code is a stable machine-readable string (see errors.go constants).
	Code string `json:"code" example:"not_found"`
	// Message is human-readable and safe to show to users.
	Message string `json:"message" example:"chat not found"`
}

// fail aborts the request with a structured error, logging 5xx server-side.
func fail(c *gin.Context, status int, code, msg string) {
	resp := ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	}

	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail, for router-level handlers
// (404/405 fallbacks) that live outside this package.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}
