package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the JSON error envelope of every API route.
type ErrorResponse struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
}

// RespondWithError aborts the chain and writes the envelope.
func RespondWithError(c *gin.Context, statusCode int, errorCode, message string, details any) {
	c.AbortWithStatusJSON(statusCode, ErrorResponse{
		ErrorCode: errorCode,
		Message:   message,
		Details:   details,
	})
}

func RespondWithBadRequest(c *gin.Context, message string, details any) {
	RespondWithError(c, http.StatusBadRequest, "bad_request", message, details)
}

// RespondWithTooManyRequests is used both by the rate limiter and by the
// relay while a submission is still in flight.
func RespondWithTooManyRequests(c *gin.Context, errorCode, message string, details any) {
	RespondWithError(c, http.StatusTooManyRequests, errorCode, message, details)
}

func RespondWithServiceUnavailable(c *gin.Context, message string) {
	RespondWithError(c, http.StatusServiceUnavailable, "service_unavailable", message, nil)
}

func RespondWithInternalError(c *gin.Context, message string, details any) {
	RespondWithError(c, http.StatusInternalServerError, "internal_error", message, details)
}
