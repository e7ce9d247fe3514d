package handlers

import (
	"net/http"

	"travelfinance/internal/domain"
	"travelfinance/internal/http/middleware"
	"travelfinance/internal/utils"

	"github.com/gin-gonic/gin"
)

// ErrorResponse standardizes error payloads.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	Message   string `json:"message"`
}

func respondError(c *gin.Context, status int, code, message string, details any) {
	if code == "" {
		code = http.StatusText(status)
	}
	c.JSON(status, ErrorResponse{
		Error:     message,
		Code:      code,
		Details:   details,
		RequestID: middleware.GetRequestID(c),
		Message:   message,
	})
}

// RespondDomainError maps domain errors to HTTP responses. Internal causes
// are logged, never sent to the client.
func RespondDomainError(c *gin.Context, err error) {
	switch {
	case domain.IsValidation(err):
		respondError(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case domain.IsInvalidPlan(err):
		respondError(c, http.StatusBadRequest, "invalid_plan", err.Error(), nil)
	case domain.IsNotFound(err):
		respondError(c, http.StatusNotFound, "not_found", err.Error(), nil)
	case domain.IsConflict(err):
		respondError(c, http.StatusConflict, "conflict", err.Error(), nil)
	default:
		utils.LogWarn(middleware.GetRequestID(c), "http", c.FullPath(), "request failed", err)
		respondError(c, http.StatusInternalServerError, "internal_error", "internal error", nil)
	}
}
