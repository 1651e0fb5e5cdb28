package http

import (
	"context"
	"errors"
	"net/http"

	"restoree/internal/app/certification"
	"restoree/internal/domain/certificate"
	"restoree/internal/infra/httpclient"

	"github.com/gin-gonic/gin"
)

// APIResponse is the envelope of every JSON reply.
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

func respondError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, APIResponse{Success: false, Error: message})
}

// mapError translates service errors into a status code. Unknown errors
// are 500.
func mapError(err error) int {
	switch {
	case errors.Is(err, certification.ErrInvalidSession),
		errors.Is(err, certification.ErrUnknownFormat),
		errors.Is(err, certificate.ErrDerivedDimension),
		errors.Is(err, certificate.ErrUnknownDimension),
		errors.Is(err, certificate.ErrUnknownSide),
		errors.Is(err, certificate.ErrUnknownTagGroup),
		errors.Is(err, certificate.ErrEmptyTag):
		return http.StatusBadRequest
	case httpclient.IsResponseTooLarge(err):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *DraftHandler) fail(c *gin.Context, err error) {
	status := mapError(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
	}
	respondError(c, status, err.Error())
}
