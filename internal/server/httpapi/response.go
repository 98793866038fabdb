package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/streamfi/streamfi/internal/common"
	"github.com/streamfi/streamfi/internal/server/livepeer"
)

// Every endpoint answers with one of two envelopes:
//
//	{"success": true, "data": ...}
//	{"error": "..."}
type successEnvelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

type errorEnvelope struct {
	Error string `json:"error"`
}

func respond(c *gin.Context, status int, data any) {
	c.JSON(status, successEnvelope{Success: true, Data: data})
}

// respondError maps service errors to HTTP statuses in exactly one place.
func respondError(c *gin.Context, err error) {
	c.JSON(statusFromError(err), errorEnvelope{Error: err.Error()})
}

func statusFromError(err error) int {
	switch {
	case errors.Is(err, common.ErrorValidation), errors.Is(err, common.ErrTokenExpired):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrorConflict), errors.Is(err, common.ErrorInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, livepeer.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
