package handlers

import (
	"errors"
	"net/http"

	"authentication_api/internal/service"

	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Error string `json:"error"`
}

// writeServiceError maps the service taxonomy onto status codes. Storage
// failures are logged and reported without detail.
func (h *Handler) writeServiceError(c *gin.Context, event string, err error, kv ...any) {
	status, msg := http.StatusInternalServerError, "internal error"
	switch {
	case errors.Is(err, service.ErrValidation):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrNotFound):
		status, msg = http.StatusNotFound, "user not found"
	case errors.Is(err, service.ErrConflict):
		status, msg = http.StatusConflict, "username already exists"
	}

	if h.log != nil {
		kv = append(kv, "status", status, "err", err)
		if status == http.StatusInternalServerError {
			h.log.Errorw(event, kv...)
		} else {
			h.log.Infow(event, kv...)
		}
	}
	c.AbortWithStatusJSON(status, errorResponse{Error: msg})
}
