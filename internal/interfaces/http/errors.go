package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainwf "github.com/garyjia/procurement-flow/internal/domain/workflow"
)

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
	Reason  string      `json:"reason,omitempty"`
}

// classify maps an application error to a status code and a stable error code
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domainwf.ErrValidation):
		return http.StatusBadRequest, "validation"
	case errors.Is(err, domainwf.ErrUnauthorized):
		return http.StatusForbidden, "unauthorized"
	case errors.Is(err, domainwf.ErrInvalidTransition):
		return http.StatusForbidden, "invalid_transition"
	case errors.Is(err, domainwf.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domainwf.ErrConflict):
		return http.StatusConflict, "conflict"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// writeError renders err. Internal failures are logged and their detail hidden.
func (h *Handlers) writeError(c *gin.Context, op string, err error) {
	status, code := classify(err)

	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.Error(op+" failed", "error", err, "path", c.Request.URL.Path)
		msg = op + " failed"
	}

	c.JSON(status, Response{
		Success: false,
		Error:   msg,
		Code:    code,
		Reason:  string(domainwf.ReasonOf(err)),
	})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{
		Success: false,
		Error:   msg,
		Code:    "validation",
	})
}
