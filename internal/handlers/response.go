package handlers

import (
	"errors"
	"io"
	"net/http"

	"blog_api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const (
	msgInvalidCredentials = "Invalid credentials"
	msgInvalidBody        = "Invalid request body"
)

type errorResponse struct {
	Message string `json:"message"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// statusFor maps service error kinds to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthenticated), errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict), errors.Is(err, service.ErrUserExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as {"message": ...}. Unclassified errors become 500 with
// the raw error text.
func (h *Handler) fail(c *gin.Context, logKey string, err error, kv ...interface{}) {
	status := statusFor(err)

	msg := err.Error()
	var se *service.Error
	switch {
	case errors.As(err, &se):
		msg = se.Msg
	case errors.Is(err, service.ErrInvalidCredentials):
		msg = msgInvalidCredentials
	}

	if h.log != nil {
		fields := append([]interface{}{"status", status, "err", err}, kv...)
		if status >= http.StatusInternalServerError {
			h.log.Errorw(logKey, fields...)
		} else {
			h.log.Infow(logKey, fields...)
		}
	}
	c.AbortWithStatusJSON(status, errorResponse{Message: msg})
}

// bindJSONOrBadRequest tries to bind the request body into dst and writes a 400 JSON on failure.
// An empty body leaves dst untouched so field validation can report what is missing.
// Returns false if the request was already handled (aborted), true otherwise.
func (h *Handler) bindJSONOrBadRequest(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return true
		}
		if h.log != nil {
			h.log.Infow("bad_request_body", "path", c.FullPath(), "err", err)
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Message: msgInvalidBody + ": " + err.Error()})
		return false
	}
	return true
}

// bindValidated binds the body into dst and checks its binding tags. An empty
// body is validated as an empty object. A failed tag is answered with 400 and
// the message msgFor picks for the first failing field.
func (h *Handler) bindValidated(c *gin.Context, dst any, msgFor func(validator.FieldError) string) bool {
	err := c.ShouldBindJSON(dst)
	if errors.Is(err, io.EOF) {
		err = binding.Validator.ValidateStruct(dst)
	}
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		if h.log != nil {
			h.log.Infow("bad_request_body", "path", c.FullPath(), "err", err)
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Message: msgInvalidBody + ": " + err.Error()})
		return false
	}

	msg := msgFor(verrs[0])
	if h.log != nil {
		h.log.Infow("validation_failed", "path", c.FullPath(), "field", verrs[0].Field(), "tag", verrs[0].Tag())
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Message: msg})
	return false
}
