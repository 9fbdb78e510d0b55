package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"blog_api/internal/identity"
	"blog_api/internal/models"
	"blog_api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgNoToken      = "Not authorized, no token"
	msgTokenFailed  = "Not authorized, token failed"
	msgUserNotFound = "User not found"

	headerRequestID = "X-Request-ID"
)

// authMiddleware requires "Authorization: Bearer <token>" and attaches the
// resolved user to the request context.
func (h *Handler) authMiddleware(c *gin.Context) {
	scheme, token, _ := strings.Cut(c.GetHeader("Authorization"), " ")
	if scheme != "Bearer" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Message: msgNoToken})
		return
	}

	ctx := c.Request.Context()
	user, err := h.services.Authenticate(ctx, strings.TrimSpace(token))
	if err != nil {
		msg := msgTokenFailed
		if errors.Is(err, service.ErrUserNotFound) && !errors.Is(err, service.ErrInvalidToken) {
			msg = msgUserNotFound
		}
		if h.log != nil {
			h.log.Infow("auth_rejected", "reason", msg, "err", err)
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Message: msg})
		return
	}

	c.Request = c.Request.WithContext(identity.WithUser(ctx, *user))
	c.Next()
}

// currentUser returns the caller attached by authMiddleware. When it is
// missing the request is answered with 401 and ok is false.
func currentUser(c *gin.Context) (models.User, bool) {
	u, ok := identity.UserFromContext(c.Request.Context())
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Message: msgNoToken})
	}
	return u, ok
}

// requestLogger tags each request with an id and logs the response at a
// level determined by the status code: 5xx error, 4xx warn, otherwise info.
func (h *Handler) requestLogger(c *gin.Context) {
	start := time.Now()

	reqID := c.GetHeader(headerRequestID)
	if reqID == "" {
		reqID = uuid.NewString()
	}
	c.Header(headerRequestID, reqID)
	c.Request = c.Request.WithContext(identity.WithRequestID(c.Request.Context(), reqID))

	c.Next()

	if h.log == nil {
		return
	}
	status := c.Writer.Status()
	fields := []interface{}{
		"request_id", reqID,
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"status", status,
		"latency", time.Since(start),
		"client_ip", c.ClientIP(),
		"bytes_sent", c.Writer.Size(),
	}
	switch {
	case status >= http.StatusInternalServerError:
		h.log.Errorw("response", fields...)
	case status >= http.StatusBadRequest:
		h.log.Warnw("response", fields...)
	default:
		h.log.Infow("response", fields...)
	}
}
