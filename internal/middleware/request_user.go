// Package middleware carries the request-scoped identity the API trusts the
// edge proxy to establish. Everything behind /api is owner-scoped on it.
package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/brandmill/brandmill-backend/internal/logger"
)

const userIDKey = "request_user_id"

// UserIDHeader is set by the gateway after it authenticates the caller.
const UserIDHeader = "X-User-ID"

type RequestUserMiddleware struct {
	log *logger.Logger
}

func NewRequestUserMiddleware(baseLog *logger.Logger) *RequestUserMiddleware {
	return &RequestUserMiddleware{log: baseLog.With("middleware", "RequestUser")}
}

func (m *RequestUserMiddleware) RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(UserIDHeader))
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": gin.H{"message": "missing user identity", "code": "unauthorized"}})
			return
		}
		id, err := uuid.Parse(raw)
		if err != nil || id == uuid.Nil {
			m.log.Warn("Rejecting request with malformed user id", "value", raw)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": gin.H{"message": "invalid user identity", "code": "unauthorized"}})
			return
		}
		c.Set(userIDKey, id)
		c.Next()
	}
}

// UserID returns the authenticated user for this request.
func UserID(c *gin.Context) (uuid.UUID, error) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return uuid.Nil, fmt.Errorf("no user on request")
	}
	id, ok := v.(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("no user on request")
	}
	return id, nil
}
