package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/adopaw/adopaw-backend/internal/pkg/ctxutil"
	"github.com/adopaw/adopaw-backend/internal/pkg/logger"
	"github.com/adopaw/adopaw-backend/internal/ratelimit"
)

// RateLimit keys the window by authenticated user, falling back to client IP
// for unauthenticated traffic.
func RateLimit(log *logger.Logger, limiter *ratelimit.FixedWindowLimiter) gin.HandlerFunc {
	mwLog := log.With("Middleware", "RateLimit")
	return func(c *gin.Context) {
		key := c.ClientIP()
		if rd := ctxutil.GetRequestData(c.Request.Context()); rd != nil && rd.UserID != uuid.Nil {
			key = rd.UserID.String()
		}
		if !limiter.Allow(key) {
			mwLog.Warn("request rate limited", "key", key, "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{"message": "too many requests", "code": "rate_limited"},
			})
			return
		}
		c.Next()
	}
}
