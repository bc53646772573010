package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"dirhub.app/server/common/logger"
	"dirhub.app/server/internal/model"
)

const identityKey = "dirhub_identity"

// Recovery converts panics into 500s with a structured log line.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				slog.ErrorContext(c.Request.Context(), "panic recovered",
					"panic", r, "path", c.Request.URL.Path)
				c.AbortWithStatusJSON(http.StatusInternalServerError,
					gin.H{"error": "internal error"})
			}
		}()
		c.Next()
	}
}

// Logger emits one request log line with latency and status.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.InfoContext(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
		)
	}
}

// Identity extracts the caller identity the auth gateway injects as trusted
// headers. Session issuance and validation live upstream; core operations
// only ever see an explicit Identity value.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := strconv.ParseInt(c.GetHeader("X-User-ID"), 10, 64)
		if err != nil || userID == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
			return
		}

		ident := model.Identity{
			UserID:   userID,
			Username: c.GetHeader("X-Username"),
		}
		c.Set(identityKey, ident)

		ctx := logger.WithLogFields(c.Request.Context(), logger.LogFields{
			ActorID: logger.Ptr(userID),
		})
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// CurrentIdentity returns the identity set by the Identity middleware.
func CurrentIdentity(c *gin.Context) model.Identity {
	if v, ok := c.Get(identityKey); ok {
		if ident, ok := v.(model.Identity); ok {
			return ident
		}
	}
	return model.Identity{}
}
