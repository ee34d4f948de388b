package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cronhub/scheduler/internal/auth"
	"github.com/cronhub/scheduler/internal/domain"
)

const claimsKey = "claims"

// Auth validates a bearer token from the Authorization header or, failing
// that, a "token" cookie, and stores the decoded claims in the gin context.
func Auth(svc *auth.Service, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		claims, err := svc.Verify(c.Request.Context(), raw)
		if err != nil {
			logger.Debug("token rejected", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return after
	}
	if cookie, err := c.Cookie("token"); err == nil {
		return cookie
	}
	return ""
}

// RequireAdmin rejects non-admin callers. Must run after Auth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := ClaimsFrom(c)
		if !claims.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

// ClaimsFrom reads the authenticated caller's claims set by Auth. Panics if
// called on a route not behind Auth — a programmer error, not a runtime one.
func ClaimsFrom(c *gin.Context) domain.Claims {
	return c.MustGet(claimsKey).(domain.Claims)
}
