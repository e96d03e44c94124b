package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/monozukuri-ai/assistant-orchestrator/internal/models"
)

const (
	// ContextKeyUserID is the gin context key holding the authenticated user ID.
	ContextKeyUserID = "user_id"
	// ContextKeyEmail is the gin context key holding the authenticated email.
	ContextKeyEmail = "email"
)

// RequireAuth returns gin middleware that validates the Bearer token on each
// request and rejects unauthenticated callers. Browsers cannot set headers on
// WebSocket upgrades, so a "token" query parameter is accepted as a fallback.
func RequireAuth(jm *JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
				Error: "missing authorization token",
				Code:  models.ErrCodeUnauthorized,
			})
			return
		}

		claims, err := jm.ValidateToken(c.Request.Context(), tokenString)
		if err != nil {
			log.Debug().Err(err).Str("path", c.Request.URL.Path).Msg("token validation failed")
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
				Error: "invalid or expired token",
				Code:  models.ErrCodeUnauthorized,
			})
			return
		}

		c.Set(ContextKeyUserID, claims.UserID)
		c.Set(ContextKeyEmail, claims.Email)
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return c.Query("token")
}
