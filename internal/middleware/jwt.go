package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tycoon-games/backend/internal/auth"
	"github.com/tycoon-games/backend/pkg/response"
)

// Context keys set by JWTAuth.
const (
	ContextPlayerID   = "player_id"
	ContextPlayerRole = "player_role"
	ContextUsername   = "username"
)

// JWTAuth validates the Bearer token and stores the player identity in the
// request context.
func JWTAuth(manager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}
		claims, err := manager.Validate(parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		c.Set(ContextPlayerID, claims.PlayerID)
		c.Set(ContextPlayerRole, claims.Role)
		c.Set(ContextUsername, claims.Username)
		c.Next()
	}
}
