package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/taptapmatrix/tap_backend/config"
	"github.com/taptapmatrix/tap_backend/models"
	"github.com/taptapmatrix/tap_backend/utils"
)

// SessionMiddleware resolves the session token into the acting user.
// Tokens are JWTs issued at login and mirrored in Redis so that logout
// (removing the Redis key) invalidates the token before it expires.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Request.Header.Get("token")
		if token == "" {
			c.Next()
			return
		}

		parsed, err := utils.JwtValidate(token)
		if err != nil || !parsed.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		claims, ok := parsed.Claims.(*utils.JwtCustomClaim)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		username, exists, err := config.GetRedisValue("Token:" + token)
		if err != nil || !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		ctx := utils.SetTokenInContext(c.Request.Context(), token)
		ctx = utils.SetUsernameInContext(ctx, username)
		ctx = utils.SetUserIdInContext(ctx, claims.ID)
		ctx = utils.SetIsAdminInContext(ctx, claims.Role == string(models.UserRoleAdmin))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
