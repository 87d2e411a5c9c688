package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/kaaboura12/backend-hackathon-sos-V0.1/internal/models"
	appErrors "github.com/kaaboura12/backend-hackathon-sos-V0.1/pkg/errors"
	"github.com/kaaboura12/backend-hackathon-sos-V0.1/pkg/response"
)

// RequirePermissions gates a route on the caller's permission claims. Every
// listed permission must be present; a token carrying no permissions at all
// is always refused.
func RequirePermissions(required ...models.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims := claimsValue.(*models.JWTClaims)

		if len(claims.Permissions) == 0 {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}

		for _, p := range required {
			if !claims.HasPermission(p) {
				response.Error(c, appErrors.ErrForbidden)
				c.Abort()
				return
			}
		}

		c.Next()
	}
}
