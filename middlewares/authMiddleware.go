package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rskenterprises/billing_backend/utils"
)

// AuthMiddleware requires a valid bearer token on every request. With no
// issuer configured the API is open.
func AuthMiddleware(issuer *utils.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if issuer == nil {
			c.Next()
			return
		}

		auth := c.Request.Header.Get("Authorization")
		const bearer = "Bearer "
		if !strings.HasPrefix(auth, bearer) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		token := strings.TrimSpace(auth[len(bearer):])
		validate, err := issuer.JwtValidate(token)
		if err != nil || !validate.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		customClaim, _ := validate.Claims.(*utils.JwtCustomClaim)
		ctx := c.Request.Context()
		if customClaim != nil {
			ctx = utils.SetUserNameInContext(ctx, customClaim.UserName)
			ctx = utils.SetRoleInContext(ctx, customClaim.Role)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
