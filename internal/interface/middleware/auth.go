package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/brightlens/brokerportal/pkg/helpers"
	"github.com/brightlens/brokerportal/pkg/response"
)

// BearerAuth validates the Authorization header and injects the claims
// into the Gin context. It does not require the account to be verified;
// the OTP endpoints are reachable with an unverified session.
//
// Expired and forged tokens get the same message on purpose.
func BearerAuth(jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || token == "" {
			response.Error[any](c, http.StatusUnauthorized, "Session expired, please log in again", nil)
			c.Abort()
			return
		}
		claims, err := jwt.ParseToken(token)
		if err != nil {
			response.Error[any](c, http.StatusUnauthorized, "Session expired, please log in again", nil)
			c.Abort()
			return
		}
		c.Set("userID", claims.UserID)
		c.Set("userEmail", claims.Email)
		c.Set("userVerified", claims.Verified)
		c.Next()
	}
}
