package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"warden/internal/shared/constants"
	"warden/internal/shared/utils"
)

// InternalToken guards endpoints reserved for trusted upstream services.
// The shared token is compared in constant time; an empty configured token
// disables the endpoints entirely.
func InternalToken(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			utils.ErrorResponse(c, http.StatusServiceUnavailable, "internal API is not configured")
			c.Abort()
			return
		}

		presented := strings.TrimPrefix(c.GetHeader(constants.HeaderAuthorization), "Bearer ")
		if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
			utils.ErrorResponse(c, http.StatusUnauthorized, "invalid internal API token")
			c.Abort()
			return
		}

		c.Next()
	}
}
