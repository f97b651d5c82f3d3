package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"warden/internal/shared/constants"
)

// RequestID attaches a request identifier to every request, reusing the
// caller-provided X-Request-ID header when present.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(constants.HeaderXRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		c.Set(constants.ContextKeyRequestID, requestID)
		c.Header(constants.HeaderXRequestID, requestID)

		c.Next()
	}
}
