package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"warden/internal/application/sessions"
	"warden/internal/shared/constants"
	"warden/internal/shared/logger"
	"warden/internal/shared/utils"
)

type AuthMiddleware struct {
	manager *sessions.Manager
	logger  logger.Interface
}

func NewAuthMiddleware(manager *sessions.Manager, logger logger.Interface) *AuthMiddleware {
	return &AuthMiddleware{
		manager: manager,
		logger:  logger,
	}
}

// RequireAuth validates the bearer token against the session store and
// populates the request context with the caller's identity. A token whose
// session has been revoked or expired is rejected even if the signature
// is still valid.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "missing authorization token")
			c.Abort()
			return
		}

		data, err := m.manager.ValidateAccessToken(token)
		if err != nil {
			utils.ErrorResponse(c, http.StatusUnauthorized, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyUserID, data.UserID)
		c.Set(constants.ContextKeySessionID, data.SessionID)
		c.Set(constants.ContextKeyUserRole, string(data.Role))

		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader(constants.HeaderAuthorization)
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}
