package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"warden/internal/application/sessions"
	"warden/internal/domain/session"
	"warden/internal/shared/authorization"
	"warden/internal/shared/biztime"
	"warden/internal/shared/constants"
	"warden/internal/shared/logger"
	"warden/internal/shared/utils"
)

type SessionHandler struct {
	manager *sessions.Manager
	logger  logger.Interface
}

func NewSessionHandler(manager *sessions.Manager, logger logger.Interface) *SessionHandler {
	return &SessionHandler{
		manager: manager,
		logger:  logger,
	}
}

type CreateSessionRequest struct {
	UserID     string `json:"user_id" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Role       string `json:"role" binding:"required"`
	DeviceName string `json:"device_name"`
	DeviceType string `json:"device_type"`
	IPAddress  string `json:"ip_address"`
	UserAgent  string `json:"user_agent"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type sessionView struct {
	SessionID      string `json:"session_id"`
	DeviceName     string `json:"device_name,omitempty"`
	DeviceType     string `json:"device_type,omitempty"`
	IPAddress      string `json:"ip_address,omitempty"`
	UserAgent      string `json:"user_agent,omitempty"`
	CreatedAt      string `json:"created_at"`
	LastActivityAt string `json:"last_activity_at"`
	ExpiresAt      string `json:"expires_at"`
	IsCurrent      bool   `json:"is_current"`
}

// CreateSession establishes a session for an already-authenticated user.
// It is called by the upstream login service after credential verification;
// the endpoint is guarded by the internal API token.
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	role := authorization.ParseUserRole(req.Role)

	cmd := sessions.CreateSessionCommand{
		UserID: req.UserID,
		Email:  req.Email,
		Role:   role,
		Device: session.DeviceInfo{
			DeviceName: req.DeviceName,
			DeviceType: req.DeviceType,
			IPAddress:  req.IPAddress,
			UserAgent:  req.UserAgent,
		},
	}
	if cmd.Device.IPAddress == "" {
		cmd.Device.IPAddress = c.ClientIP()
	}

	pair, err := h.manager.CreateSession(cmd)
	if err != nil {
		h.logger.Errorw("session creation failed", "error", err, "user_id", req.UserID)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, pair, "session created")
}

// Refresh exchanges a valid refresh token for a fresh access token.
func (h *SessionHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	pair, err := h.manager.RefreshSession(req.RefreshToken)
	if err != nil {
		utils.ErrorResponse(c, http.StatusUnauthorized, "invalid or expired refresh token")
		return
	}

	utils.OKResponse(c, pair, "token refreshed")
}

// ListSessions returns the caller's live sessions, most recently active first.
func (h *SessionHandler) ListSessions(c *gin.Context) {
	userID := c.GetString(constants.ContextKeyUserID)
	currentSessionID := c.GetString(constants.ContextKeySessionID)

	list := h.manager.GetUserSessions(userID)

	views := make([]sessionView, 0, len(list))
	for _, s := range list {
		views = append(views, sessionView{
			SessionID:      s.SessionID,
			DeviceName:     s.DeviceName,
			DeviceType:     s.DeviceType,
			IPAddress:      s.IPAddress,
			UserAgent:      s.UserAgent,
			CreatedAt:      biztime.FormatMetadataTime(s.CreatedAt),
			LastActivityAt: biztime.FormatMetadataTime(s.LastActivityAt),
			ExpiresAt:      biztime.FormatMetadataTime(s.ExpiresAt),
			IsCurrent:      s.SessionID == currentSessionID,
		})
	}

	utils.OKResponse(c, gin.H{"sessions": views, "total": len(views)})
}

// RevokeSession destroys one of the caller's sessions by ID. Revoking a
// session that belongs to another user is reported as not found.
func (h *SessionHandler) RevokeSession(c *gin.Context) {
	userID := c.GetString(constants.ContextKeyUserID)
	sessionID := c.Param("id")

	owned := false
	for _, s := range h.manager.GetUserSessions(userID) {
		if s.SessionID == sessionID {
			owned = true
			break
		}
	}
	if !owned {
		utils.ErrorResponse(c, http.StatusNotFound, "session not found")
		return
	}

	h.manager.DestroySession(sessionID)
	h.logger.Infow("session revoked", "user_id", userID, "session_id", sessionID)

	utils.NoContentResponse(c)
}

// RevokeAllSessions destroys every session of the caller, including the
// current one.
func (h *SessionHandler) RevokeAllSessions(c *gin.Context) {
	userID := c.GetString(constants.ContextKeyUserID)

	count := h.manager.DestroyAllUserSessions(userID)
	h.logger.Infow("all sessions revoked", "user_id", userID, "count", count)

	utils.OKResponse(c, gin.H{"revoked": count})
}

// Stats reports aggregate session counts for operators.
func (h *SessionHandler) Stats(c *gin.Context) {
	utils.OKResponse(c, h.manager.GetStats())
}
