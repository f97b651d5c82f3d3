// Package sessions implements the session lifecycle service: issuance,
// validation, refresh, enumeration, revocation, per-user capacity limits,
// and the expiry sweep.
package sessions

import (
	"fmt"
	"time"

	"warden/internal/domain/session"
	"warden/internal/infrastructure/auth"
	"warden/internal/infrastructure/token"
	"warden/internal/shared/authorization"
	apperrors "warden/internal/shared/errors"
	"warden/internal/shared/logger"
)

// ErrNotAuthenticated is the single caller-facing failure for every
// authentication outcome: malformed token, expired token, unknown session,
// expired session, unknown refresh token. Callers must not be able to
// distinguish why authentication failed.
var ErrNotAuthenticated = apperrors.NewUnauthorizedError("not authenticated")

// TokenCodec signs and verifies access tokens. Stateless; the session
// cross-check belongs to the Manager.
type TokenCodec interface {
	SignAccessToken(sessionID, userID, email string, role authorization.UserRole) (string, error)
	VerifyAccessToken(tokenString string) (*auth.Claims, error)
}

// Config is the fixed configuration surface of the session service.
type Config struct {
	AccessTokenTTL     time.Duration
	SessionLifetime    time.Duration
	MaxSessionsPerUser int
	SweepInterval      time.Duration
}

// TokenPair is a transient issuance result; it is never stored.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// SessionData is the read-only session view handed to collaborators.
type SessionData struct {
	SessionID      string                 `json:"session_id"`
	UserID         string                 `json:"user_id"`
	Email          string                 `json:"email"`
	Role           authorization.UserRole `json:"role"`
	DeviceName     string                 `json:"device_name,omitempty"`
	DeviceType     string                 `json:"device_type,omitempty"`
	IPAddress      string                 `json:"ip_address,omitempty"`
	UserAgent      string                 `json:"user_agent,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
	LastActivityAt time.Time              `json:"last_activity_at"`
	ExpiresAt      time.Time              `json:"expires_at"`
}

// CreateSessionCommand carries identity claims already verified by the
// upstream login or registration flow, plus optional provenance metadata.
type CreateSessionCommand struct {
	UserID string
	Email  string
	Role   authorization.UserRole
	Device session.DeviceInfo
}

// Manager is the session lifecycle facade. All facade operations are
// non-blocking and bounded; concurrent callers are serialized by the store's
// lock per logical operation.
type Manager struct {
	store  session.Store
	codec  TokenCodec
	tokens token.TokenGenerator
	cfg    Config
	clock  session.Clock
	logger logger.Interface
}

func NewManager(
	store session.Store,
	codec TokenCodec,
	tokens token.TokenGenerator,
	cfg Config,
	clock session.Clock,
	log logger.Interface,
) *Manager {
	if clock == nil {
		clock = session.DefaultClock
	}
	return &Manager{
		store:  store,
		codec:  codec,
		tokens: tokens,
		cfg:    cfg,
		clock:  clock,
		logger: log,
	}
}

// CreateSession mints a new session for verified identity claims and returns
// its token pair. Older sessions are evicted first when the user is at the
// concurrent-session cap; the new session always wins a slot.
func (m *Manager) CreateSession(cmd CreateSessionCommand) (*TokenPair, error) {
	now := m.clock()

	rec, err := session.New(cmd.UserID, cmd.Email, cmd.Role, cmd.Device, now, m.cfg.SessionLifetime)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid session claims", err.Error())
	}

	refreshToken, refreshHash, err := m.tokens.Generate(token.PrefixRefresh)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	rec.RefreshTokenHash = refreshHash

	evicted, err := m.store.InsertWithLimit(rec, m.cfg.MaxSessionsPerUser, now)
	if err != nil {
		m.logger.Errorw("failed to insert session", "error", err, "user_id", cmd.UserID)
		return nil, err
	}
	if len(evicted) > 0 {
		m.logger.Infow("evicted sessions for user at capacity",
			"user_id", cmd.UserID,
			"evicted", evicted,
			"max_per_user", m.cfg.MaxSessionsPerUser,
		)
	}

	accessToken, err := m.codec.SignAccessToken(rec.ID, rec.UserID, rec.Email, rec.Role)
	if err != nil {
		// Roll back so no session exists without an issued pair
		m.store.Remove(rec.ID)
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	m.logger.Infow("session created", "user_id", cmd.UserID, "session_id", rec.ID)

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(m.cfg.AccessTokenTTL.Seconds()),
	}, nil
}

// ValidateAccessToken verifies the bearer token and cross-checks that the
// session it names still exists and is unexpired. On success the session's
// last activity is bumped. This is the hot path: one codec verification and
// one locked map operation.
func (m *Manager) ValidateAccessToken(tokenString string) (*SessionData, error) {
	claims, err := m.codec.VerifyAccessToken(tokenString)
	if err != nil {
		if apperrors.ShouldLogAuthError(err) {
			m.logger.Warnw("access token rejected", "error", err)
		} else {
			m.logger.Debugw("access token expired")
		}
		return nil, ErrNotAuthenticated
	}

	now := m.clock()
	rec, status := m.store.TouchIfLive(claims.SessionID, now)
	switch status {
	case session.TouchOK:
		data := toSessionData(rec)
		return &data, nil
	case session.TouchExpired:
		m.store.Remove(rec.ID)
		m.logger.Debugw("session expired on validate", "session_id", rec.ID)
		return nil, ErrNotAuthenticated
	default:
		m.logger.Debugw("session not found on validate", "session_id", claims.SessionID)
		return nil, ErrNotAuthenticated
	}
}

// RefreshSession mints a new access token for the session bound to the given
// refresh token. The refresh token itself is not rotated: the same token
// keeps working until the session's absolute expiry.
func (m *Manager) RefreshSession(refreshToken string) (*TokenPair, error) {
	rec, ok := m.store.FindByRefreshTokenHash(m.tokens.Hash(refreshToken))
	if !ok {
		m.logger.Debugw("refresh token not recognized")
		return nil, ErrNotAuthenticated
	}

	now := m.clock()
	touched, status := m.store.TouchIfLive(rec.ID, now)
	switch status {
	case session.TouchOK:
		rec = touched
	case session.TouchExpired:
		m.store.Remove(rec.ID)
		m.logger.Debugw("session expired on refresh", "session_id", rec.ID)
		return nil, ErrNotAuthenticated
	default:
		return nil, ErrNotAuthenticated
	}

	accessToken, err := m.codec.SignAccessToken(rec.ID, rec.UserID, rec.Email, rec.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	m.logger.Infow("session refreshed", "user_id", rec.UserID, "session_id", rec.ID)

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(m.cfg.AccessTokenTTL.Seconds()),
	}, nil
}

// DestroySession removes the session from both indices and reports whether
// it existed. Idempotent; destroying a destroyed ID returns false.
func (m *Manager) DestroySession(sessionID string) bool {
	removed := m.store.Remove(sessionID)
	if removed {
		m.logger.Infow("session destroyed", "session_id", sessionID)
	}
	return removed
}

// DestroyAllUserSessions destroys every live session for the user ("log out
// everywhere") and returns how many were destroyed.
func (m *Manager) DestroyAllUserSessions(userID string) int {
	count := m.store.RemoveAllByUser(userID, m.clock())
	if count > 0 {
		m.logger.Infow("destroyed all sessions for user", "user_id", userID, "count", count)
	}
	return count
}

// GetUserSessions returns the user's live sessions, most recent activity
// first. Logically expired entries are excluded even before the sweeper
// reclaims them.
func (m *Manager) GetUserSessions(userID string) []SessionData {
	records := m.store.ListByUser(userID, m.clock())
	result := make([]SessionData, 0, len(records))
	for _, rec := range records {
		result = append(result, toSessionData(rec))
	}
	return result
}

// GetStats returns store statistics for operational dashboards.
func (m *Manager) GetStats() session.Stats {
	return m.store.Stats(m.clock())
}

// SweepExpired reclaims every session past its absolute expiry and returns
// how many were destroyed. IDs are collected first and destroyed after, so
// the lock is never held across the whole run; destroying an ID that another
// operation already removed is a no-op.
func (m *Manager) SweepExpired() int {
	now := m.clock()
	ids := m.store.ExpiredIDs(now)

	count := 0
	for _, sid := range ids {
		if m.store.Remove(sid) {
			count++
		}
	}
	return count
}

func toSessionData(rec session.Session) SessionData {
	return SessionData{
		SessionID:      rec.ID,
		UserID:         rec.UserID,
		Email:          rec.Email,
		Role:           rec.Role,
		DeviceName:     rec.DeviceName,
		DeviceType:     rec.DeviceType,
		IPAddress:      rec.IPAddress,
		UserAgent:      rec.UserAgent,
		CreatedAt:      rec.CreatedAt,
		LastActivityAt: rec.LastActivityAt,
		ExpiresAt:      rec.ExpiresAt,
	}
}
