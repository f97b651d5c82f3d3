// Package session defines the session record at the heart of the token
// lifecycle: one record per active login, dual-keyed by session ID and by the
// hash of its refresh token.
package session

import (
	"fmt"
	"time"

	"warden/internal/shared/authorization"
	"warden/internal/shared/biztime"
	"warden/internal/shared/id"
)

// Clock supplies the current time. Injecting it keeps expiry, eviction
// ordering, and sweep timing deterministic in tests.
type Clock func() time.Time

// DefaultClock reads the process wall clock in UTC.
func DefaultClock() time.Time {
	return biztime.NowUTC()
}

// DeviceInfo carries optional provenance metadata for a session. It is
// informational only and never used for authorization decisions.
type DeviceInfo struct {
	DeviceName string
	DeviceType string
	IPAddress  string
	UserAgent  string
}

// Session is one active login. Identity claims are copied from the
// authenticating principal at creation time and are immutable for the life
// of the session. ExpiresAt is a hard ceiling independent of activity.
type Session struct {
	ID               string
	UserID           string
	Email            string
	Role             authorization.UserRole
	DeviceName       string
	DeviceType       string
	IPAddress        string
	UserAgent        string
	RefreshTokenHash string
	ExpiresAt        time.Time
	LastActivityAt   time.Time
	CreatedAt        time.Time
}

// New creates a session for the given identity claims. The caller supplies
// the current time and the session lifetime; the refresh token hash is bound
// afterwards by the issuing service.
func New(userID, email string, role authorization.UserRole, device DeviceInfo, now time.Time, lifetime time.Duration) (*Session, error) {
	if userID == "" {
		return nil, fmt.Errorf("user ID is required")
	}
	if !role.IsValid() {
		return nil, fmt.Errorf("invalid role %q", role)
	}

	sid, err := id.NewSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	return &Session{
		ID:             sid,
		UserID:         userID,
		Email:          email,
		Role:           role,
		DeviceName:     device.DeviceName,
		DeviceType:     device.DeviceType,
		IPAddress:      device.IPAddress,
		UserAgent:      device.UserAgent,
		ExpiresAt:      now.Add(lifetime),
		LastActivityAt: now,
		CreatedAt:      now,
	}, nil
}

// IsExpired reports whether the session's absolute expiry has passed.
func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// UpdateActivity bumps the last-activity timestamp. The field is advisory,
// used only for least-recently-active eviction ordering.
func (s *Session) UpdateActivity(now time.Time) {
	s.LastActivityAt = now
}
