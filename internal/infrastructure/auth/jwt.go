package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"warden/internal/domain/session"
	"warden/internal/shared/authorization"
	apperrors "warden/internal/shared/errors"
)

// Claims are the identity facts embedded in an access token. Validity of the
// session they name is re-derived by the facade against the store; this codec
// only answers "is this token well-formed and fresh".
type Claims struct {
	SessionID string                 `json:"session_id"`
	UserID    string                 `json:"user_id"`
	Email     string                 `json:"email"`
	Role      authorization.UserRole `json:"role"`
	jwt.RegisteredClaims
}

// JWTService signs and verifies compact HS256 access tokens. It is stateless:
// a pure function of claims, secret, and clock.
type JWTService struct {
	secret    []byte
	accessTTL time.Duration
	clock     session.Clock
}

func NewJWTService(secret string, accessTTL time.Duration, clock session.Clock) *JWTService {
	if clock == nil {
		clock = session.DefaultClock
	}
	return &JWTService{
		secret:    []byte(secret),
		accessTTL: accessTTL,
		clock:     clock,
	}
}

// SignAccessToken produces a signed access token for the given session.
// The token's lifetime is fixed and much shorter than the session's.
func (s *JWTService) SignAccessToken(sessionID, userID, email string, role authorization.UserRole) (string, error) {
	now := s.clock()

	claims := &Claims{
		SessionID: sessionID,
		UserID:    userID,
		Email:     email,
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

// VerifyAccessToken verifies signature and embedded expiry. It returns a
// token_expired AuthError when the embedded expiry has passed and a
// token_invalid AuthError for every structural or signature failure.
func (s *JWTService) VerifyAccessToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return s.clock() }))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.NewTokenExpiredError("access token")
		}
		return nil, apperrors.NewTokenInvalidError("access token")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return nil, apperrors.NewTokenInvalidError("access token")
	}

	return claims, nil
}
